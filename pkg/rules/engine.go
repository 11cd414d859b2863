package rules

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"waveform-hq/archivist/pkg/sds"
	"waveform-hq/archivist/pkg/worker"
)

// Outcome classifies the result of one (item, rule) pair.
type Outcome string

const (
	// OutcomeSkipped means the conditions did not pass.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeSuccess means the action completed.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure means the action returned an error.
	OutcomeFailure Outcome = "failure"

	// OutcomeTimeout means the action exceeded its execution budget.
	OutcomeTimeout Outcome = "timeout"
)

// Observer receives evaluation events for telemetry. Implementations
// must be safe for concurrent use.
type Observer interface {
	RuleEvaluated(rule string, outcome Outcome, duration time.Duration)
	ItemProcessed()
}

// nopObserver is used when no telemetry is wired.
type nopObserver struct{}

func (nopObserver) RuleEvaluated(string, Outcome, time.Duration) {}
func (nopObserver) ItemProcessed()                               {}

// EngineConfig configures an Engine.
type EngineConfig struct {
	// Workers is the number of items processed concurrently.
	// Default: 1
	Workers int

	// DefaultTimeout bounds actions whose rule sets no timeout.
	// Default: 2 minutes
	DefaultTimeout time.Duration

	// Observer receives telemetry events. Optional.
	Observer Observer

	// Logger for evaluation diagnostics. Optional.
	Logger *slog.Logger
}

// Engine evaluates a rule set over archive files.
type Engine struct {
	ruleset  *RuleSet
	workers  int
	timeout  time.Duration
	observer Observer
	logger   *slog.Logger
}

// NewEngine creates an engine for the given rule set.
func NewEngine(ruleset *RuleSet, cfg EngineConfig) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 2 * time.Minute
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		ruleset:  ruleset,
		workers:  cfg.Workers,
		timeout:  cfg.DefaultTimeout,
		observer: cfg.Observer,
		logger:   cfg.Logger.With("component", "engine"),
	}
}

// RunReport aggregates outcomes across a run.
type RunReport struct {
	mu        sync.Mutex
	Items     int
	Succeeded int
	Failed    int
	Skipped   int
	TimedOut  int
}

func (r *RunReport) record(outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch outcome {
	case OutcomeSuccess:
		r.Succeeded++
	case OutcomeFailure:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeTimeout:
		r.TimedOut++
	}
}

func (r *RunReport) addItem() {
	r.mu.Lock()
	r.Items++
	r.mu.Unlock()
}

// Run evaluates the full sequence against every item. Items are
// dispatched to a bounded worker pool; the rule order within one item
// is strict while items interleave freely. An ExitError from any item
// cancels the run.
func (e *Engine) Run(ctx context.Context, items []*sds.File) (*RunReport, error) {
	report := &RunReport{}

	e.logger.Info("starting run",
		"items", len(items),
		"rules", len(e.ruleset.Rules()),
		"workers", e.workers,
	)

	err := worker.Map(ctx, e.workers, items, func(ctx context.Context, item *sds.File) error {
		return e.RunItem(ctx, item, report)
	})

	e.logger.Info("run finished",
		"items", report.Items,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"timed_out", report.TimedOut,
	)
	return report, err
}

// RunItem evaluates the full sequence against one item. Only an
// ExitError or a cancelled context stops the sequence early.
func (e *Engine) RunItem(ctx context.Context, item *sds.File, report *RunReport) error {
	logger := e.logger.With("file", item.Filename())

	for _, rule := range e.ruleset.Rules() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		start := time.Now()
		outcome, err := e.runRule(ctx, &rule, item, logger)
		report.record(outcome)
		e.observer.RuleEvaluated(rule.Name, outcome, time.Since(start))

		if err != nil {
			var exit *ExitError
			if errors.As(err, &exit) {
				logger.Error("rule marked exit-on-failure failed, aborting run",
					"rule", rule.Name, "error", exit.Cause)
				return exit
			}
		}
	}

	report.addItem()
	e.observer.ItemProcessed()
	return nil
}

// runRule evaluates one rule against one item: conditions first, then
// the action under its timeout.
func (e *Engine) runRule(ctx context.Context, rule *Rule, item *sds.File, logger *slog.Logger) (Outcome, error) {
	start := time.Now()

	if !e.evaluateConditions(ctx, rule, item, logger) {
		logger.Debug("rule skipped", "rule", rule.Name)
		return OutcomeSkipped, nil
	}

	timeout := rule.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}
	actionCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := rule.action(actionCtx, item, rule.Options)
	duration := time.Since(start)

	if err != nil {
		if actionCtx.Err() == context.DeadlineExceeded {
			timeoutErr := &TimeoutError{Rule: rule.Name, Item: item.Filename(), Timeout: timeout}
			logger.Warn("rule timed out", "rule", rule.Name, "timeout", timeout)
			if rule.ExitOnFailure {
				return OutcomeTimeout, &ExitError{Rule: rule.Name, Item: item.Filename(), Cause: timeoutErr}
			}
			return OutcomeTimeout, timeoutErr
		}

		actionErr := &ActionError{Rule: rule.Name, Item: item.Filename(), Cause: err}
		logger.Error("rule failed", "rule", rule.Name, "duration", duration, "error", err)
		if rule.ExitOnFailure {
			return OutcomeFailure, &ExitError{Rule: rule.Name, Item: item.Filename(), Cause: err}
		}
		return OutcomeFailure, actionErr
	}

	logger.Info("rule succeeded", "rule", rule.Name, "duration", duration)
	return OutcomeSuccess, nil
}

// evaluateConditions applies the rule's condition list as a
// short-circuiting AND. A condition error counts as unsatisfied and is
// logged; the run never caches verdicts, so the next run re-observes.
func (e *Engine) evaluateConditions(ctx context.Context, rule *Rule, item *sds.File, logger *slog.Logger) bool {
	for _, cond := range rule.Conditions {
		ok, err := cond.fn(ctx, item, cond.Options)
		if err != nil {
			logger.Warn("condition evaluation failed",
				"rule", rule.Name,
				"condition", cond.Name,
				"error", &ConditionError{Rule: rule.Name, Condition: cond.Name, Cause: err},
			)
			return false
		}
		if cond.Negate {
			ok = !ok
		}
		if !ok {
			return false
		}
	}
	return true
}
