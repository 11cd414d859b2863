package rules

import (
	"fmt"
	"strings"
	"time"
)

// LoadError indicates a rule map or sequence file could not be loaded.
type LoadError struct {
	Path  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ValidationError aggregates the problems found while building a rule
// set: unknown names, double negation, duplicate or dangling sequence
// entries, schema violations.
type ValidationError struct {
	Path   string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid rule configuration %s: %s", e.Path, strings.Join(e.Errors, "; "))
}

// ConditionError wraps a condition evaluation failure. The engine logs
// it and treats the condition as unsatisfied.
type ConditionError struct {
	Rule      string
	Condition string
	Cause     error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition %s of rule %s: %v", e.Condition, e.Rule, e.Cause)
}

func (e *ConditionError) Unwrap() error {
	return e.Cause
}

// ActionError wraps an action failure for one (item, rule) pair.
type ActionError struct {
	Rule  string
	Item  string
	Cause error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("rule %s failed on %s: %v", e.Rule, e.Item, e.Cause)
}

func (e *ActionError) Unwrap() error {
	return e.Cause
}

// TimeoutError indicates an action exceeded its execution budget.
type TimeoutError struct {
	Rule    string
	Item    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rule %s timed out on %s after %s", e.Rule, e.Item, e.Timeout)
}

// ExitError aborts the whole run: a rule marked exit-on-failure failed,
// so the remaining pipeline stages are meaningless.
type ExitError struct {
	Rule  string
	Item  string
	Cause error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("aborting run: rule %s failed on %s: %v", e.Rule, e.Item, e.Cause)
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}
