package rules

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"waveform-hq/archivist/pkg/sds"
)

// recorder tracks action invocations across goroutines.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	r.mu.Unlock()
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func testFile(t *testing.T) *sds.File {
	t.Helper()
	file, err := sds.ParseFilename("/data/SDS", "NL.HGN.02.BHZ.D.2019.022")
	if err != nil {
		t.Fatalf("ParseFilename() error = %v", err)
	}
	return file
}

// buildRules assembles a rule set directly, bypassing file loading.
func buildRules(t *testing.T, registry *Registry, specs map[string]RuleSpec, sequence []string) *RuleSet {
	t.Helper()
	ruleset, err := Build(registry, specs, sequence)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return ruleset
}

func TestEngine_SequenceOrder(t *testing.T) {
	registry := NewRegistry()
	rec := &recorder{}
	for _, name := range []string{"first", "second", "third"} {
		name := name
		registry.RegisterAction(name, func(ctx context.Context, file *sds.File, opts Options) error {
			rec.add(name)
			return nil
		})
	}

	specs := map[string]RuleSpec{
		"A": {FunctionName: "first", Options: Options{}},
		"B": {FunctionName: "second", Options: Options{}},
		"C": {FunctionName: "third", Options: Options{}},
	}
	ruleset := buildRules(t, registry, specs, []string{"C", "A", "B"})
	engine := NewEngine(ruleset, EngineConfig{})

	report, err := engine.Run(context.Background(), []*sds.File{testFile(t)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"third", "first", "second"}
	got := rec.names()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v, want sequence order %v", got, want)
		}
	}
	if report.Succeeded != 3 || report.Items != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestEngine_EmptyConditionsRunOnce(t *testing.T) {
	registry := NewRegistry()
	rec := &recorder{}
	registry.RegisterAction("act", func(ctx context.Context, file *sds.File, opts Options) error {
		rec.add("act")
		return nil
	})

	ruleset := buildRules(t, registry,
		map[string]RuleSpec{"R": {FunctionName: "act", Options: Options{}}},
		[]string{"R"})
	engine := NewEngine(ruleset, EngineConfig{})

	if _, err := engine.Run(context.Background(), []*sds.File{testFile(t)}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.names()) != 1 {
		t.Errorf("action ran %d times, want exactly 1", len(rec.names()))
	}
}

func TestEngine_NegationInverts(t *testing.T) {
	registry := NewRegistry()
	rec := &recorder{}
	registry.RegisterCondition("alwaysTrue", func(ctx context.Context, file *sds.File, opts Options) (bool, error) {
		return true, nil
	})
	registry.RegisterAction("act", func(ctx context.Context, file *sds.File, opts Options) error {
		rec.add("act")
		return nil
	})

	specs := map[string]RuleSpec{
		"PLAIN": {
			FunctionName: "act", Options: Options{},
			Conditions: []ConditionSpec{{FunctionName: "alwaysTrue", Options: Options{}}},
		},
		"NEGATED": {
			FunctionName: "act", Options: Options{},
			Conditions: []ConditionSpec{{FunctionName: "!alwaysTrue", Options: Options{}}},
		},
	}
	ruleset := buildRules(t, registry, specs, []string{"PLAIN", "NEGATED"})
	engine := NewEngine(ruleset, EngineConfig{})

	report, err := engine.Run(context.Background(), []*sds.File{testFile(t)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.names()) != 1 {
		t.Errorf("action ran %d times, want 1 (negated rule must skip)", len(rec.names()))
	}
	if report.Skipped != 1 || report.Succeeded != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestEngine_ConditionErrorSkips(t *testing.T) {
	registry := NewRegistry()
	rec := &recorder{}
	registry.RegisterCondition("broken", func(ctx context.Context, file *sds.File, opts Options) (bool, error) {
		return true, errors.New("remote unavailable")
	})
	registry.RegisterAction("act", func(ctx context.Context, file *sds.File, opts Options) error {
		rec.add("act")
		return nil
	})

	specs := map[string]RuleSpec{
		"R": {
			FunctionName: "act", Options: Options{},
			Conditions: []ConditionSpec{{FunctionName: "broken", Options: Options{}}},
		},
		// A negated broken condition must also skip: errors are not
		// verdicts, so negation never turns a failure into a pass.
		"R_NEG": {
			FunctionName: "act", Options: Options{},
			Conditions: []ConditionSpec{{FunctionName: "!broken", Options: Options{}}},
		},
	}
	ruleset := buildRules(t, registry, specs, []string{"R", "R_NEG"})
	engine := NewEngine(ruleset, EngineConfig{})

	report, err := engine.Run(context.Background(), []*sds.File{testFile(t)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.names()) != 0 {
		t.Errorf("action ran %d times, want 0", len(rec.names()))
	}
	if report.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", report.Skipped)
	}
}

func TestEngine_FailureContinuesSequence(t *testing.T) {
	registry := NewRegistry()
	rec := &recorder{}
	registry.RegisterAction("failing", func(ctx context.Context, file *sds.File, opts Options) error {
		return errors.New("boom")
	})
	registry.RegisterAction("after", func(ctx context.Context, file *sds.File, opts Options) error {
		rec.add("after")
		return nil
	})

	specs := map[string]RuleSpec{
		"FAILS": {FunctionName: "failing", Options: Options{}},
		"NEXT":  {FunctionName: "after", Options: Options{}},
	}
	ruleset := buildRules(t, registry, specs, []string{"FAILS", "NEXT"})
	engine := NewEngine(ruleset, EngineConfig{})

	report, err := engine.Run(context.Background(), []*sds.File{testFile(t)})
	if err != nil {
		t.Fatalf("Run() error = %v, plain failures must not abort", err)
	}
	if len(rec.names()) != 1 {
		t.Error("rule after a failed rule should still run")
	}
	if report.Failed != 1 || report.Succeeded != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestEngine_ExitOnFailureAborts(t *testing.T) {
	registry := NewRegistry()
	rec := &recorder{}
	registry.RegisterAction("failing", func(ctx context.Context, file *sds.File, opts Options) error {
		return errors.New("boom")
	})
	registry.RegisterAction("after", func(ctx context.Context, file *sds.File, opts Options) error {
		rec.add("after")
		return nil
	})

	specs := map[string]RuleSpec{
		"CRITICAL": {FunctionName: "failing", Options: Options{}, ExitOnFailure: true},
		"NEXT":     {FunctionName: "after", Options: Options{}},
	}
	ruleset := buildRules(t, registry, specs, []string{"CRITICAL", "NEXT"})
	engine := NewEngine(ruleset, EngineConfig{})

	_, err := engine.Run(context.Background(), []*sds.File{testFile(t)})
	var exit *ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("Run() error = %v, want ExitError", err)
	}
	if len(rec.names()) != 0 {
		t.Error("no rule should run after an exit-on-failure abort")
	}
}

func TestEngine_TimeoutIsFailureNotFault(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterAction("slow", func(ctx context.Context, file *sds.File, opts Options) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	specs := map[string]RuleSpec{
		"SLOW": {FunctionName: "slow", Options: Options{}},
	}
	ruleset := buildRules(t, registry, specs, []string{"SLOW"})
	engine := NewEngine(ruleset, EngineConfig{DefaultTimeout: 20 * time.Millisecond})

	report, err := engine.Run(context.Background(), []*sds.File{testFile(t)})
	if err != nil {
		t.Fatalf("Run() error = %v, timeout must not abort the run", err)
	}
	if report.TimedOut != 1 {
		t.Errorf("TimedOut = %d, want 1", report.TimedOut)
	}
}

func TestEngine_MultipleItemsAllProcessed(t *testing.T) {
	registry := NewRegistry()
	rec := &recorder{}
	registry.RegisterAction("act", func(ctx context.Context, file *sds.File, opts Options) error {
		rec.add(file.Filename())
		return nil
	})

	specs := map[string]RuleSpec{"R": {FunctionName: "act", Options: Options{}}}
	ruleset := buildRules(t, registry, specs, []string{"R"})
	engine := NewEngine(ruleset, EngineConfig{Workers: 4})

	var items []*sds.File
	for _, name := range []string{
		"NL.HGN.02.BHZ.D.2019.021",
		"NL.HGN.02.BHZ.D.2019.022",
		"NL.HGN.02.BHZ.D.2019.023",
	} {
		file, err := sds.ParseFilename("/data/SDS", name)
		if err != nil {
			t.Fatalf("ParseFilename(%q): %v", name, err)
		}
		items = append(items, file)
	}

	report, err := engine.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Items != 3 || len(rec.names()) != 3 {
		t.Errorf("processed %d items, want 3", report.Items)
	}
}
