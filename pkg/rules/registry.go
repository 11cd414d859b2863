package rules

import (
	"context"
	"fmt"
	"sort"

	"waveform-hq/archivist/pkg/sds"
)

// Condition is a predicate over one archive file. Options come from the
// rule map. Negation is applied by the engine, never by the predicate.
type Condition func(ctx context.Context, file *sds.File, opts Options) (bool, error)

// Action performs one side effect on an archive file.
type Action func(ctx context.Context, file *sds.File, opts Options) error

// Registry holds the named condition and action functions a rule map
// may reference. It is populated at process start and read-only after.
type Registry struct {
	conditions map[string]Condition
	actions    map[string]Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conditions: make(map[string]Condition),
		actions:    make(map[string]Action),
	}
}

// RegisterCondition adds a named condition. Names are unique.
func (r *Registry) RegisterCondition(name string, fn Condition) error {
	if name == "" || fn == nil {
		return fmt.Errorf("condition registration requires a name and a function")
	}
	if _, exists := r.conditions[name]; exists {
		return fmt.Errorf("condition %q already registered", name)
	}
	r.conditions[name] = fn
	return nil
}

// RegisterAction adds a named action. Names are unique.
func (r *Registry) RegisterAction(name string, fn Action) error {
	if name == "" || fn == nil {
		return fmt.Errorf("action registration requires a name and a function")
	}
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("action %q already registered", name)
	}
	r.actions[name] = fn
	return nil
}

// Condition returns the named condition.
func (r *Registry) Condition(name string) (Condition, bool) {
	fn, ok := r.conditions[name]
	return fn, ok
}

// Action returns the named action.
func (r *Registry) Action(name string) (Action, bool) {
	fn, ok := r.actions[name]
	return fn, ok
}

// ConditionNames returns the registered condition names, sorted.
func (r *Registry) ConditionNames() []string {
	names := make([]string, 0, len(r.conditions))
	for name := range r.conditions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActionNames returns the registered action names, sorted.
func (r *Registry) ActionNames() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
