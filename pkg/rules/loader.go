package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// RuleSpec is the wire form of one rule map entry.
type RuleSpec struct {
	Description   string          `json:"description"`
	FunctionName  string          `json:"function_name"`
	Options       Options         `json:"options"`
	Conditions    []ConditionSpec `json:"conditions"`
	Timeout       int             `json:"timeout"`
	ExitOnFailure bool            `json:"exit_on_failure"`
}

// ConditionSpec is the wire form of one condition reference. The
// function name may carry a leading "!" negation marker.
type ConditionSpec struct {
	FunctionName string  `json:"function_name"`
	Options      Options `json:"options"`
}

// ConditionCall is one resolved condition reference.
type ConditionCall struct {
	Name    string
	Negate  bool
	Options Options
	fn      Condition
}

// Rule is one fully resolved rule: an action gated by conditions.
type Rule struct {
	Name          string
	Description   string
	Action        string
	Options       Options
	Conditions    []ConditionCall
	Timeout       time.Duration
	ExitOnFailure bool

	action Action
}

// compileSchema panics on malformed embedded schemas; they are
// constants, so a failure is a programming error caught by any test.
func compileSchema(name, source string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(source))
	if err != nil {
		panic(fmt.Sprintf("parse %s schema: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add %s schema: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return schema
}

var (
	compiledRuleMapSchema  = compileSchema("rulemap.schema.json", ruleMapSchema)
	compiledSequenceSchema = compileSchema("rulesequence.schema.json", ruleSequenceSchema)
)

// readDocument reads a JSON or YAML file and returns both the generic
// value (for schema validation) and the canonical JSON bytes (for typed
// decoding). YAML is detected by file extension.
func readDocument(path string) (any, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		var value any
		if err := yaml.Unmarshal(raw, &value); err != nil {
			return nil, nil, fmt.Errorf("malformed YAML: %w", err)
		}
		raw, err = json.Marshal(value)
		if err != nil {
			return nil, nil, err
		}
	}

	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("malformed JSON: %w", err)
	}
	return value, raw, nil
}

// LoadRuleMap reads and schema-validates one rule map file.
func LoadRuleMap(path string) (map[string]RuleSpec, error) {
	value, raw, err := readDocument(path)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}

	if err := compiledRuleMapSchema.Validate(value); err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}

	var specs map[string]RuleSpec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	return specs, nil
}

// LoadRuleMaps reads several rule map files into one map. A rule name
// defined in more than one file is a load error.
func LoadRuleMaps(paths ...string) (map[string]RuleSpec, error) {
	merged := make(map[string]RuleSpec)
	for _, path := range paths {
		specs, err := LoadRuleMap(path)
		if err != nil {
			return nil, err
		}
		for name, spec := range specs {
			if _, exists := merged[name]; exists {
				return nil, &LoadError{
					Path:  path,
					Cause: fmt.Errorf("rule %q already defined in another rule map", name),
				}
			}
			merged[name] = spec
		}
	}
	return merged, nil
}

// LoadSequence reads and schema-validates one rule sequence file.
func LoadSequence(path string) ([]string, error) {
	value, raw, err := readDocument(path)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}

	if err := compiledSequenceSchema.Validate(value); err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}

	var sequence []string
	if err := json.Unmarshal(raw, &sequence); err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	return sequence, nil
}

// RuleSet is a validated, executable rule configuration: the rules of
// the sequence, in sequence order, bound to registry functions.
type RuleSet struct {
	rules []Rule
}

// Rules returns the rules in execution order.
func (rs *RuleSet) Rules() []Rule {
	return rs.rules
}

// Build binds rule specs and a sequence to the registry. Every problem
// is collected so a misconfigured deployment reports all its faults in
// one pass.
func Build(registry *Registry, specs map[string]RuleSpec, sequence []string) (*RuleSet, error) {
	var problems []string
	seen := make(map[string]bool, len(sequence))
	rules := make([]Rule, 0, len(sequence))

	for _, name := range sequence {
		if seen[name] {
			problems = append(problems, fmt.Sprintf("rule %q appears twice in the sequence", name))
			continue
		}
		seen[name] = true

		spec, ok := specs[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("sequence entry %q has no rule map definition", name))
			continue
		}

		rule, errs := buildRule(registry, name, spec)
		if len(errs) > 0 {
			problems = append(problems, errs...)
			continue
		}
		rules = append(rules, rule)
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Path: "rule configuration", Errors: problems}
	}
	return &RuleSet{rules: rules}, nil
}

// buildRule resolves one rule spec against the registry.
func buildRule(registry *Registry, name string, spec RuleSpec) (Rule, []string) {
	var problems []string

	action, ok := registry.Action(spec.FunctionName)
	if !ok {
		problems = append(problems, fmt.Sprintf("rule %q references unknown action %q", name, spec.FunctionName))
	}

	conditions := make([]ConditionCall, 0, len(spec.Conditions))
	for _, cond := range spec.Conditions {
		call, err := resolveCondition(registry, cond)
		if err != nil {
			problems = append(problems, fmt.Sprintf("rule %q: %v", name, err))
			continue
		}
		conditions = append(conditions, call)
	}

	if len(problems) > 0 {
		return Rule{}, problems
	}

	return Rule{
		Name:          name,
		Description:   spec.Description,
		Action:        spec.FunctionName,
		Options:       spec.Options,
		Conditions:    conditions,
		Timeout:       time.Duration(spec.Timeout) * time.Second,
		ExitOnFailure: spec.ExitOnFailure,
		action:        action,
	}, nil
}

// resolveCondition strips at most one negation marker and looks the
// name up in the registry. A second marker is rejected: double negation
// hides intent and is a configuration mistake.
func resolveCondition(registry *Registry, spec ConditionSpec) (ConditionCall, error) {
	name := spec.FunctionName
	negate := false

	if strings.HasPrefix(name, "!") {
		negate = true
		name = name[1:]
	}
	if strings.HasPrefix(name, "!") {
		return ConditionCall{}, fmt.Errorf("double negation in condition %q", spec.FunctionName)
	}

	fn, ok := registry.Condition(name)
	if !ok {
		return ConditionCall{}, fmt.Errorf("unknown condition %q", name)
	}

	options := spec.Options
	if options == nil {
		options = Options{}
	}

	return ConditionCall{
		Name:    name,
		Negate:  negate,
		Options: options,
		fn:      fn,
	}, nil
}

// Load is the one-call path used by the CLI: read rule maps and a
// sequence, then bind them to the registry.
func Load(registry *Registry, mapPaths []string, sequencePath string) (*RuleSet, error) {
	specs, err := LoadRuleMaps(mapPaths...)
	if err != nil {
		return nil, err
	}
	sequence, err := LoadSequence(sequencePath)
	if err != nil {
		return nil, err
	}
	return Build(registry, specs, sequence)
}
