package rules

import (
	"fmt"
	"time"
)

// Options carries the declarative option map of a rule or condition.
// Values come from JSON or YAML, so numbers may arrive as int or
// float64; the typed getters normalize them.
type Options map[string]any

// Bool returns the named option, or fallback when absent.
func (o Options) Bool(name string, fallback bool) bool {
	value, ok := o[name]
	if !ok {
		return fallback
	}
	b, ok := value.(bool)
	if !ok {
		return fallback
	}
	return b
}

// Int returns the named option, or fallback when absent.
func (o Options) Int(name string, fallback int) int {
	value, ok := o[name]
	if !ok {
		return fallback
	}
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// Float returns the named option, or fallback when absent. Day
// thresholds may be fractional.
func (o Options) Float(name string, fallback float64) float64 {
	value, ok := o[name]
	if !ok {
		return fallback
	}
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return fallback
	}
}

// String returns the named option, or fallback when absent.
func (o Options) String(name, fallback string) string {
	value, ok := o[name]
	if !ok {
		return fallback
	}
	s, ok := value.(string)
	if !ok {
		return fallback
	}
	return s
}

// Strings returns the named option as a string slice. Absent or
// malformed values yield nil.
func (o Options) Strings(name string) []string {
	value, ok := o[name]
	if !ok {
		return nil
	}
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

// Days returns the named option interpreted as a day count converted to
// a duration. Negative values produce negative durations.
func (o Options) Days(name string, fallback float64) time.Duration {
	days := o.Float(name, fallback)
	return time.Duration(days * 24 * float64(time.Hour))
}

// Require returns an error naming the option when it is absent.
func (o Options) Require(names ...string) error {
	for _, name := range names {
		if _, ok := o[name]; !ok {
			return fmt.Errorf("missing required option %q", name)
		}
	}
	return nil
}
