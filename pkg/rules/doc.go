// Package rules implements the rule engine: declarative rule maps bound
// to registered condition and action functions, evaluated in a fixed
// sequence over archive files.
//
// A rule pairs one action with an ordered condition list. Conditions
// short-circuit as a logical AND; an empty list is vacuously true. A
// leading "!" on a condition name inverts its result, resolved to a
// structured negate flag at load time. Every referenced name is checked
// against the registries when the rule set is built, so an unknown rule
// is a start-up error, never a runtime surprise.
//
// Evaluation is fresh on every run. Conditions observe live state and
// nothing caches their verdicts; a failed action leaves the item for
// the next run to pick up.
package rules
