// Package remote defines the collaborator interfaces the rule engine
// evaluates against: the object store, the metadata catalogs, the PID
// service, the replication target and the FDSN station service.
//
// Conditions and actions depend on these interfaces only; the concrete
// clients live in subpackages. All clients share a token-bucket rate
// limiter so a full archive sweep cannot flood the collaborators.
//
// A missing remote record is not an error: lookups return a boolean or
// ErrNotFound so conditions can treat absence as an ordinary verdict.
package remote
