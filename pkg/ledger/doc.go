// Package ledger implements the deletion ledger: a small, durable record
// of files whose multi-step deletion is in progress but not yet confirmed
// complete.
//
// The ledger is advisory, never authoritative. An entry may be missing
// while downstream artifacts still exist (first run), or present while all
// artifacts are already gone (crash after partial cleanup). The rule
// engine tolerates both by re-verifying artifact absence against the
// external systems on every run and only dropping an entry once every
// absence check holds.
//
// Two implementations are provided: a SQLite-backed store that survives
// process restarts, and an in-memory store for tests.
package ledger
