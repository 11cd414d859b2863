package ledger

import (
	"context"
	"fmt"
	"time"
)

// Artifact names shared between the deletion actions that track them
// and the conditions that verify their absence.
const (
	ArtifactObjectStore = "objectstore"
	ArtifactWFCatalog   = "wfcatalog"
	ArtifactDublinCore  = "dublincore"
	ArtifactPSD         = "psd"
	ArtifactPID         = "pid"
	ArtifactReplica     = "replica"
)

// Ledger records files with pending, not-yet-confirmed deletion of
// derivative artifacts. Keys are SDS filenames; artifacts are the names of
// the downstream records still awaiting confirmation of absence.
//
// Writes for the same key are serialized by the implementation; reads may
// run concurrently with anything.
type Ledger interface {
	// Track merges the given artifacts into the entry for key, creating
	// the entry when absent. Tracking an already-tracked artifact is a
	// no-op, so the call is safe to repeat across runs.
	Track(ctx context.Context, key string, artifacts ...string) error

	// Pending returns the artifacts still awaiting confirmation of
	// absence for key. A missing entry yields an empty slice, not an
	// error: absence of ledger state is normal on a first run.
	Pending(ctx context.Context, key string) ([]string, error)

	// Resolve removes one artifact from the entry for key. Resolving an
	// unknown key or artifact is a no-op.
	Resolve(ctx context.Context, key, artifact string) error

	// Drop removes the whole entry for key. Dropping an unknown key is a
	// no-op.
	Drop(ctx context.Context, key string) error

	// Keys returns every key with a live entry.
	Keys(ctx context.Context) ([]string, error)

	// Entries returns every live entry, for inspection tooling.
	Entries(ctx context.Context) ([]Entry, error)

	// Close releases the underlying store.
	Close() error
}

// Entry is one ledger record.
type Entry struct {
	// Key is the SDS filename the deletion applies to.
	Key string

	// Artifacts are the downstream records still pending
	// confirmation-of-absence.
	Artifacts []string

	// Created is when the entry was first tracked.
	Created time.Time

	// Updated is when the entry last changed.
	Updated time.Time
}

// Error wraps a ledger storage failure with the operation that caused it.
type Error struct {
	Op    string
	Key   string
	Cause error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("ledger %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("ledger %s %q: %v", e.Op, e.Key, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
