package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig contains configuration for the SQLite-backed ledger.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for database locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteLedger implements Ledger using SQLite. It uses a write-ahead log
// for concurrent readers and serializes writes per key so parallel workers
// touching different files never contend on each other's entries.
type SQLiteLedger struct {
	db     *sql.DB
	logger *slog.Logger

	// keyLocks serializes writes per ledger key.
	keyLocks sync.Map // string -> *sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewSQLiteLedger opens (or creates) the ledger database at cfg.Path and
// initializes the schema.
func NewSQLiteLedger(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteLedger, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ledger.sqlite")

	// _pragma is the modernc driver's DSN form; the mattn-style
	// _journal_mode keys are silently ignored by it.
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &Error{Op: "open", Cause: err}
	}

	l := &SQLiteLedger{db: db, logger: logger}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("deletion ledger opened", "path", cfg.Path)
	return l, nil
}

// initialize creates the schema and verifies its version.
func (l *SQLiteLedger) initialize() error {
	if _, err := l.db.Exec(schema); err != nil {
		return &Error{Op: "create_schema", Cause: err}
	}
	if _, err := l.db.Exec(insertSchemaVersion, schemaVersion); err != nil {
		return &Error{Op: "insert_schema_version", Cause: err}
	}

	var version int
	if err := l.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return &Error{Op: "get_schema_version", Cause: err}
	}
	if version != schemaVersion {
		return &Error{Op: "schema_version", Cause: fmt.Errorf("expected version %d, got %d", schemaVersion, version)}
	}
	return nil
}

// lockKey returns the write mutex for one ledger key.
func (l *SQLiteLedger) lockKey(key string) *sync.Mutex {
	mu, _ := l.keyLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Track merges artifacts into the entry for key.
func (l *SQLiteLedger) Track(ctx context.Context, key string, artifacts ...string) error {
	mu := l.lockKey(key)
	mu.Lock()
	defer mu.Unlock()

	current, err := l.pendingLocked(ctx, key)
	if err != nil {
		return err
	}

	merged := mergeArtifacts(current, artifacts)
	if current != nil && len(merged) == len(current) {
		return nil
	}

	payload, err := json.Marshal(merged)
	if err != nil {
		return &Error{Op: "track", Key: key, Cause: err}
	}

	now := time.Now().UTC()
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO deletion (file, artifacts, created, updated) VALUES (?, ?, ?, ?)
		ON CONFLICT(file) DO UPDATE SET artifacts = excluded.artifacts, updated = excluded.updated`,
		key, string(payload), now, now)
	if err != nil {
		return &Error{Op: "track", Key: key, Cause: err}
	}

	l.logger.Debug("tracking deletion", "file", key, "pending", merged)
	return nil
}

// Pending returns the artifacts still pending for key.
func (l *SQLiteLedger) Pending(ctx context.Context, key string) ([]string, error) {
	artifacts, err := l.pendingLocked(ctx, key)
	if err != nil {
		return nil, err
	}
	if artifacts == nil {
		return []string{}, nil
	}
	return artifacts, nil
}

// pendingLocked reads the artifact set for key. It returns nil (and no
// error) when the entry does not exist, so Track can distinguish a missing
// entry from an empty one.
func (l *SQLiteLedger) pendingLocked(ctx context.Context, key string) ([]string, error) {
	var payload string
	err := l.db.QueryRowContext(ctx, `SELECT artifacts FROM deletion WHERE file = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "pending", Key: key, Cause: err}
	}

	var artifacts []string
	if err := json.Unmarshal([]byte(payload), &artifacts); err != nil {
		return nil, &Error{Op: "pending", Key: key, Cause: err}
	}
	if artifacts == nil {
		artifacts = []string{}
	}
	return artifacts, nil
}

// Resolve removes one artifact from the entry for key.
func (l *SQLiteLedger) Resolve(ctx context.Context, key, artifact string) error {
	mu := l.lockKey(key)
	mu.Lock()
	defer mu.Unlock()

	current, err := l.pendingLocked(ctx, key)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}

	remaining := make([]string, 0, len(current))
	for _, a := range current {
		if a != artifact {
			remaining = append(remaining, a)
		}
	}
	if len(remaining) == len(current) {
		return nil
	}

	payload, err := json.Marshal(remaining)
	if err != nil {
		return &Error{Op: "resolve", Key: key, Cause: err}
	}

	_, err = l.db.ExecContext(ctx,
		`UPDATE deletion SET artifacts = ?, updated = ? WHERE file = ?`,
		string(payload), time.Now().UTC(), key)
	if err != nil {
		return &Error{Op: "resolve", Key: key, Cause: err}
	}

	l.logger.Debug("artifact absence confirmed", "file", key, "artifact", artifact, "remaining", remaining)
	return nil
}

// Drop removes the whole entry for key.
func (l *SQLiteLedger) Drop(ctx context.Context, key string) error {
	mu := l.lockKey(key)
	mu.Lock()
	defer mu.Unlock()

	if _, err := l.db.ExecContext(ctx, `DELETE FROM deletion WHERE file = ?`, key); err != nil {
		return &Error{Op: "drop", Key: key, Cause: err}
	}

	l.logger.Debug("ledger entry dropped", "file", key)
	return nil
}

// Keys returns every key with a live entry, sorted for deterministic runs.
func (l *SQLiteLedger) Keys(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT file FROM deletion ORDER BY file`)
	if err != nil {
		return nil, &Error{Op: "keys", Cause: err}
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, &Error{Op: "keys", Cause: err}
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Entries returns every live entry.
func (l *SQLiteLedger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT file, artifacts, created, updated FROM deletion ORDER BY file`)
	if err != nil {
		return nil, &Error{Op: "entries", Cause: err}
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			payload string
		)
		if err := rows.Scan(&entry.Key, &payload, &entry.Created, &entry.Updated); err != nil {
			return nil, &Error{Op: "entries", Cause: err}
		}
		if err := json.Unmarshal([]byte(payload), &entry.Artifacts); err != nil {
			return nil, &Error{Op: "entries", Key: entry.Key, Cause: err}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.db.Close()
	})
	return l.closeErr
}

// mergeArtifacts unions two artifact sets, keeping a stable sorted order.
func mergeArtifacts(current, added []string) []string {
	seen := make(map[string]bool, len(current)+len(added))
	merged := make([]string, 0, len(current)+len(added))
	for _, a := range current {
		if !seen[a] {
			seen[a] = true
			merged = append(merged, a)
		}
	}
	for _, a := range added {
		if !seen[a] {
			seen[a] = true
			merged = append(merged, a)
		}
	}
	sort.Strings(merged)
	return merged
}
