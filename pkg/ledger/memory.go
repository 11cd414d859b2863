package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryLedger is an in-memory Ledger for tests and dry runs.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]*Entry)}
}

func (m *MemoryLedger) Track(ctx context.Context, key string, artifacts ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	entry, ok := m.entries[key]
	if !ok {
		entry = &Entry{Key: key, Created: now}
		m.entries[key] = entry
	}
	entry.Artifacts = mergeArtifacts(entry.Artifacts, artifacts)
	entry.Updated = now
	return nil
}

func (m *MemoryLedger) Pending(ctx context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, len(entry.Artifacts))
	copy(out, entry.Artifacts)
	return out, nil
}

func (m *MemoryLedger) Resolve(ctx context.Context, key, artifact string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil
	}
	remaining := entry.Artifacts[:0]
	for _, a := range entry.Artifacts {
		if a != artifact {
			remaining = append(remaining, a)
		}
	}
	entry.Artifacts = remaining
	entry.Updated = time.Now().UTC()
	return nil
}

func (m *MemoryLedger) Drop(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *MemoryLedger) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryLedger) Entries(ctx context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		entry := *m.entries[key]
		entry.Artifacts = append([]string(nil), entry.Artifacts...)
		entries = append(entries, entry)
	}
	return entries, nil
}

func (m *MemoryLedger) Close() error {
	return nil
}
