package ledger

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

// ledgerImpls runs a subtest against each implementation.
func ledgerImpls(t *testing.T, fn func(t *testing.T, l Ledger)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		l := NewMemoryLedger()
		defer l.Close()
		fn(t, l)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deletion.db")
		l, err := NewSQLiteLedger(SQLiteConfig{Path: path}, nil)
		if err != nil {
			t.Fatalf("NewSQLiteLedger() error = %v", err)
		}
		defer l.Close()
		fn(t, l)
	})
}

func TestLedger_TrackAndPending(t *testing.T) {
	ledgerImpls(t, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		key := "NL.HGN.02.BHZ.D.2019.022"

		// Missing entry reads as empty, not an error.
		pending, err := l.Pending(ctx, key)
		if err != nil {
			t.Fatalf("Pending() error = %v", err)
		}
		if len(pending) != 0 {
			t.Fatalf("Pending() on missing key = %v, want empty", pending)
		}

		if err := l.Track(ctx, key, "objectstore", "wfcatalog"); err != nil {
			t.Fatalf("Track() error = %v", err)
		}
		// Re-tracking merges, no duplicates.
		if err := l.Track(ctx, key, "wfcatalog", "pid"); err != nil {
			t.Fatalf("Track() second call error = %v", err)
		}

		pending, err = l.Pending(ctx, key)
		if err != nil {
			t.Fatalf("Pending() error = %v", err)
		}
		want := []string{"objectstore", "pid", "wfcatalog"}
		if !reflect.DeepEqual(pending, want) {
			t.Errorf("Pending() = %v, want %v", pending, want)
		}
	})
}

func TestLedger_ResolveAndDrop(t *testing.T) {
	ledgerImpls(t, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		key := "NL.HGN.02.BHZ.D.2019.022"

		if err := l.Track(ctx, key, "objectstore", "wfcatalog"); err != nil {
			t.Fatalf("Track() error = %v", err)
		}
		if err := l.Resolve(ctx, key, "objectstore"); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		// Resolving an unknown artifact or key is a no-op.
		if err := l.Resolve(ctx, key, "never-tracked"); err != nil {
			t.Fatalf("Resolve() unknown artifact error = %v", err)
		}
		if err := l.Resolve(ctx, "XX.YYY.00.ZZZ.D.2000.001", "objectstore"); err != nil {
			t.Fatalf("Resolve() unknown key error = %v", err)
		}

		pending, err := l.Pending(ctx, key)
		if err != nil {
			t.Fatalf("Pending() error = %v", err)
		}
		if !reflect.DeepEqual(pending, []string{"wfcatalog"}) {
			t.Errorf("Pending() = %v, want [wfcatalog]", pending)
		}

		if err := l.Drop(ctx, key); err != nil {
			t.Fatalf("Drop() error = %v", err)
		}
		if err := l.Drop(ctx, key); err != nil {
			t.Fatalf("Drop() repeated error = %v", err)
		}

		keys, err := l.Keys(ctx)
		if err != nil {
			t.Fatalf("Keys() error = %v", err)
		}
		if len(keys) != 0 {
			t.Errorf("Keys() after drop = %v, want empty", keys)
		}
	})
}

func TestLedger_Entries(t *testing.T) {
	ledgerImpls(t, func(t *testing.T, l Ledger) {
		ctx := context.Background()

		if err := l.Track(ctx, "NL.HGN.02.BHZ.D.2019.021", "replica"); err != nil {
			t.Fatalf("Track() error = %v", err)
		}
		if err := l.Track(ctx, "GE.APE.00.LHZ.D.2019.022", "objectstore", "pid"); err != nil {
			t.Fatalf("Track() error = %v", err)
		}

		entries, err := l.Entries(ctx)
		if err != nil {
			t.Fatalf("Entries() error = %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("Entries() returned %d, want 2", len(entries))
		}
		// Sorted by key.
		if entries[0].Key != "GE.APE.00.LHZ.D.2019.022" {
			t.Errorf("first entry key = %q", entries[0].Key)
		}
		if !reflect.DeepEqual(entries[0].Artifacts, []string{"objectstore", "pid"}) {
			t.Errorf("first entry artifacts = %v", entries[0].Artifacts)
		}
		if entries[0].Created.IsZero() || entries[0].Updated.IsZero() {
			t.Error("entry timestamps should be set")
		}
	})
}

func TestSQLiteLedger_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "deletion.db")

	l, err := NewSQLiteLedger(SQLiteConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("NewSQLiteLedger() error = %v", err)
	}
	if err := l.Track(ctx, "NL.HGN.02.BHZ.D.2019.022", "objectstore"); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteLedger(SQLiteConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	pending, err := reopened.Pending(ctx, "NL.HGN.02.BHZ.D.2019.022")
	if err != nil {
		t.Fatalf("Pending() after reopen error = %v", err)
	}
	if !reflect.DeepEqual(pending, []string{"objectstore"}) {
		t.Errorf("Pending() after reopen = %v, want [objectstore]", pending)
	}
}

func TestSQLiteLedger_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteLedger(SQLiteConfig{}, nil); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSQLiteLedger_ConnectionPragmas(t *testing.T) {
	l, err := NewSQLiteLedger(SQLiteConfig{Path: filepath.Join(t.TempDir(), "deletion.db")}, nil)
	if err != nil {
		t.Fatalf("NewSQLiteLedger() error = %v", err)
	}
	defer l.Close()

	var journalMode string
	if err := l.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want wal", journalMode)
	}

	var busyTimeout int
	if err := l.db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", busyTimeout)
	}
}
