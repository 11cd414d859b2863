package rules_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"waveform-hq/archivist/pkg/ledger"
	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/rules"
	"waveform-hq/archivist/pkg/rules/actions"
	"waveform-hq/archivist/pkg/rules/conditions"
	"waveform-hq/archivist/pkg/sds"
)

// memoryStore is an in-memory object store for pipeline tests. Delete
// flips existence, mirroring the real store's idempotent semantics.
type memoryStore struct {
	objects map[string]string // filename -> checksum
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string]string)}
}

func (s *memoryStore) Exists(ctx context.Context, file *sds.File) (bool, error) {
	_, ok := s.objects[file.Filename()]
	return ok, nil
}

func (s *memoryStore) Checksum(ctx context.Context, file *sds.File) (string, error) {
	sum, ok := s.objects[file.Filename()]
	if !ok {
		return "", remote.ErrNotFound
	}
	return sum, nil
}

func (s *memoryStore) Put(ctx context.Context, file *sds.File) error {
	sum, err := file.Checksum()
	if err != nil {
		return err
	}
	s.objects[file.Filename()] = sum
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, file *sds.File) error {
	delete(s.objects, file.Filename())
	return nil
}

// memoryCatalog is an in-memory catalog for pipeline tests.
type memoryCatalog struct {
	docs map[string]string // filename -> checksum
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{docs: make(map[string]string)}
}

func (c *memoryCatalog) Get(ctx context.Context, file *sds.File) (*remote.Document, error) {
	sum, ok := c.docs[file.Filename()]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return &remote.Document{Filename: file.Filename(), Checksum: sum}, nil
}

func (c *memoryCatalog) Put(ctx context.Context, file *sds.File) error {
	sum, err := file.Checksum()
	if err != nil {
		return err
	}
	c.docs[file.Filename()] = sum
	return nil
}

func (c *memoryCatalog) Delete(ctx context.Context, file *sds.File) error {
	delete(c.docs, file.Filename())
	return nil
}

type pipeline struct {
	registry *rules.Registry
	store    *memoryStore
	catalog  *memoryCatalog
	book     *ledger.MemoryLedger
	now      time.Time
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	p := &pipeline{
		registry: rules.NewRegistry(),
		store:    newMemoryStore(),
		catalog:  newMemoryCatalog(),
		book:     ledger.NewMemoryLedger(),
		now:      time.Now(),
	}

	condDeps := conditions.Deps{
		ObjectStore: p.store,
		WFCatalog:   p.catalog,
		DublinCore:  p.catalog,
		PSD:         p.catalog,
		Ledger:      p.book,
		Now:         func() time.Time { return p.now },
	}
	if err := conditions.Register(p.registry, condDeps); err != nil {
		t.Fatalf("register conditions: %v", err)
	}

	actDeps := actions.Deps{
		ObjectStore: p.store,
		WFCatalog:   p.catalog,
		DublinCore:  p.catalog,
		PSD:         p.catalog,
		Ledger:      p.book,
	}
	if err := actions.Register(p.registry, actDeps); err != nil {
		t.Fatalf("register actions: %v", err)
	}
	return p
}

func (p *pipeline) run(t *testing.T, specs map[string]rules.RuleSpec, sequence []string, items ...*sds.File) *rules.RunReport {
	t.Helper()
	ruleset, err := rules.Build(p.registry, specs, sequence)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	engine := rules.NewEngine(ruleset, rules.EngineConfig{})
	report, err := engine.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return report
}

func writeArchiveFile(t *testing.T, root, name string) *sds.File {
	t.Helper()
	file, err := sds.ParseFilename(root, name)
	if err != nil {
		t.Fatalf("ParseFilename(%q) error = %v", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(file.Path()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(file.Path(), []byte("miniseed records"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return file
}

func backdate(t *testing.T, file *sds.File, age time.Duration, now time.Time) {
	t.Helper()
	when := now.Add(-age)
	if err := os.Chtimes(file.Path(), when, when); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

// A raw file modified two days ago must not be quarantined by a rule
// that requires modification within the last day.
func TestScenario_QuarantineOldSkipsRecentlyModified(t *testing.T) {
	p := newPipeline(t)
	root := t.TempDir()

	file := writeArchiveFile(t, root, "NL.HGN.02.BHZ.D.2019.022")
	backdate(t, file, 48*time.Hour, p.now)

	specs := map[string]rules.RuleSpec{
		"QUARANTINE_OLD": {
			FunctionName: "quarantine",
			Options:      rules.Options{"quarantinePath": t.TempDir()},
			Conditions: []rules.ConditionSpec{
				{FunctionName: "qualityIn", Options: rules.Options{"qualities": []any{"D"}}},
				{FunctionName: "modificationTimeNewerThan", Options: rules.Options{"days": 1}},
				{FunctionName: "dataTimeOlderThan", Options: rules.Options{"days": 6}},
			},
		},
	}

	report := p.run(t, specs, []string{"QUARANTINE_OLD"}, file)
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
	if !file.Exists() {
		t.Error("file was quarantined despite failing the modification-time clause")
	}
}

// The purge-raw rule fires only when the derivative pipeline is
// confirmed and the neighbor timing gates hold.
func TestScenario_PurgeRawAfterConfirmedPipeline(t *testing.T) {
	p := newPipeline(t)
	root := t.TempDir()
	ctx := context.Background()

	raw := writeArchiveFile(t, root, "NL.HGN.02.BHZ.D.2019.022")
	next := writeArchiveFile(t, root, "NL.HGN.02.BHZ.D.2019.023")
	pruned := writeArchiveFile(t, root, "NL.HGN.02.BHZ.Q.2019.022")
	backdate(t, raw, 10*24*time.Hour, p.now)
	backdate(t, next, 8*24*time.Hour, p.now)

	// Derivative confirmed uploaded and cataloged.
	if err := p.store.Put(ctx, pruned); err != nil {
		t.Fatalf("store.Put() error = %v", err)
	}
	if err := p.catalog.Put(ctx, pruned); err != nil {
		t.Fatalf("catalog.Put() error = %v", err)
	}

	specs := map[string]rules.RuleSpec{
		"PURGE_RAW": {
			FunctionName: "purge",
			Options:      rules.Options{},
			Conditions: []rules.ConditionSpec{
				{FunctionName: "qualityIn", Options: rules.Options{"qualities": []any{"D"}}},
				{FunctionName: "prunedVersionExists", Options: rules.Options{}},
				{FunctionName: "modificationTimeOlderThan", Options: rules.Options{"days": 7}},
				{FunctionName: "modificationTimeOlderThan", Options: rules.Options{"days": 6, "target": "next"}},
			},
		},
	}

	report := p.run(t, specs, []string{"PURGE_RAW"}, raw)
	if report.Succeeded != 1 {
		t.Fatalf("Succeeded = %d, want 1", report.Succeeded)
	}
	if raw.Exists() {
		t.Error("raw file still present after purge")
	}
	if !pruned.Exists() {
		t.Error("derivative must survive the purge")
	}

	// The raw file is not a ledger-tracked artifact.
	keys, _ := p.book.Keys(ctx)
	if len(keys) != 0 {
		t.Errorf("ledger keys = %v, want empty", keys)
	}
}

// No purge while any downstream-artifact-existence condition holds.
func TestScenario_DeletionSafety(t *testing.T) {
	p := newPipeline(t)
	root := t.TempDir()
	ctx := context.Background()

	file := writeArchiveFile(t, root, "NL.HGN.02.BHZ.Q.2019.022")
	if err := p.store.Put(ctx, file); err != nil {
		t.Fatalf("store.Put() error = %v", err)
	}

	specs := map[string]rules.RuleSpec{
		"FINALIZE": {
			FunctionName: "finalizeDeletion",
			Options:      rules.Options{},
			Conditions: []rules.ConditionSpec{
				{FunctionName: "!objectStoreExists", Options: rules.Options{}},
				{FunctionName: "!wfCatalogExists", Options: rules.Options{}},
			},
		},
	}

	report := p.run(t, specs, []string{"FINALIZE"}, file)
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
	if !file.Exists() {
		t.Error("file deleted while the object-store copy still exists")
	}
}

// An interrupted deletion resumes: the ledger remembers the pending
// artifacts, the re-run re-checks the live state, removes what is still
// present, and only then finalizes.
func TestScenario_InterruptedDeletionResumes(t *testing.T) {
	p := newPipeline(t)
	root := t.TempDir()
	ctx := context.Background()

	file := writeArchiveFile(t, root, "NL.HGN.02.BHZ.Q.2019.022")

	// Prior interrupted run: catalogs already cleared, object still
	// stored, ledger entry live.
	if err := p.store.Put(ctx, file); err != nil {
		t.Fatalf("store.Put() error = %v", err)
	}
	if err := p.book.Track(ctx, file.Filename(),
		ledger.ArtifactObjectStore, ledger.ArtifactWFCatalog); err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	specs := map[string]rules.RuleSpec{
		"REMOVE_OBJECT": {
			FunctionName: "removeFromObjectStore",
			Options:      rules.Options{},
			Conditions: []rules.ConditionSpec{
				{FunctionName: "objectStoreExists", Options: rules.Options{}},
			},
		},
		"FINALIZE": {
			FunctionName: "finalizeDeletion",
			Options:      rules.Options{},
			Conditions: []rules.ConditionSpec{
				{FunctionName: "!objectStoreExists", Options: rules.Options{}},
				{FunctionName: "!wfCatalogExists", Options: rules.Options{}},
			},
		},
	}
	sequence := []string{"REMOVE_OBJECT", "FINALIZE"}

	report := p.run(t, specs, sequence, file)
	if report.Succeeded != 2 {
		t.Fatalf("Succeeded = %d, want 2 (remove then finalize)", report.Succeeded)
	}
	if file.Exists() {
		t.Error("file still present after finalized deletion")
	}
	keys, _ := p.book.Keys(ctx)
	if len(keys) != 0 {
		t.Errorf("ledger keys = %v, want empty", keys)
	}
	if exists, _ := p.store.Exists(ctx, file); exists {
		t.Error("object-store copy still present")
	}
}

// Re-running ingestion on an already-uploaded file succeeds without a
// second upload.
func TestScenario_IngestIdempotent(t *testing.T) {
	p := newPipeline(t)
	root := t.TempDir()

	file := writeArchiveFile(t, root, "NL.HGN.02.BHZ.Q.2019.022")

	specs := map[string]rules.RuleSpec{
		"INGESTION": {
			FunctionName: "ingest",
			Options:      rules.Options{},
			Conditions: []rules.ConditionSpec{
				{FunctionName: "fileExists", Options: rules.Options{}},
				{FunctionName: "!objectStoreExists", Options: rules.Options{"verifyChecksum": true}},
			},
		},
	}

	report := p.run(t, specs, []string{"INGESTION"}, file)
	if report.Succeeded != 1 {
		t.Fatalf("first run Succeeded = %d, want 1", report.Succeeded)
	}

	// Second run: the store already holds a matching object, so the
	// negated existence condition skips the rule.
	report = p.run(t, specs, []string{"INGESTION"}, file)
	if report.Skipped != 1 {
		t.Errorf("second run Skipped = %d, want 1", report.Skipped)
	}
}

// A prune rule gated on the previous neighbor's recency fires only
// within the window.
func TestScenario_NeighborGatedRule(t *testing.T) {
	p := newPipeline(t)
	root := t.TempDir()

	file := writeArchiveFile(t, root, "NL.HGN.02.BHZ.D.2019.022")
	prev := writeArchiveFile(t, root, "NL.HGN.02.BHZ.D.2019.021")
	backdate(t, file, 2*24*time.Hour, p.now)
	backdate(t, prev, 10*24*time.Hour, p.now)

	specs := map[string]rules.RuleSpec{
		"LOG_SETTLED": {
			FunctionName: "logFilename",
			Options:      rules.Options{},
			Conditions: []rules.ConditionSpec{
				{FunctionName: "modificationTimeNewerThan", Options: rules.Options{"days": 7, "target": "previous"}},
			},
		},
	}

	report := p.run(t, specs, []string{"LOG_SETTLED"}, file)
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (neighbor older than window)", report.Skipped)
	}

	backdate(t, prev, 3*24*time.Hour, p.now)
	report = p.run(t, specs, []string{"LOG_SETTLED"}, file)
	if report.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1 (neighbor within window)", report.Succeeded)
	}
}
