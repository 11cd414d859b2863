// Package actions implements the action catalog the rule maps draw
// from: pruning, ingestion, metadata publication, replication, and the
// deletion saga. Every action is idempotent so a rerun after a crash or
// failure converges instead of duplicating side effects.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"waveform-hq/archivist/pkg/ledger"
	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/repack"
	"waveform-hq/archivist/pkg/rules"
	"waveform-hq/archivist/pkg/sds"
)

// Deps carries the collaborators the actions drive.
type Deps struct {
	ObjectStore remote.ObjectStore
	WFCatalog   remote.Catalog
	DublinCore  remote.Catalog
	PSD         remote.Catalog
	PID         remote.PIDService
	Replicator  remote.Replicator
	Ledger      ledger.Ledger
	Repack      *repack.Tool

	// RecordSize is the default output record length for prune.
	RecordSize int

	// QuarantinePath is the default quarantine root.
	QuarantinePath string

	// DryRun makes destructive actions log instead of acting.
	DryRun bool

	Logger *slog.Logger
}

// Register adds every action to the registry.
func Register(registry *rules.Registry, deps Deps) error {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	catalog := map[string]rules.Action{
		"prune":                 deps.prune,
		"ingest":                deps.ingest,
		"waveformMetadata":      deps.publish("waveformMetadata", func() remote.Catalog { return deps.WFCatalog }),
		"dcMetadata":            deps.publish("dcMetadata", func() remote.Catalog { return deps.DublinCore }),
		"psdMetadata":           deps.publish("psdMetadata", func() remote.Catalog { return deps.PSD }),
		"assignPID":             deps.assignPID,
		"replicate":             deps.replicate,
		"quarantine":            deps.quarantine,
		"purge":                 deps.purge,
		"removeFromObjectStore": deps.removeFromObjectStore,
		"removeWaveformMetadata": deps.removeArtifact(ledger.ArtifactWFCatalog, func(ctx context.Context, f *sds.File) error {
			return deps.WFCatalog.Delete(ctx, f)
		}),
		"removeDCMetadata": deps.removeArtifact(ledger.ArtifactDublinCore, func(ctx context.Context, f *sds.File) error {
			return deps.DublinCore.Delete(ctx, f)
		}),
		"removePSDMetadata": deps.removeArtifact(ledger.ArtifactPSD, func(ctx context.Context, f *sds.File) error {
			return deps.PSD.Delete(ctx, f)
		}),
		"removePID": deps.removeArtifact(ledger.ArtifactPID, func(ctx context.Context, f *sds.File) error {
			return deps.PID.Delete(ctx, f)
		}),
		"removeReplica": deps.removeArtifact(ledger.ArtifactReplica, func(ctx context.Context, f *sds.File) error {
			return deps.Replicator.Delete(ctx, f)
		}),
		"finalizeDeletion": deps.finalizeDeletion,
		"logFilename":      deps.logFilename,
	}

	for name, fn := range catalog {
		if err := registry.RegisterAction(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// prune writes the quality-controlled derivative of a raw file by
// running the repack tool. The derivative lands next to the raw file
// under its own quality directory; the write goes through a temp file
// so a crashed run never leaves a half-written derivative.
func (d *Deps) prune(ctx context.Context, file *sds.File, opts rules.Options) error {
	derivative := file.PrunedCounterpart()
	if derivative == file {
		return fmt.Errorf("%s is already a pruned file", file.Filename())
	}
	if !file.Quality.CanTransition(derivative.Quality) {
		return fmt.Errorf("quality %s cannot be pruned", file.Quality)
	}

	recordSize := opts.Int("repackRecordSize", d.RecordSize)
	toolOpts := repack.Options{
		CutBoundaries: opts.Bool("cutBoundaries", true),
		RemoveOverlap: opts.Bool("removeOverlap", true),
		Repack:        opts.Bool("repack", true),
		RecordSize:    recordSize,
	}

	dest := derivative.Path()
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	tmp := dest + ".tmp"
	defer os.Remove(tmp)

	if err := d.Repack.Prune(ctx, file, tmp, toolOpts); err != nil {
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		return err
	}

	d.Logger.Info("pruned derivative written",
		"file", file.Filename(), "derivative", derivative.Filename())
	return nil
}

// ingest uploads the file to the object store. The store client skips
// the upload when the stored object already matches.
func (d *Deps) ingest(ctx context.Context, file *sds.File, opts rules.Options) error {
	return d.ObjectStore.Put(ctx, file)
}

// publish builds the catalog upsert actions. Upserts are keyed by
// filename and carry the file checksum, so republishing is safe.
func (d *Deps) publish(name string, catalog func() remote.Catalog) rules.Action {
	return func(ctx context.Context, file *sds.File, opts rules.Options) error {
		c := catalog()
		if c == nil {
			return fmt.Errorf("%s: no catalog client configured", name)
		}
		return c.Put(ctx, file)
	}
}

// assignPID mints a persistent identifier. The client no-ops when the
// file already holds one.
func (d *Deps) assignPID(ctx context.Context, file *sds.File, opts rules.Options) error {
	return d.PID.Assign(ctx, file)
}

// replicate copies the file to the federated node.
func (d *Deps) replicate(ctx context.Context, file *sds.File, opts rules.Options) error {
	return d.Replicator.Replicate(ctx, file)
}

// quarantine moves the file under the quarantine root, mirroring the
// archive layout so the original location stays recoverable.
func (d *Deps) quarantine(ctx context.Context, file *sds.File, opts rules.Options) error {
	root := opts.String("quarantinePath", d.QuarantinePath)
	if root == "" {
		return fmt.Errorf("quarantine requires a quarantinePath")
	}

	dest := filepath.Join(root, file.SubDirectory(), file.Filename())

	if opts.Bool("dryRun", d.DryRun) {
		d.Logger.Info("dry run: would quarantine file",
			"file", file.Filename(), "destination", dest)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.Rename(file.Path(), dest); err != nil {
		return err
	}

	d.Logger.Warn("file quarantined", "file", file.Filename(), "destination", dest)
	return nil
}

// purge removes the raw file from disk. The rule map gates it behind
// the derivative-pipeline conditions; removing an already-absent file
// is a no-op success.
func (d *Deps) purge(ctx context.Context, file *sds.File, opts rules.Options) error {
	if d.DryRun {
		d.Logger.Info("dry run: would purge file", "file", file.Filename())
		return nil
	}

	err := os.Remove(file.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	d.Logger.Info("file purged", "file", file.Filename())
	return nil
}

// removeFromObjectStore deletes the stored object. The ledger entry is
// written before the remote call so an interrupted deletion is resumed
// on the next run.
func (d *Deps) removeFromObjectStore(ctx context.Context, file *sds.File, opts rules.Options) error {
	if err := d.Ledger.Track(ctx, file.Filename(), ledger.ArtifactObjectStore); err != nil {
		return err
	}
	if d.DryRun {
		d.Logger.Info("dry run: would remove object", "file", file.Filename())
		return nil
	}
	return d.ObjectStore.Delete(ctx, file)
}

// removeArtifact builds the deletion-saga actions for the catalog, PID
// and replica artifacts: track first, then delete remotely. Absence is
// confirmed by the live conditions on the next run, never assumed from
// a successful delete call.
func (d *Deps) removeArtifact(artifact string, del func(context.Context, *sds.File) error) rules.Action {
	return func(ctx context.Context, file *sds.File, opts rules.Options) error {
		if err := d.Ledger.Track(ctx, file.Filename(), artifact); err != nil {
			return err
		}
		if d.DryRun {
			d.Logger.Info("dry run: would remove artifact",
				"file", file.Filename(), "artifact", artifact)
			return nil
		}
		return del(ctx, file)
	}
}

// finalizeDeletion ends the saga: the rule map gates it behind every
// absence condition, so here the local file (if still present) is
// removed and the ledger entry dropped.
func (d *Deps) finalizeDeletion(ctx context.Context, file *sds.File, opts rules.Options) error {
	if d.DryRun {
		d.Logger.Info("dry run: would finalize deletion", "file", file.Filename())
		return nil
	}

	if err := os.Remove(file.Path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := d.Ledger.Drop(ctx, file.Filename()); err != nil {
		return err
	}

	d.Logger.Info("deletion finalized", "file", file.Filename())
	return nil
}

// logFilename logs the item. Useful when dry-running a new sequence.
func (d *Deps) logFilename(ctx context.Context, file *sds.File, opts rules.Options) error {
	d.Logger.Info("processing file", "file", file.Filename(), "path", file.Path())
	return nil
}
