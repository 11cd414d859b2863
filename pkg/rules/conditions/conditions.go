// Package conditions implements the predicate catalog the rule maps
// draw from. Predicates are pure observations: local ones inspect the
// file on disk, external ones query the live collaborator state, and
// none of them cache verdicts between runs.
package conditions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"waveform-hq/archivist/pkg/ledger"
	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/rules"
	"waveform-hq/archivist/pkg/sds"
)

// Deps carries the collaborators the external predicates query.
type Deps struct {
	ObjectStore remote.ObjectStore
	WFCatalog   remote.Catalog
	DublinCore  remote.Catalog
	PSD         remote.Catalog
	PID         remote.PIDService
	Replicator  remote.Replicator
	Ledger      ledger.Ledger
	Logger      *slog.Logger

	// Now supplies the clock; tests override it. Nil means time.Now.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Register adds every predicate to the registry.
func Register(registry *rules.Registry, deps Deps) error {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	predicates := map[string]rules.Condition{
		"qualityIn":                 qualityIn,
		"fileExists":                fileExists,
		"prunedVersionExists":       prunedVersionExists,
		"modificationTimeOlderThan": deps.modificationTime(olderThan),
		"modificationTimeNewerThan": deps.modificationTime(newerThan),
		"dataTimeOlderThan":         deps.dataTimeOlderThan,
		"objectStoreExists":         deps.objectStoreExists,
		"wfCatalogExists":           deps.catalogExists("wfCatalogExists", func() remote.Catalog { return deps.WFCatalog }),
		"dcMetadataExists":          deps.catalogExists("dcMetadataExists", func() remote.Catalog { return deps.DublinCore }),
		"psdMetadataExists":         deps.catalogExists("psdMetadataExists", func() remote.Catalog { return deps.PSD }),
		"pidAssigned":               deps.pidAssigned,
		"replicaExists":             deps.replicaExists,
		"ledgerPending":             deps.ledgerPending,
	}

	for name, fn := range predicates {
		if err := registry.RegisterCondition(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// qualityIn passes when the file's quality class is one of the listed
// codes.
func qualityIn(ctx context.Context, file *sds.File, opts rules.Options) (bool, error) {
	qualities := opts.Strings("qualities")
	if qualities == nil {
		return false, fmt.Errorf("qualityIn requires a qualities list")
	}
	for _, q := range qualities {
		if string(file.Quality) == q {
			return true, nil
		}
	}
	return false, nil
}

// fileExists passes when the file is present on disk.
func fileExists(ctx context.Context, file *sds.File, opts rules.Options) (bool, error) {
	return file.Exists(), nil
}

// prunedVersionExists passes when the pruned derivative is on disk.
func prunedVersionExists(ctx context.Context, file *sds.File, opts rules.Options) (bool, error) {
	return file.PrunedCounterpart().Exists(), nil
}

type comparison int

const (
	olderThan comparison = iota
	newerThan
)

// modificationTime builds the mtime predicates. The threshold anchors
// at now minus the day count; a negative count puts the anchor in the
// future, which is how future-dated files are caught. The target option
// redirects the check at a neighbor.
func (d *Deps) modificationTime(cmp comparison) rules.Condition {
	return func(ctx context.Context, file *sds.File, opts rules.Options) (bool, error) {
		if err := opts.Require("days"); err != nil {
			return false, err
		}
		anchor := d.now().Add(-opts.Days("days", 0))

		target := file
		switch opts.String("target", "self") {
		case "self":
		case "previous":
			target = file.Previous()
		case "next":
			target = file.Next()
		default:
			return false, fmt.Errorf("unknown target %q", opts.String("target", ""))
		}

		modified, err := target.Modified()
		if err != nil {
			return false, err
		}

		if cmp == olderThan {
			return modified.Before(anchor), nil
		}
		return modified.After(anchor), nil
	}
}

// dataTimeOlderThan passes when the file's nominal data window ended
// before now minus the day count.
func (d *Deps) dataTimeOlderThan(ctx context.Context, file *sds.File, opts rules.Options) (bool, error) {
	if err := opts.Require("days"); err != nil {
		return false, err
	}
	anchor := d.now().Add(-opts.Days("days", 0))
	return file.DataEnd().Before(anchor), nil
}

// objectStoreExists passes when an object for the file is stored. With
// verifyChecksum the stored checksum must also match the local file.
func (d *Deps) objectStoreExists(ctx context.Context, file *sds.File, opts rules.Options) (bool, error) {
	exists, err := d.ObjectStore.Exists(ctx, file)
	if err != nil || !exists {
		return false, err
	}
	if !opts.Bool("verifyChecksum", false) {
		return true, nil
	}
	return d.checksumMatches(ctx, file, func() (string, error) {
		return d.ObjectStore.Checksum(ctx, file)
	})
}

// catalogExists builds the catalog predicates: the document must exist
// AND describe the current file version, so a stale document reads as
// absent and the publish action runs again.
func (d *Deps) catalogExists(name string, catalog func() remote.Catalog) rules.Condition {
	return func(ctx context.Context, file *sds.File, opts rules.Options) (bool, error) {
		c := catalog()
		if c == nil {
			return false, fmt.Errorf("%s: no catalog client configured", name)
		}

		doc, err := c.Get(ctx, file)
		if err != nil {
			if errors.Is(err, remote.ErrNotFound) {
				return false, nil
			}
			return false, err
		}

		sum, err := file.Checksum()
		if err != nil {
			return false, err
		}
		if doc.Checksum != sum {
			d.Logger.Debug("catalog document is stale",
				"condition", name, "file", file.Filename(),
				"document_checksum", doc.Checksum, "file_checksum", sum)
			return false, nil
		}
		return true, nil
	}
}

// pidAssigned passes when the file holds a persistent identifier.
func (d *Deps) pidAssigned(ctx context.Context, file *sds.File, opts rules.Options) (bool, error) {
	_, err := d.PID.Get(ctx, file)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// replicaExists passes when the remote node holds a replica, optionally
// verifying its checksum against the local file.
func (d *Deps) replicaExists(ctx context.Context, file *sds.File, opts rules.Options) (bool, error) {
	exists, err := d.Replicator.Exists(ctx, file)
	if err != nil || !exists {
		return false, err
	}
	if !opts.Bool("verifyChecksum", false) {
		return true, nil
	}
	return d.checksumMatches(ctx, file, func() (string, error) {
		return d.Replicator.Checksum(ctx, file)
	})
}

// ledgerPending passes when the deletion ledger still lists pending
// artifacts for the file. With the artifact option, only that artifact
// counts. The ledger is advisory, so this is a hint for rule authors,
// never a substitute for the live absence predicates.
func (d *Deps) ledgerPending(ctx context.Context, file *sds.File, opts rules.Options) (bool, error) {
	pending, err := d.Ledger.Pending(ctx, file.Filename())
	if err != nil {
		return false, err
	}

	if artifact := opts.String("artifact", ""); artifact != "" {
		for _, a := range pending {
			if a == artifact {
				return true, nil
			}
		}
		return false, nil
	}
	return len(pending) > 0, nil
}

// checksumMatches compares a remotely stored checksum with the local
// file's.
func (d *Deps) checksumMatches(ctx context.Context, file *sds.File, fetch func() (string, error)) (bool, error) {
	stored, err := fetch()
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	local, err := file.Checksum()
	if err != nil {
		return false, err
	}
	return stored == local, nil
}
