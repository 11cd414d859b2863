package remote

import (
	"context"

	"waveform-hq/archivist/pkg/sds"
)

// ObjectStore is the long-term object storage for pruned archive files.
type ObjectStore interface {
	// Exists reports whether an object for the file is present.
	Exists(ctx context.Context, file *sds.File) (bool, error)

	// Checksum returns the stored checksum of the object for the file.
	// Returns ErrNotFound when the object is absent.
	Checksum(ctx context.Context, file *sds.File) (string, error)

	// Put uploads the file. Uploading content identical to the stored
	// object is a no-op success.
	Put(ctx context.Context, file *sds.File) error

	// Delete removes the object. Deleting an absent object is a no-op.
	Delete(ctx context.Context, file *sds.File) error
}

// Document is a catalog record for one archive file.
type Document struct {
	// ID is the catalog-assigned identifier.
	ID string `json:"id"`

	// Filename is the SDS filename the document describes.
	Filename string `json:"filename"`

	// Checksum is the checksum of the file version the document was
	// computed from.
	Checksum string `json:"checksum"`
}

// Catalog is a metadata catalog keyed by SDS filename. The waveform,
// descriptive and spectral catalogs all satisfy it.
type Catalog interface {
	// Get returns the document for the file, or ErrNotFound.
	Get(ctx context.Context, file *sds.File) (*Document, error)

	// Put creates or replaces the document for the file. Upserts are
	// keyed by filename, so repeating a publish is safe.
	Put(ctx context.Context, file *sds.File) error

	// Delete removes the document. Deleting an absent document is a
	// no-op.
	Delete(ctx context.Context, file *sds.File) error
}

// PIDService mints and resolves persistent identifiers for archive files.
type PIDService interface {
	// Get returns the PID assigned to the file, or ErrNotFound.
	Get(ctx context.Context, file *sds.File) (string, error)

	// Assign mints a PID for the file. Assigning to a file that already
	// holds a valid PID is a no-op success.
	Assign(ctx context.Context, file *sds.File) error

	// Delete revokes the PID. Revoking an absent PID is a no-op.
	Delete(ctx context.Context, file *sds.File) error
}

// Replicator manages copies of archive files at a federated remote node.
type Replicator interface {
	// Exists reports whether a replica of the file is present.
	Exists(ctx context.Context, file *sds.File) (bool, error)

	// Checksum returns the replica's checksum, or ErrNotFound.
	Checksum(ctx context.Context, file *sds.File) (string, error)

	// Replicate copies the file to the remote node.
	Replicate(ctx context.Context, file *sds.File) error

	// Delete removes the replica. Deleting an absent replica is a no-op.
	Delete(ctx context.Context, file *sds.File) error
}

// Location is a station's geographic position.
type Location struct {
	Latitude  float64
	Longitude float64
	Elevation float64
}

// StationInfo resolves station coordinates from the station metadata
// service.
type StationInfo interface {
	// Location returns the coordinates of the file's station, or
	// ErrNotFound when the service does not know the station.
	Location(ctx context.Context, file *sds.File) (*Location, error)
}
