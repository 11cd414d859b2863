// Package replica implements the federated replication client. The
// remote node exposes replicas keyed by their archive-relative path
// under a replication root.
package replica

import (
	"context"
	"errors"
	"net/url"

	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/sds"
)

// record is the node's wire representation of a replica.
type record struct {
	Path     string `json:"path"`
	Root     string `json:"root,omitempty"`
	Checksum string `json:"checksum"`
}

// Client talks to the replication node. It satisfies remote.Replicator.
type Client struct {
	http *remote.Client
	root string
}

// New creates a client replicating under root at the remote node.
func New(http *remote.Client, root string) *Client {
	return &Client{http: http, root: root}
}

func replicaPath(file *sds.File) string {
	return "/replicas/" + url.PathEscape(file.Filename())
}

// Exists reports whether a replica of file is present.
func (c *Client) Exists(ctx context.Context, file *sds.File) (bool, error) {
	_, err := c.Checksum(ctx, file)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Checksum returns the replica's checksum, or remote.ErrNotFound.
func (c *Client) Checksum(ctx context.Context, file *sds.File) (string, error) {
	var rec record
	if err := c.http.GetJSON(ctx, replicaPath(file), &rec); err != nil {
		return "", err
	}
	return rec.Checksum, nil
}

// Replicate registers the file for replication to the remote node. The
// node pulls content itself; the request carries the expected checksum
// so the transfer can be verified on the far side.
func (c *Client) Replicate(ctx context.Context, file *sds.File) error {
	sum, err := file.Checksum()
	if err != nil {
		return &remote.RequestError{Service: "replica", Cause: err}
	}

	rec := record{
		Path:     file.SubDirectory() + "/" + file.Filename(),
		Root:     c.root,
		Checksum: sum,
	}
	return c.http.PutJSON(ctx, replicaPath(file), rec)
}

// Delete removes the replica at the remote node.
func (c *Client) Delete(ctx context.Context, file *sds.File) error {
	return c.http.Delete(ctx, replicaPath(file))
}
