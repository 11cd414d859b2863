// Package pid implements the persistent identifier service client.
// Identifiers are minted under a configured prefix and resolve back to
// the archive file they were assigned to.
package pid

import (
	"context"
	"errors"
	"net/url"

	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/sds"
)

// record is the service's wire representation of an assignment.
type record struct {
	PID      string `json:"pid,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Filename string `json:"fileName"`
	Checksum string `json:"checksum"`
}

// Client talks to the PID service. It satisfies remote.PIDService.
type Client struct {
	http   *remote.Client
	prefix string
}

// New creates a client minting identifiers under prefix.
func New(http *remote.Client, prefix string) *Client {
	return &Client{http: http, prefix: prefix}
}

func handlePath(file *sds.File) string {
	return "/handles/" + url.PathEscape(file.Filename())
}

// Get returns the PID assigned to file, or remote.ErrNotFound.
func (c *Client) Get(ctx context.Context, file *sds.File) (string, error) {
	var rec record
	if err := c.http.GetJSON(ctx, handlePath(file), &rec); err != nil {
		return "", err
	}
	return rec.PID, nil
}

// Assign mints a PID for file. A file that already holds one keeps it.
func (c *Client) Assign(ctx context.Context, file *sds.File) error {
	if _, err := c.Get(ctx, file); err == nil {
		return nil
	} else if !errors.Is(err, remote.ErrNotFound) {
		return err
	}

	sum, err := file.Checksum()
	if err != nil {
		return &remote.RequestError{Service: "pid", Cause: err}
	}

	rec := record{
		Prefix:   c.prefix,
		Filename: file.Filename(),
		Checksum: sum,
	}
	return c.http.PutJSON(ctx, handlePath(file), rec)
}

// Delete revokes the PID for file.
func (c *Client) Delete(ctx context.Context, file *sds.File) error {
	return c.http.Delete(ctx, handlePath(file))
}
