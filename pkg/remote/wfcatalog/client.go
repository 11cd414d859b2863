// Package wfcatalog implements the waveform metadata catalog client.
// The catalog stores one document per daily stream file describing its
// continuous-waveform characteristics.
package wfcatalog

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/sds"
)

// document is the catalog's wire representation of a daily stream.
type document struct {
	ID        string    `json:"id,omitempty"`
	Filename  string    `json:"fileName"`
	Network   string    `json:"network"`
	Station   string    `json:"station"`
	Location  string    `json:"location"`
	Channel   string    `json:"channel"`
	Quality   string    `json:"quality"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	DataStart time.Time `json:"start"`
	DataEnd   time.Time `json:"end"`
}

// Client talks to the waveform metadata catalog. It satisfies
// remote.Catalog.
type Client struct {
	http *remote.Client
}

// New creates a catalog client from a configured HTTP layer.
func New(http *remote.Client) *Client {
	return &Client{http: http}
}

func streamPath(file *sds.File) string {
	return "/daily_streams/" + url.PathEscape(file.Filename())
}

// Get returns the catalog document for file, or remote.ErrNotFound.
func (c *Client) Get(ctx context.Context, file *sds.File) (*remote.Document, error) {
	var doc document
	if err := c.http.GetJSON(ctx, streamPath(file), &doc); err != nil {
		return nil, err
	}
	return &remote.Document{ID: doc.ID, Filename: doc.Filename, Checksum: doc.Checksum}, nil
}

// Put upserts the catalog document for file, keyed by filename. The
// checksum ties the document to the exact file version it describes.
func (c *Client) Put(ctx context.Context, file *sds.File) error {
	sum, err := file.Checksum()
	if err != nil {
		return &remote.RequestError{Service: "wfcatalog", Cause: err}
	}
	size, err := file.Size()
	if err != nil {
		return &remote.RequestError{Service: "wfcatalog", Cause: fmt.Errorf("stat %s: %w", file.Filename(), err)}
	}

	doc := document{
		Filename:  file.Filename(),
		Network:   file.Stream.Network,
		Station:   file.Stream.Station,
		Location:  file.Stream.Location,
		Channel:   file.Stream.Channel,
		Quality:   string(file.Quality),
		Checksum:  sum,
		Size:      size,
		DataStart: file.DataStart(),
		DataEnd:   file.DataEnd(),
	}
	return c.http.PutJSON(ctx, streamPath(file), doc)
}

// Delete removes the catalog document for file.
func (c *Client) Delete(ctx context.Context, file *sds.File) error {
	return c.http.Delete(ctx, streamPath(file))
}
