// Package psd implements the spectral statistics catalog client. The
// catalog computes power spectral density segments server-side; the
// client submits file references and queries segment presence.
package psd

import (
	"context"
	"net/url"
	"time"

	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/sds"
)

// document is the catalog's wire representation of one file's spectra.
type document struct {
	ID        string    `json:"id,omitempty"`
	Filename  string    `json:"fileName"`
	Network   string    `json:"network"`
	Station   string    `json:"station"`
	Location  string    `json:"location"`
	Channel   string    `json:"channel"`
	Checksum  string    `json:"checksum"`
	DataStart time.Time `json:"start"`
	DataEnd   time.Time `json:"end"`
}

// Client talks to the spectral statistics catalog. It satisfies
// remote.Catalog.
type Client struct {
	http *remote.Client
}

// New creates a catalog client from a configured HTTP layer.
func New(http *remote.Client) *Client {
	return &Client{http: http}
}

func spectraPath(file *sds.File) string {
	return "/spectra/" + url.PathEscape(file.Filename())
}

// Get returns the spectra document for file, or remote.ErrNotFound.
func (c *Client) Get(ctx context.Context, file *sds.File) (*remote.Document, error) {
	var doc document
	if err := c.http.GetJSON(ctx, spectraPath(file), &doc); err != nil {
		return nil, err
	}
	return &remote.Document{ID: doc.ID, Filename: doc.Filename, Checksum: doc.Checksum}, nil
}

// Put submits the file reference for spectral processing. Re-submitting
// the same filename and checksum replaces the previous segments.
func (c *Client) Put(ctx context.Context, file *sds.File) error {
	sum, err := file.Checksum()
	if err != nil {
		return &remote.RequestError{Service: "psd", Cause: err}
	}

	doc := document{
		Filename:  file.Filename(),
		Network:   file.Stream.Network,
		Station:   file.Stream.Station,
		Location:  file.Stream.Location,
		Channel:   file.Stream.Channel,
		Checksum:  sum,
		DataStart: file.DataStart(),
		DataEnd:   file.DataEnd(),
	}
	return c.http.PutJSON(ctx, spectraPath(file), doc)
}

// Delete removes all spectra segments for file.
func (c *Client) Delete(ctx context.Context, file *sds.File) error {
	return c.http.Delete(ctx, spectraPath(file))
}
