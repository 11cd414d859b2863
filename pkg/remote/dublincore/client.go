// Package dublincore implements the descriptive metadata catalog client.
// Documents follow the Dublin Core element set and carry the file's
// persistent identifier plus the station coordinates, so publishing one
// requires the PID service and the station metadata service.
package dublincore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/sds"
)

// document is the catalog's wire representation, following the Dublin
// Core element set.
type document struct {
	ID          string    `json:"id,omitempty"`
	Filename    string    `json:"fileId"`
	Checksum    string    `json:"checksum"`
	Identifier  string    `json:"dc_identifier"`
	Title       string    `json:"dc_title"`
	Subject     string    `json:"dc_subject"`
	Creator     string    `json:"dc_creator"`
	Contributor string    `json:"dc_contributor"`
	Type        string    `json:"dc_type"`
	Format      string    `json:"dc_format"`
	Date        time.Time `json:"dc_date"`
	CoverageX   float64   `json:"dc_coverage_x"`
	CoverageY   float64   `json:"dc_coverage_y"`
	CoverageZ   float64   `json:"dc_coverage_z"`
	TemporalMin time.Time `json:"dc_coverage_t_min"`
	TemporalMax time.Time `json:"dc_coverage_t_max"`
	Rights      string    `json:"dc_rights"`
}

// Client talks to the descriptive metadata catalog. It satisfies
// remote.Catalog.
type Client struct {
	http     *remote.Client
	pids     remote.PIDService
	stations remote.StationInfo
}

// New creates a catalog client. pids and stations provide the
// identifier and coordinates embedded in published documents.
func New(http *remote.Client, pids remote.PIDService, stations remote.StationInfo) *Client {
	return &Client{http: http, pids: pids, stations: stations}
}

func documentPath(file *sds.File) string {
	return "/dublin_core/" + url.PathEscape(file.Filename())
}

// Get returns the document for file, or remote.ErrNotFound.
func (c *Client) Get(ctx context.Context, file *sds.File) (*remote.Document, error) {
	var doc document
	if err := c.http.GetJSON(ctx, documentPath(file), &doc); err != nil {
		return nil, err
	}
	return &remote.Document{ID: doc.ID, Filename: doc.Filename, Checksum: doc.Checksum}, nil
}

// Put upserts the document for file. The file must already hold a PID
// and the station must resolve; a missing PID is an error so rule maps
// can order assignPID before dcMetadata.
func (c *Client) Put(ctx context.Context, file *sds.File) error {
	pid, err := c.pids.Get(ctx, file)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return &remote.RequestError{
				Service: "dublincore",
				Cause:   fmt.Errorf("no identifier assigned to %s", file.Filename()),
			}
		}
		return err
	}

	location, err := c.stations.Location(ctx, file)
	if err != nil {
		return err
	}

	sum, err := file.Checksum()
	if err != nil {
		return &remote.RequestError{Service: "dublincore", Cause: err}
	}

	doc := document{
		Filename:    file.Filename(),
		Checksum:    sum,
		Identifier:  pid,
		Title:       "Seismic waveform archive",
		Subject:     "mSEED, waveform, quality",
		Creator:     "EIDA node",
		Contributor: "network operator",
		Type:        "seismic waveform",
		Format:      "MSEED",
		Date:        time.Now().UTC(),
		CoverageX:   location.Latitude,
		CoverageY:   location.Longitude,
		CoverageZ:   location.Elevation,
		TemporalMin: file.DataStart(),
		TemporalMax: file.DataEnd(),
		Rights:      "open access",
	}
	return c.http.PutJSON(ctx, documentPath(file), doc)
}

// Delete removes the document for file.
func (c *Client) Delete(ctx context.Context, file *sds.File) error {
	return c.http.Delete(ctx, documentPath(file))
}
