// Package fdsnws implements a minimal FDSN station web service client.
// It resolves station coordinates from the text-format query response.
package fdsnws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/sds"
)

// Client queries the FDSN station service. It satisfies
// remote.StationInfo.
type Client struct {
	http *remote.Client
}

// New creates a station service client from a configured HTTP layer.
func New(http *remote.Client) *Client {
	return &Client{http: http}
}

// Location returns the coordinates of the file's station. The service
// answers 404 (mapped to remote.ErrNotFound) for unknown stations.
func (c *Client) Location(ctx context.Context, file *sds.File) (*remote.Location, error) {
	query := url.Values{}
	query.Set("network", file.Stream.Network)
	query.Set("station", file.Stream.Station)
	query.Set("level", "station")
	query.Set("format", "text")

	payload, err := c.http.Do(ctx, http.MethodGet, "/fdsnws/station/1/query?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	location, err := parseStationText(string(payload))
	if err != nil {
		return nil, &remote.RequestError{Service: "fdsnws", Cause: err}
	}
	return location, nil
}

// parseStationText extracts coordinates from a station-level text
// response. Field order is fixed by the FDSN specification:
// Network|Station|Latitude|Longitude|Elevation|SiteName|StartTime|EndTime
func parseStationText(body string) (*remote.Location, error) {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) < 5 {
			return nil, fmt.Errorf("malformed station line %q", line)
		}

		latitude, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parse latitude %q: %w", fields[2], err)
		}
		longitude, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("parse longitude %q: %w", fields[3], err)
		}
		elevation, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("parse elevation %q: %w", fields[4], err)
		}

		return &remote.Location{
			Latitude:  latitude,
			Longitude: longitude,
			Elevation: elevation,
		}, nil
	}
	return nil, fmt.Errorf("no station rows in response")
}
