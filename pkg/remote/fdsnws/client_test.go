package fdsnws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/sds"
)

const stationBody = `#Network|Station|Latitude|Longitude|Elevation|SiteName|StartTime|EndTime
NL|HGN|50.764|5.9317|135.0|HEIMANSGROEVE, NETHERLANDS|2001-06-06T00:00:00|
`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(remote.NewClient(remote.ClientConfig{
		Service: "fdsnws",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}))
	return client, server
}

func TestClient_Location(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("station"); got != "HGN" {
			t.Errorf("station query = %q, want HGN", got)
		}
		if got := r.URL.Query().Get("format"); got != "text" {
			t.Errorf("format query = %q, want text", got)
		}
		w.Write([]byte(stationBody))
	})

	file, err := sds.ParseFilename("/data/SDS", "NL.HGN.02.BHZ.D.2019.022")
	if err != nil {
		t.Fatalf("ParseFilename() error = %v", err)
	}

	location, err := client.Location(context.Background(), file)
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if location.Latitude != 50.764 {
		t.Errorf("Latitude = %v, want 50.764", location.Latitude)
	}
	if location.Longitude != 5.9317 {
		t.Errorf("Longitude = %v, want 5.9317", location.Longitude)
	}
	if location.Elevation != 135.0 {
		t.Errorf("Elevation = %v, want 135.0", location.Elevation)
	}
}

func TestClient_Location_UnknownStation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	file, _ := sds.ParseFilename("/data/SDS", "XX.NOPE.00.BHZ.D.2019.022")
	_, err := client.Location(context.Background(), file)
	if !errors.Is(err, remote.ErrNotFound) {
		t.Errorf("Location() error = %v, want ErrNotFound", err)
	}
}

func TestParseStationText_Malformed(t *testing.T) {
	if _, err := parseStationText("#header only\n"); err == nil {
		t.Error("expected error for response without rows")
	}
	if _, err := parseStationText("NL|HGN|not-a-number|5.9|135\n"); err == nil {
		t.Error("expected error for unparseable latitude")
	}
}
