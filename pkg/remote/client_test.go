package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) RemoteRequest(service, status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = make(map[string]int)
	}
	o.counts[service+"/"+status]++
}

func (o *countingObserver) count(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[key]
}

func TestClient_ObserverCountsOutcomes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer server.Close()

	observer := &countingObserver{}
	client := NewClient(ClientConfig{
		Service:  "wfcatalog",
		BaseURL:  server.URL,
		Observer: observer,
	})
	ctx := context.Background()

	if _, err := client.Do(ctx, http.MethodGet, "/ok", nil); err != nil {
		t.Fatalf("GET /ok error = %v", err)
	}
	if _, err := client.Do(ctx, http.MethodGet, "/missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GET /missing error = %v, want ErrNotFound", err)
	}
	if _, err := client.Do(ctx, http.MethodGet, "/denied", nil); err == nil {
		t.Fatal("GET /denied succeeded, want error")
	}

	for key, want := range map[string]int{
		"wfcatalog/ok":        1,
		"wfcatalog/not_found": 1,
		"wfcatalog/error":     1,
	} {
		if got := observer.count(key); got != want {
			t.Errorf("count(%s) = %d, want %d", key, got, want)
		}
	}
}

func TestClient_RetriesReportOneRequest(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	observer := &countingObserver{}
	client := NewClient(ClientConfig{
		Service:    "psd",
		BaseURL:    server.URL,
		MaxRetries: 1,
		Observer:   observer,
	})

	if _, err := client.Do(context.Background(), http.MethodGet, "/spectra/x", nil); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if hits != 2 {
		t.Errorf("server hits = %d, want 2 (initial + retry)", hits)
	}
	if got := observer.count("psd/error"); got != 1 {
		t.Errorf("error count = %d, want 1 per request, not per attempt", got)
	}
}
