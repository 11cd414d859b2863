package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// Service names the collaborator, used in errors and logs.
	Service string

	// BaseURL is the service root, without trailing slash.
	BaseURL string

	// Timeout bounds each request.
	Timeout time.Duration

	// MaxRetries is the number of retries after a transient failure.
	// Default: 2
	MaxRetries int

	// Limiter bounds the outbound request rate. Optional.
	Limiter *Limiter

	// Observer counts completed requests by outcome. Optional.
	Observer RequestObserver

	// Logger for request diagnostics. Optional.
	Logger *slog.Logger
}

// RequestObserver receives one notification per completed request with
// the final outcome: "ok", "not_found", or "error". Retries within a
// request are not reported individually.
type RequestObserver interface {
	RemoteRequest(service, status string)
}

// Client is the shared HTTP layer for the REST collaborators. It pools
// connections, retries transient failures with exponential backoff and
// honors the shared rate limiter.
type Client struct {
	cfg    ClientConfig
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a Client for one collaborator.
func NewClient(cfg ClientConfig) *Client {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logger.With("service", cfg.Service),
	}
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Do performs a request against path with retry on transient failures.
// A 404 response maps to ErrNotFound; other non-2xx responses map to a
// RequestError.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	payload, err := c.do(ctx, method, path, body)
	if c.cfg.Observer != nil {
		c.cfg.Observer.RemoteRequest(c.cfg.Service, requestStatus(err))
	}
	return payload, err
}

func requestStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return nil, &RequestError{Service: c.cfg.Service, Cause: err}
		}
	}

	url := c.cfg.BaseURL + path
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			select {
			case <-ctx.Done():
				return nil, &RequestError{Service: c.cfg.Service, Cause: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, &RequestError{Service: c.cfg.Service, Cause: err}
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &RequestError{Service: c.cfg.Service, Cause: ctx.Err()}
			}
			lastErr = err
			c.logger.Warn("request failed, retrying",
				"method", method, "url", url, "attempt", attempt+1, "error", err)
			continue
		}

		payload, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%s %s: %w", c.cfg.Service, path, ErrNotFound)
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return nil, &RequestError{Service: c.cfg.Service, Cause: readErr}
			}
			return payload, nil
		case resp.StatusCode >= 500:
			lastErr = &RequestError{
				Service:    c.cfg.Service,
				StatusCode: resp.StatusCode,
				Message:    string(payload),
			}
			c.logger.Warn("server error, retrying",
				"method", method, "url", url, "status", resp.StatusCode, "attempt", attempt+1)
			continue
		default:
			return nil, &RequestError{
				Service:    c.cfg.Service,
				StatusCode: resp.StatusCode,
				Message:    string(payload),
			}
		}
	}

	if _, ok := lastErr.(*RequestError); ok {
		return nil, lastErr
	}
	return nil, &RequestError{Service: c.cfg.Service, Cause: lastErr}
}

// GetJSON performs a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	payload, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &RequestError{Service: c.cfg.Service, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// PutJSON marshals in and performs a PUT.
func (c *Client) PutJSON(ctx context.Context, path string, in any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &RequestError{Service: c.cfg.Service, Cause: fmt.Errorf("encode request: %w", err)}
	}
	_, err = c.Do(ctx, http.MethodPut, path, payload)
	return err
}

// Delete performs a DELETE. An absent resource (404) is a no-op success.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil)
	if err != nil && errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
