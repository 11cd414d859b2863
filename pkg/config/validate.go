package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every validation failure so operators can fix
// them all in one pass.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for internal consistency. It returns a
// ValidationErrors value listing every problem found, or nil.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	add := func(field, message string) {
		errs = append(errs, &ValidationError{Field: field, Message: message})
	}

	if cfg.Engine.Workers < 1 {
		add("engine.workers", "must be at least 1")
	}
	if cfg.Engine.DefaultTimeout < 0 {
		add("engine.default_timeout", "must not be negative")
	}

	if cfg.Ledger.Path == "" {
		add("ledger.path", "must not be empty")
	}
	if cfg.Ledger.BusyTimeout < 0 {
		add("ledger.busy_timeout", "must not be negative")
	}

	checkURL := func(field, value string) {
		if value == "" {
			return
		}
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			add(field, fmt.Sprintf("%q is not a valid URL", value))
		}
	}

	checkURL("object_store.endpoint", cfg.ObjectStore.Endpoint)
	checkURL("catalogs.waveform.base_url", cfg.Catalogs.Waveform.BaseURL)
	checkURL("catalogs.dublin_core.base_url", cfg.Catalogs.DublinCore.BaseURL)
	checkURL("catalogs.psd.base_url", cfg.Catalogs.PSD.BaseURL)
	checkURL("pid.base_url", cfg.PID.BaseURL)
	checkURL("replication.base_url", cfg.Replication.BaseURL)
	checkURL("fdsnws.base_url", cfg.FDSNWS.BaseURL)

	if cfg.RateLimit.RequestsPerSecond < 0 {
		add("rate_limit.requests_per_second", "must not be negative")
	}
	if cfg.RateLimit.Burst < 0 {
		add("rate_limit.burst", "must not be negative")
	}

	if cfg.Repack.RecordSize != 0 && (cfg.Repack.RecordSize < 256 || cfg.Repack.RecordSize%256 != 0) {
		add("repack.record_size", "must be a positive multiple of 256")
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		add("telemetry.logging.level", fmt.Sprintf("unknown level %q", cfg.Telemetry.Logging.Level))
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		add("telemetry.logging.format", fmt.Sprintf("unknown format %q", cfg.Telemetry.Logging.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
