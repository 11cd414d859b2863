package config

import "time"

// ApplyDefaults fills in default values for every field that was omitted
// from the configuration file. It never overwrites an explicitly set value.
func ApplyDefaults(cfg *Config) {
	// Archive
	if cfg.Archive.Pattern == "" {
		cfg.Archive.Pattern = "*.*.*.*.*.*.*"
	}

	// Engine
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = 4
	}
	if cfg.Engine.DefaultTimeout == 0 {
		cfg.Engine.DefaultTimeout = 2 * time.Minute
	}

	// Ledger
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = "data/deletion.db"
	}
	if cfg.Ledger.BusyTimeout == 0 {
		cfg.Ledger.BusyTimeout = 5 * time.Second
	}

	// Object store
	if cfg.ObjectStore.Region == "" {
		cfg.ObjectStore.Region = "eu-central-1"
	}

	// Catalogs
	applyCatalogDefaults(&cfg.Catalogs.Waveform)
	applyCatalogDefaults(&cfg.Catalogs.DublinCore)
	applyCatalogDefaults(&cfg.Catalogs.PSD)

	// PID service
	if cfg.PID.Timeout == 0 {
		cfg.PID.Timeout = 30 * time.Second
	}

	// Replication
	if cfg.Replication.Timeout == 0 {
		cfg.Replication.Timeout = 5 * time.Minute
	}

	// FDSN station service
	if cfg.FDSNWS.BaseURL == "" {
		cfg.FDSNWS.BaseURL = "https://www.orfeus-eu.org/fdsnws/station/1/query"
	}
	if cfg.FDSNWS.Timeout == 0 {
		cfg.FDSNWS.Timeout = 30 * time.Second
	}

	// Rate limiting
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 20
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 40
	}

	// Repack tool
	if cfg.Repack.Binary == "" {
		cfg.Repack.Binary = "dataselect"
	}
	if cfg.Repack.RecordSize == 0 {
		cfg.Repack.RecordSize = 4096
	}

	// Schedule
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 3 * * *"
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "archivist"
	}
	if len(cfg.Telemetry.Metrics.RuleDurationBuckets) == 0 {
		// Rule actions range from local stat calls to multi-minute uploads.
		cfg.Telemetry.Metrics.RuleDurationBuckets = []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300}
	}
}

func applyCatalogDefaults(ep *CatalogEndpoint) {
	if ep.Timeout == 0 {
		ep.Timeout = 30 * time.Second
	}
}

// Default returns a configuration with all defaults applied and no file
// input. Useful for tests and for the lint command.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
