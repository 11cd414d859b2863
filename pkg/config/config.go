package config

import "time"

// Config is the root configuration structure for Archivist.
// It contains all configuration sections for the archive, the rule engine,
// the deletion ledger, external collaborators, and telemetry.
type Config struct {
	// Archive contains the local SDS archive settings.
	Archive ArchiveConfig `yaml:"archive"`

	// Engine contains rule engine settings (rule maps, sequence, workers).
	Engine EngineConfig `yaml:"engine"`

	// Ledger contains deletion ledger storage settings.
	Ledger LedgerConfig `yaml:"ledger"`

	// ObjectStore contains the S3 object store settings.
	ObjectStore ObjectStoreConfig `yaml:"object_store"`

	// Catalogs contains the three independent metadata catalog endpoints.
	Catalogs CatalogsConfig `yaml:"catalogs"`

	// PID contains the persistent identifier service settings.
	PID PIDConfig `yaml:"pid"`

	// Replication contains the federated replication target settings.
	Replication ReplicationConfig `yaml:"replication"`

	// FDSNWS contains the station metadata web service settings.
	FDSNWS FDSNWSConfig `yaml:"fdsnws"`

	// RateLimit bounds the outbound request rate shared by all remote
	// clients.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Repack contains the external repack/trim tool settings.
	Repack RepackConfig `yaml:"repack"`

	// Quarantine contains the quarantine target settings.
	Quarantine QuarantineConfig `yaml:"quarantine"`

	// Schedule contains daemon-mode scheduling settings.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Telemetry contains logging and metrics settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ArchiveConfig contains settings for the local SDS archive.
type ArchiveConfig struct {
	// RootPath is the root directory of the SDS archive
	// (YYYY/NET/STA/CHA.Q/NET.STA.LOC.CHA.Q.YYYY.DDD).
	RootPath string `yaml:"root_path"`

	// Pattern is the default 7-field wildcard pattern used to scope
	// discovery when the CLI does not supply one.
	// Default: "*.*.*.*.*.*.*" (everything)
	Pattern string `yaml:"pattern"`
}

// EngineConfig contains settings for the rule engine.
type EngineConfig struct {
	// RuleMaps is the list of rule map files (JSON or YAML). Rule names
	// must be unique across all files.
	RuleMaps []string `yaml:"rule_maps"`

	// Sequence is the rule sequence file: an ordered array of rule names.
	Sequence string `yaml:"sequence"`

	// Workers is the number of items evaluated in parallel.
	// Rules within a single item always run sequentially.
	// Default: 4
	Workers int `yaml:"workers"`

	// DefaultTimeout bounds rule actions that do not configure their own
	// timeout. Every action runs under a bound; zero applies the default.
	// Default: 2m
	DefaultTimeout time.Duration `yaml:"default_timeout"`

	// DryRun logs would-be destructive actions without touching anything.
	DryRun bool `yaml:"dry_run"`
}

// LedgerConfig contains settings for the deletion ledger database.
type LedgerConfig struct {
	// Path is the SQLite database file path.
	// Default: "data/deletion.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for database locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ObjectStoreConfig contains settings for the S3 object store.
type ObjectStoreConfig struct {
	// Endpoint is a custom S3 endpoint URL. Empty uses AWS defaults.
	Endpoint string `yaml:"endpoint"`

	// Region is the S3 region.
	// Default: "eu-central-1"
	Region string `yaml:"region"`

	// Bucket is the bucket holding archived objects.
	Bucket string `yaml:"bucket"`

	// Prefix is prepended to every object key.
	Prefix string `yaml:"prefix"`

	// AccessKey and SecretKey are static credentials. When empty the
	// default AWS credential chain is used.
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`

	// ForcePathStyle enables path-style addressing (MinIO and friends).
	ForcePathStyle bool `yaml:"force_path_style"`
}

// CatalogsConfig contains the endpoints of the three metadata catalogs.
// Each catalog is independent and queried live; results are never cached.
type CatalogsConfig struct {
	// Waveform is the waveform metadata catalog (WFCatalog) base URL.
	Waveform CatalogEndpoint `yaml:"waveform"`

	// DublinCore is the descriptive metadata catalog base URL.
	DublinCore CatalogEndpoint `yaml:"dublin_core"`

	// PSD is the spectral statistics catalog base URL.
	PSD CatalogEndpoint `yaml:"psd"`
}

// CatalogEndpoint describes a single catalog REST endpoint.
type CatalogEndpoint struct {
	// BaseURL is the catalog base URL.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single catalog request.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// PIDConfig contains settings for the identifier-issuing service.
type PIDConfig struct {
	// BaseURL is the PID service base URL.
	BaseURL string `yaml:"base_url"`

	// Prefix is the handle prefix under which identifiers are minted.
	Prefix string `yaml:"prefix"`

	// Timeout bounds a single PID service request.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// ReplicationConfig contains settings for the federated replication target.
type ReplicationConfig struct {
	// BaseURL is the replication service base URL.
	BaseURL string `yaml:"base_url"`

	// Root is the collection root on the federated target under which
	// replicas are stored.
	Root string `yaml:"root"`

	// Timeout bounds a single replication request. Replication moves whole
	// daily files, so this is deliberately generous.
	// Default: 5m
	Timeout time.Duration `yaml:"timeout"`
}

// FDSNWSConfig contains settings for the FDSN station web service used to
// resolve stream coordinates for descriptive metadata.
type FDSNWSConfig struct {
	// BaseURL is the fdsnws-station query URL.
	// Default: "https://www.orfeus-eu.org/fdsnws/station/1/query"
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single station request.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// RepackConfig contains settings for the external repack/trim tool that
// cuts file boundaries and removes overlap.
type RepackConfig struct {
	// Binary is the tool executable.
	// Default: "dataselect"
	Binary string `yaml:"binary"`

	// RecordSize is the fixed record size used when repacking.
	// Default: 4096
	RecordSize int `yaml:"record_size"`
}

// QuarantineConfig contains settings for quarantining suspect files.
type QuarantineConfig struct {
	// Path is the quarantine root directory. The archive layout is
	// mirrored beneath it.
	Path string `yaml:"path"`
}

// ScheduleConfig contains daemon-mode settings.
type ScheduleConfig struct {
	// Cron is the standard cron expression for scheduled runs.
	// Default: "0 3 * * *" (daily at 3 AM)
	Cron string `yaml:"cron"`

	// WatchRuleMaps reloads rule maps between runs when they change
	// on disk.
	WatchRuleMaps bool `yaml:"watch_rule_maps"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "archivist"
	Namespace string `yaml:"namespace"`

	// ListenAddress serves /metrics in daemon mode when non-empty.
	ListenAddress string `yaml:"listen_address"`

	// RuleDurationBuckets are histogram buckets for rule execution
	// times in seconds.
	RuleDurationBuckets []float64 `yaml:"rule_duration_buckets"`
}

// RateLimitConfig bounds outbound requests to external systems.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained outbound request rate shared by
	// all remote clients. Zero disables limiting.
	// Default: 20
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the maximum burst size.
	// Default: 40
	Burst int64 `yaml:"burst"`
}
