package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, applies
// environment variable overrides, and validates the result. Environment
// variables use the naming convention ARCHIVIST_SECTION_FIELD and always
// take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Only values relevant for deployment-specific wiring are
// exposed; thresholds belong in the rule maps.
func applyEnvOverrides(cfg *Config) {
	setString("ARCHIVIST_ARCHIVE_ROOT_PATH", &cfg.Archive.RootPath)
	setString("ARCHIVIST_ARCHIVE_PATTERN", &cfg.Archive.Pattern)

	setInt("ARCHIVIST_ENGINE_WORKERS", &cfg.Engine.Workers)
	setDuration("ARCHIVIST_ENGINE_DEFAULT_TIMEOUT", &cfg.Engine.DefaultTimeout)

	setString("ARCHIVIST_LEDGER_PATH", &cfg.Ledger.Path)

	setString("ARCHIVIST_OBJECT_STORE_ENDPOINT", &cfg.ObjectStore.Endpoint)
	setString("ARCHIVIST_OBJECT_STORE_REGION", &cfg.ObjectStore.Region)
	setString("ARCHIVIST_OBJECT_STORE_BUCKET", &cfg.ObjectStore.Bucket)
	setString("ARCHIVIST_OBJECT_STORE_PREFIX", &cfg.ObjectStore.Prefix)
	setString("ARCHIVIST_OBJECT_STORE_ACCESS_KEY", &cfg.ObjectStore.AccessKey)
	setString("ARCHIVIST_OBJECT_STORE_SECRET_KEY", &cfg.ObjectStore.SecretKey)
	setBool("ARCHIVIST_OBJECT_STORE_FORCE_PATH_STYLE", &cfg.ObjectStore.ForcePathStyle)

	setString("ARCHIVIST_CATALOGS_WAVEFORM_BASE_URL", &cfg.Catalogs.Waveform.BaseURL)
	setString("ARCHIVIST_CATALOGS_DUBLIN_CORE_BASE_URL", &cfg.Catalogs.DublinCore.BaseURL)
	setString("ARCHIVIST_CATALOGS_PSD_BASE_URL", &cfg.Catalogs.PSD.BaseURL)

	setString("ARCHIVIST_PID_BASE_URL", &cfg.PID.BaseURL)
	setString("ARCHIVIST_PID_PREFIX", &cfg.PID.Prefix)

	setString("ARCHIVIST_REPLICATION_BASE_URL", &cfg.Replication.BaseURL)
	setString("ARCHIVIST_REPLICATION_ROOT", &cfg.Replication.Root)

	setString("ARCHIVIST_FDSNWS_BASE_URL", &cfg.FDSNWS.BaseURL)

	setString("ARCHIVIST_REPACK_BINARY", &cfg.Repack.Binary)
	setInt("ARCHIVIST_REPACK_RECORD_SIZE", &cfg.Repack.RecordSize)

	setString("ARCHIVIST_QUARANTINE_PATH", &cfg.Quarantine.Path)

	setString("ARCHIVIST_SCHEDULE_CRON", &cfg.Schedule.Cron)

	setString("ARCHIVIST_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("ARCHIVIST_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	setString("ARCHIVIST_TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
}

func setString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
