// Package config provides configuration loading and validation for the
// Archivist lifecycle manager.
//
// Configuration is read from a single YAML file, defaults are applied for
// every omitted field, environment variables (ARCHIVIST_SECTION_FIELD) may
// override individual values, and the final structure is validated before
// any component is constructed. The resulting *Config is built exactly once
// at startup and passed by reference into every component that needs it;
// no component reads ambient global state.
//
// # Basic Usage
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment Overrides
//
//	ARCHIVIST_ARCHIVE_ROOT_PATH=/data/archive/SDS
//	ARCHIVIST_LEDGER_PATH=/var/lib/archivist/deletion.db
//	ARCHIVIST_ENGINE_WORKERS=8
package config
