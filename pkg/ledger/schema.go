package ledger

// schemaVersion is bumped whenever the schema changes incompatibly.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS deletion (
	file      TEXT PRIMARY KEY,
	artifacts TEXT NOT NULL,
	created   TIMESTAMP NOT NULL,
	updated   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const insertSchemaVersion = `
INSERT OR IGNORE INTO schema_version (version) VALUES (?)
`

const getSchemaVersion = `
SELECT MAX(version) FROM schema_version
`
