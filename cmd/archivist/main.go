// Archivist manages the lifecycle of daily waveform files in an SDS
// archive: pruning raw data into quality-controlled derivatives,
// ingesting them into an object store, publishing metadata catalogs,
// assigning persistent identifiers, replicating to federated nodes, and
// safely deleting local copies once every downstream artifact is
// confirmed.
//
// Usage:
//
//	# Run the pipeline once over the configured archive
//	archivist run
//
//	# Run continuously on the configured cron schedule
//	archivist run --daemon
//
//	# Rehearse without touching anything
//	archivist run --dry-run
//
//	# List the archive files a pattern selects
//	archivist collect --pattern "NL.*.*.BHZ.D.2023.*"
//
//	# Validate rule maps without running them
//	archivist lint --rulemap rules.json --ruleseq sequence.json
//
//	# Inspect the deletion ledger
//	archivist ledger list
package main

func main() {
	Execute()
}
