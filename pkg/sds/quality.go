package sds

// Quality is the discrete lifecycle stage marker of an archived file.
// The set is closed: anything outside it is rejected at parse time.
type Quality string

const (
	// QualityRaw marks raw data as delivered by the acquisition chain.
	QualityRaw Quality = "D"

	// QualityPruned marks the quality-controlled derivative produced by
	// boundary pruning and overlap removal.
	QualityPruned Quality = "Q"

	// QualityRawTelemetry and QualityModified mark data of unknown
	// provenance that may be removed from the temporary archive once
	// inspected.
	QualityRawTelemetry Quality = "R"
	QualityModified     Quality = "M"
	QualityTemporary    Quality = "T"
)

// knownQualities is the closed enumeration accepted by ParseFilename.
var knownQualities = map[Quality]bool{
	QualityRaw:          true,
	QualityPruned:       true,
	QualityRawTelemetry: true,
	QualityModified:     true,
	QualityTemporary:    true,
}

// Valid reports whether q is a member of the closed quality set.
func (q Quality) Valid() bool {
	return knownQualities[q]
}

// IsRaw reports whether q marks unprocessed archive data.
func (q Quality) IsRaw() bool {
	return q == QualityRaw
}

// IsPruned reports whether q marks a quality-controlled derivative.
func (q Quality) IsPruned() bool {
	return q == QualityPruned
}

// IsRemovable reports whether q marks data of unknown provenance that is
// eligible for quarantine or removal.
func (q Quality) IsRemovable() bool {
	return q == QualityRawTelemetry || q == QualityModified || q == QualityTemporary
}

// CanTransition reports whether a file may move from quality q to next.
// Transitions are monotonic and one-directional: raw data may be pruned,
// nothing ever moves back. A no-op transition is always allowed.
func (q Quality) CanTransition(next Quality) bool {
	if q == next {
		return true
	}
	return q == QualityRaw && next == QualityPruned
}

func (q Quality) String() string {
	return string(q)
}
