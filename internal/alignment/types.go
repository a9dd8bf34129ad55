// Package alignment implements the AlignmentAggregator from spec.md §4.7:
// weighted cross-timeframe direction voting, conflict detection, and a
// quality grade.
package alignment

import (
	"github.com/sawpanic/regimescope/internal/regime"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// Signal is one timeframe's contribution to the cross-timeframe vote.
type Signal struct {
	Timeframe   timeframe.Code
	RegimeClass regime.Class
	Direction   regime.Direction
	Confidence  float64
	Weight      float64
}

// ConflictType names a detected disagreement kind.
type ConflictType string

const (
	HighTFConflict    ConflictType = "high_tf_conflict"
	DirectionalConflict ConflictType = "directional_conflict"
	HTFLTFDivergence  ConflictType = "htf_ltf_divergence"
)

// Severity grades a conflict.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Conflict is one detected cross-timeframe disagreement.
type Conflict struct {
	Type     ConflictType
	Severity Severity
}

// Quality grades the overall alignment report.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

// Report is the AlignmentAggregator's output, spec.md §3.
type Report struct {
	Signals           []Signal
	AlignmentScore    float64
	DominantDirection regime.Direction
	WeightedScores    map[regime.Direction]float64
	Conflicts         []Conflict
	Quality           Quality
}
