// Package statcontext implements the StatisticalContext orchestrator from
// spec.md §4.6: a per-call, depth-gated, multi-timeframe enrichment layer
// built on top of DataProvider, IndicatorEngine, and RegimeEngine.
package statcontext

import (
	"github.com/sawpanic/regimescope/internal/regime"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// Depth is the enrichment depth level gated by timeframe size.
type Depth string

const (
	DepthLight  Depth = "light"
	DepthMedium Depth = "medium"
	DepthFull   Depth = "full"
)

// Slot names the three optional request slots, processed longest-first.
type Slot string

const (
	SlotLong   Slot = "long"
	SlotMedium Slot = "medium"
	SlotShort  Slot = "short"
)

// Request maps the optional long/medium/short slots to timeframe codes; at
// least one must be present.
type Request map[Slot]timeframe.Code

// PriceAction is the structure-only price-action summary.
type PriceAction struct {
	CurrentClose float64
	DailyChange  float64
	Structure    string // "up", "down", "neutral"
}

// MicroPattern is one detected short-horizon pattern (full depth only).
type MicroPattern struct {
	Pattern     string
	Confidence  float64
	Implication string
	Invalidation string
}

// CoherenceStatus is the EMA/MACD/PSAR/RSI agreement verdict.
type CoherenceStatus string

const (
	Coherent        CoherenceStatus = "coherent"
	Diverging       CoherenceStatus = "diverging"
	InsufficientData CoherenceStatus = "insufficient_data"
)

// Severity grades a coherence divergence.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// CoherenceCheck is the EMA-alignment-vs-MACD/PSAR/RSI cross-check.
type CoherenceCheck struct {
	Status      CoherenceStatus
	Divergences []string
	Severity    Severity
}

// MovingAverages is the always-on enricher.
type MovingAverages struct {
	EMAShort, EMALong float64
	Aligned           bool
}

// TrendIndicators is the always-on ADX summary, plus PSAR for medium/full.
type TrendIndicators struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
	PSAR    *float64
}

// MomentumIndicators is populated for medium/full depth.
type MomentumIndicators struct {
	RSI            float64
	MACD           float64
	MACDSignal     float64
	MACDHistogram  float64
}

// VolatilityIndicators is populated for medium/full depth.
type VolatilityIndicators struct {
	ATR     float64
	BBUpper float64
	BBMiddle float64
	BBLower float64
	BBWidth float64
}

// VolumeIndicators is populated for medium/full depth.
type VolumeIndicators struct {
	OBV    float64
	VWAP   float64
	Spike  bool
	Rising bool
}

// SupportResistance combines EMA levels, swing highs/lows, and regime range
// bounds, for medium/full depth.
type SupportResistance struct {
	EMAShort, EMALong float64
	SwingHigh, SwingLow float64
	RangeHigh, RangeLow *float64
}

// TimeframeContext is one timeframe's enrichment result, spec.md §3.
type TimeframeContext struct {
	Timeframe         timeframe.Code
	Depth             Depth
	BarsRequested     int
	BarsAnalyzed      int
	Regime            *regime.Result
	MovingAverages    MovingAverages
	TrendIndicators   TrendIndicators
	MomentumIndicators *MomentumIndicators
	VolatilityIndicators *VolatilityIndicators
	VolumeIndicators  *VolumeIndicators
	PriceAction       PriceAction
	SupportResistance *SupportResistance
	MicroPatterns     []MicroPattern
	CoherenceCheck    *CoherenceCheck
	Summary           string
}

// Result is the full multi-timeframe StatisticalContext output.
type Result struct {
	Contexts map[Slot]TimeframeContext
}
