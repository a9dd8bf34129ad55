package regime

import (
	"gonum.org/v1/gonum/stat"
)

// adxSlopePeriod and threshold match the RegimeEngine config defaults from
// spec.md §6.
const (
	adxSlopePeriod    = 5
	adxSlopeThreshold = 0.02
)

// trendPhase evaluates Step B: a simple linear regression of the last
// adxSlopePeriod ADX values against bar index, normalized by their mean so
// the slope is comparable across symbols/timeframes regardless of absolute
// ADX level.
func trendPhase(adxSeries []float64) TrendPhase {
	n := len(adxSeries)
	if n < adxSlopePeriod {
		return TrendPhase{Phase: PhaseUnknown}
	}
	window := adxSeries[n-adxSlopePeriod:]

	xs := make([]float64, adxSlopePeriod)
	for i := range xs {
		xs[i] = float64(i)
	}

	mean := stat.Mean(window, nil)
	if mean == 0 {
		return TrendPhase{Phase: PhaseUnknown}
	}

	_, slope := stat.LinearRegression(xs, window, nil, false)
	normalized := slope / mean

	phase := PhaseUnknown
	switch {
	case normalized > adxSlopeThreshold:
		phase = PhaseNascent
	case normalized < -adxSlopeThreshold:
		phase = PhaseExhausted
	default:
		phase = PhaseMature
	}
	return TrendPhase{ADXSlope: normalized, Phase: phase}
}
