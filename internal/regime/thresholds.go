package regime

import (
	"math"
	"sort"

	"github.com/sawpanic/regimescope/internal/timeframe"
)

// Base (1h-equivalent) threshold boundaries before timeframe/volatility
// rescaling, per spec.md §4.5 Step A.
const (
	baseADXWeak     = 20.0
	baseADXTrending = 25.0
	baseADXStrong   = 35.0
	baseERChoppy    = 0.3
	baseERTrending  = 0.5
	baseATRRatioLow  = 0.7
	baseATRRatioHigh = 1.3
)

// volatility multiplier clamp, spec.md §6 regime-engine adaptive config.
const (
	minVolatilityMultiplier = 0.7
	maxVolatilityMultiplier = 1.5
)

// adaptiveVolatilityWindow is the default lookback used to build the
// ATR-ratio distribution Step A compares the current ratio against.
const adaptiveVolatilityWindow = 100

// adxVolatilityCap bounds how much the volatility multiplier alone can push
// the ADX thresholds, per spec.md §4.5 Step A.
const adxVolatilityCap = 1.2

// volatility multiplier formula variants, spec.md §4.5 Step A / SPEC_FULL.md
// §7.1's Open Question resolution. v2 is the compiled-in default.
const (
	volatilityFormulaV1      = "v1"
	volatilityFormulaV2      = "v2"
	defaultVolatilityFormula = volatilityFormulaV2
)

// adaptiveThresholds computes Step A. Three distinct combined multipliers
// are derived from the same timeframe/volatility pair: ADX uses the
// timeframe multiplier times a volatility multiplier capped at 1.2x, ER is
// nudged only by the timeframe multiplier, and the ATR-ratio bands scale
// inversely with the square root of the volatility multiplier.
func adaptiveThresholds(tf timeframe.Code, atrRatioSeries []float64, adaptive AdaptiveConfig) Thresholds {
	tfMult := timeframe.Multiplier(tf)

	volMult := 1.0
	if adaptive.Enabled {
		volMult = volatilityMultiplier(atrRatioSeries, adaptive.Volatility)
	}

	adxMult := tfMult * clampMax(volMult, adxVolatilityCap)
	erMult := 0.8 + 0.2*tfMult
	atrMult := 1.0 / math.Sqrt(volMult)

	return Thresholds{
		ADXWeak:      clamp(baseADXWeak*adxMult, 10, 35),
		ADXTrending:  clamp(baseADXTrending*adxMult, 15, 35),
		ADXStrong:    clamp(baseADXStrong*adxMult, 25, 50),
		ERChoppy:     clamp(baseERChoppy*erMult, 0.1, 0.5),
		ERTrending:   clamp(baseERTrending*erMult, 0.3, 0.8),
		ATRRatioLow:  clampMin(baseATRRatioLow*atrMult, 0.3),
		ATRRatioHigh: clampMin(baseATRRatioHigh*atrMult, 1.0),
		VolatilityMultiplier: volMult,
	}
}

// volatilityMultiplier compares the most recent ATR ratio to the median of
// the trailing window, then maps that ratio onto [cfg.MinMultiplier,
// cfg.MaxMultiplier] via cfg.Formula (spec.md §4.5 Step A): a current ratio
// well above its own history widens the bands (more tolerance), well below
// tightens them.
func volatilityMultiplier(series []float64, cfg VolatilityConfig) float64 {
	n := len(series)
	if n == 0 {
		return 1.0
	}
	window := adaptiveVolatilityWindow
	if window > n {
		window = n
	}
	if window < 20 {
		return 1.0
	}
	sample := series[n-window:]
	med := median(sample)
	if med <= 0 {
		return 1.0
	}
	current := series[n-1]
	ratio := current / med

	var mult float64
	switch cfg.Formula {
	case volatilityFormulaV1:
		mult = 0.5 + ratio*0.5
	default:
		mult = 0.7 + ratio*0.6
	}

	lo, hi := cfg.MinMultiplier, cfg.MaxMultiplier
	if lo == 0 && hi == 0 {
		lo, hi = minVolatilityMultiplier, maxVolatilityMultiplier
	}
	return clamp(mult, lo, hi)
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func clampMin(v, lo float64) float64 {
	if v < lo {
		return lo
	}
	return v
}

func clampMax(v, hi float64) float64 {
	if v > hi {
		return hi
	}
	return v
}
