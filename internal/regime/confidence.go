package regime

import "math"

// Step H weights, spec.md §4.5.
const (
	weightRegimeClarity  = 0.35
	weightCoherence      = 0.25
	weightDirectionScore = 0.2
	weightERScore        = 0.2
)

// phaseBonus rewards a trending-nascent regime and penalizes a
// trending-exhausted one; every other combination is neutral.
func phaseBonus(phase Phase, class Class) float64 {
	if class != ClassTrending {
		return 0
	}
	switch phase {
	case PhaseNascent:
		return 0.1
	case PhaseExhausted:
		return -0.1
	default:
		return 0
	}
}

// regimeClarity evaluates Step H's first sub-score: for trending/breakout,
// how far ADX sits among {weak, trending, strong}; for range, the inverse
// (lower ADX is clearer), except range_directional — which only exists at
// adx ≥ trending by construction — always scores 0.7.
func regimeClarity(label Label, class Class, adx float64, t Thresholds) float64 {
	if label == RangeDirectional {
		return 0.7
	}
	switch class {
	case ClassTrending, ClassBreakout:
		switch {
		case adx >= t.ADXStrong:
			return 1.0
		case adx >= t.ADXTrending:
			span := t.ADXStrong - t.ADXTrending
			if span <= 0 {
				return 0.5
			}
			return 0.5 + 0.5*(adx-t.ADXTrending)/span
		case adx >= t.ADXWeak:
			span := t.ADXTrending - t.ADXWeak
			if span <= 0 {
				return 0.5
			}
			return 0.5 * (adx - t.ADXWeak) / span
		default:
			return 0
		}
	default:
		if t.ADXWeak <= 0 {
			return 0.5
		}
		return clamp(1-adx/t.ADXWeak, 0, 1)
	}
}

// erScore evaluates Step H's second sub-score. Trending rewards higher ER
// linearly from er.trending up to max(0.7, er.trending+0.2); range rewards
// lower ER with the mirrored interpolation down from er.choppy; breakout is
// permissive, peaking near the midpoint of the choppy/trending band.
func erScore(class Class, er float64, t Thresholds) float64 {
	switch class {
	case ClassTrending:
		upper := math.Max(0.7, t.ERTrending+0.2)
		span := upper - t.ERTrending
		if span <= 0 {
			return 0.5
		}
		return clamp((er-t.ERTrending)/span, 0, 1)
	case ClassBreakout:
		mid := (t.ERChoppy + t.ERTrending) / 2
		span := t.ERTrending - t.ERChoppy
		if span <= 0 {
			return 0.5
		}
		return clamp(1-abs(er-mid)/(span/2), 0, 1)
	default:
		if t.ERChoppy <= 0 {
			return 0.5
		}
		return clamp((t.ERChoppy-er)/t.ERChoppy, 0, 1)
	}
}

// directionScore is a step function of |directionStrength|.
func directionScore(dir DirectionInfo) float64 {
	mag := abs(dir.Strength)
	switch {
	case mag >= 1.5:
		return 1.0
	case mag >= 1.0:
		return 0.8
	case mag >= 0.5:
		return 0.5
	case mag > 0:
		return 0.2
	default:
		return 0.0
	}
}

// coherenceScore is the fraction of a regime's Step I rule-set conditions
// that hold.
func coherenceScore(checks []bool) float64 {
	if len(checks) == 0 {
		return 1.0
	}
	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return float64(passed) / float64(len(checks))
}

// confidence evaluates Step H's final weighted formula.
func confidence(details ScoringDetails) float64 {
	score := weightRegimeClarity*details.RegimeClarity +
		weightERScore*details.ERScore +
		weightDirectionScore*details.DirectionScore +
		weightCoherence*details.Coherence +
		details.PhaseBonus
	return round(clamp(score, 0, 1), 2)
}
