package narrative

import (
	"fmt"

	"github.com/sawpanic/regimescope/internal/alignment"
	"github.com/sawpanic/regimescope/internal/regime"
	"github.com/sawpanic/regimescope/internal/statcontext"
)

// Project is the NarrativeProjector's pure transform, spec.md §4.8.
func Project(full statcontext.Result, align alignment.Report) map[string]interface{} {
	report := map[string]interface{}{
		"alignment":  projectAlignment(align),
		"timeframes": projectTimeframes(full),
		"narrative":  projectNarrative(full, align),
	}
	pruned := prune(report)
	if pruned == nil {
		return map[string]interface{}{}
	}
	return pruned.(map[string]interface{})
}

func projectAlignment(align alignment.Report) map[string]interface{} {
	m := map[string]interface{}{
		"direction": string(align.DominantDirection),
		"strength":  string(strengthOf(align)),
		"score":     align.AlignmentScore,
	}
	if len(align.Conflicts) > 0 {
		conflicts := make([]interface{}, len(align.Conflicts))
		for i, c := range align.Conflicts {
			conflicts[i] = fmt.Sprintf("%s (%s)", c.Type, c.Severity)
		}
		m["conflicts"] = conflicts
	}
	return m
}

func strengthOf(align alignment.Report) Strength {
	for _, c := range align.Conflicts {
		if c.Severity == alignment.SeverityHigh {
			return StrengthConflicting
		}
	}
	switch {
	case align.AlignmentScore >= 0.8:
		return StrengthStrong
	case align.AlignmentScore >= 0.5:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

func projectTimeframes(full statcontext.Result) map[string]interface{} {
	out := make(map[string]interface{}, len(full.Contexts))
	for slot, tc := range full.Contexts {
		out[string(slot)] = projectTimeframe(tc)
	}
	return out
}

func projectTimeframe(tc statcontext.TimeframeContext) map[string]interface{} {
	m := map[string]interface{}{
		"timeframe":     string(tc.Timeframe),
		"depth":         string(tc.Depth),
		"trend":         interpretTrend(tc),
		"price_action":  tc.PriceAction.Structure,
	}
	if tc.Regime != nil {
		m["regime"] = string(tc.Regime.Regime)
		m["direction"] = string(tc.Regime.Direction)
		m["confidence"] = tc.Regime.Confidence
	}
	if tc.MomentumIndicators != nil {
		m["momentum"] = interpretMomentum(*tc.MomentumIndicators)
	}
	if tc.VolatilityIndicators != nil {
		m["volatility"] = interpretVolatility(*tc.VolatilityIndicators)
	}
	if tc.VolumeIndicators != nil {
		m["volume"] = interpretVolume(*tc.VolumeIndicators)
	}
	if tc.SupportResistance != nil {
		m["key_level"] = fmt.Sprintf("support %.2f / resistance %.2f", tc.SupportResistance.SwingLow, tc.SupportResistance.SwingHigh)
	}
	if len(tc.MicroPatterns) > 0 {
		patterns := make([]interface{}, len(tc.MicroPatterns))
		for i, p := range tc.MicroPatterns {
			patterns[i] = p.Pattern
		}
		m["micro_patterns"] = patterns
	}
	if tc.CoherenceCheck != nil {
		m["coherence"] = string(tc.CoherenceCheck.Status)
	}
	return m
}

func interpretTrend(tc statcontext.TimeframeContext) string {
	if tc.Regime == nil {
		return ""
	}
	adx := tc.TrendIndicators.ADX
	th := tc.Regime.Thresholds
	switch {
	case adx >= th.ADXStrong:
		return "strong trend"
	case adx >= th.ADXTrending:
		return "trending"
	case adx >= th.ADXWeak:
		return "developing"
	default:
		return "weak/range"
	}
}

func interpretMomentum(m statcontext.MomentumIndicators) string {
	state := "neutral"
	switch {
	case m.RSI >= 70:
		state = "overbought"
	case m.RSI <= 30:
		state = "oversold"
	}
	if m.MACDHistogram > 0 {
		return state + ", bullish momentum"
	}
	if m.MACDHistogram < 0 {
		return state + ", bearish momentum"
	}
	return state
}

func interpretVolatility(v statcontext.VolatilityIndicators) string {
	if v.BBWidth >= 0.08 {
		return "expanded"
	}
	return "contracted"
}

func interpretVolume(v statcontext.VolumeIndicators) string {
	switch {
	case v.Spike && v.Rising:
		return "spiking and rising"
	case v.Spike:
		return "spiking"
	case v.Rising:
		return "rising"
	default:
		return "normal"
	}
}

func projectNarrative(full statcontext.Result, align alignment.Report) map[string]interface{} {
	longest := dominantTimeframe(full)

	marketState := ""
	if longest != nil && longest.Regime != nil {
		marketState = fmt.Sprintf("%s is %s (%s), confidence %.2f",
			longest.Timeframe, longest.Regime.Regime, longest.Regime.Direction, longest.Regime.Confidence)
	}

	crossTimeframe := fmt.Sprintf("dominant direction %s, alignment score %.2f", align.DominantDirection, align.AlignmentScore)
	if len(align.Conflicts) > 0 {
		crossTimeframe += fmt.Sprintf(", %d conflict(s) detected", len(align.Conflicts))
	}

	momentumPhase := ""
	if longest != nil && longest.Regime != nil {
		momentumPhase = fmt.Sprintf("trend phase: %s", longest.Regime.TrendPhase.Phase)
	}

	keyLevels := ""
	for _, tc := range full.Contexts {
		if tc.SupportResistance != nil {
			keyLevels = fmt.Sprintf("support %.2f / resistance %.2f (%s)", tc.SupportResistance.SwingLow, tc.SupportResistance.SwingHigh, tc.Timeframe)
			break
		}
	}

	watchFor := watchForString(full, align)

	return map[string]interface{}{
		"market_state":    marketState,
		"cross_timeframe": crossTimeframe,
		"momentum_phase":  momentumPhase,
		"key_levels":      keyLevels,
		"watch_for":       watchFor,
	}
}

// dominantTimeframe picks the longest-duration timeframe context present,
// used as the anchor for the headline narrative lines.
func dominantTimeframe(full statcontext.Result) *statcontext.TimeframeContext {
	var best *statcontext.TimeframeContext
	for slot := range full.Contexts {
		tc := full.Contexts[slot]
		if best == nil || tc.Timeframe.ToMillis() > best.Timeframe.ToMillis() {
			t := tc
			best = &t
		}
	}
	return best
}

func watchForString(full statcontext.Result, align alignment.Report) string {
	for _, c := range align.Conflicts {
		if c.Severity == alignment.SeverityHigh {
			return "high-timeframe conflict — wait for resolution before committing"
		}
	}
	for _, tc := range full.Contexts {
		if tc.CoherenceCheck != nil && tc.CoherenceCheck.Status == statcontext.Diverging && tc.CoherenceCheck.Severity == statcontext.SeverityHigh {
			return fmt.Sprintf("%s indicators diverging from EMA alignment", tc.Timeframe)
		}
	}
	if align.DominantDirection == regime.Neutral {
		return "no clear directional edge, avoid forcing a trade"
	}
	return ""
}
