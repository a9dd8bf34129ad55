package statcontext

import "github.com/sawpanic/regimescope/internal/model"

// detectMicroPatterns scans the last few closed bars for simple candlestick
// shapes, full depth only. This is intentionally shallow: a handful of
// well-known single/two-bar patterns rather than a full pattern library.
func detectMicroPatterns(series model.BarSeries) []MicroPattern {
	n := len(series)
	if n < 2 {
		return nil
	}
	var out []MicroPattern
	last := series[n-1]
	prev := series[n-2]

	if isBullishEngulfing(prev, last) {
		out = append(out, MicroPattern{
			Pattern: "bullish_engulfing", Confidence: 0.6,
			Implication:  "short-term reversal higher",
			Invalidation: "close below the engulfing bar's low",
		})
	}
	if isBearishEngulfing(prev, last) {
		out = append(out, MicroPattern{
			Pattern: "bearish_engulfing", Confidence: 0.6,
			Implication:  "short-term reversal lower",
			Invalidation: "close above the engulfing bar's high",
		})
	}
	if isDoji(last) {
		out = append(out, MicroPattern{
			Pattern: "doji", Confidence: 0.4,
			Implication: "indecision, watch for follow-through",
		})
	}
	if n >= 2 && isInsideBar(prev, last) {
		out = append(out, MicroPattern{
			Pattern: "inside_bar", Confidence: 0.45,
			Implication:  "compression, breakout likely on next range expansion",
			Invalidation: "close outside the mother bar's range",
		})
	}
	return out
}

func isBullishEngulfing(prev, last model.Bar) bool {
	return prev.Close < prev.Open && last.Close > last.Open &&
		last.Open <= prev.Close && last.Close >= prev.Open
}

func isBearishEngulfing(prev, last model.Bar) bool {
	return prev.Close > prev.Open && last.Close < last.Open &&
		last.Open >= prev.Close && last.Close <= prev.Open
}

func isDoji(b model.Bar) bool {
	rng := b.High - b.Low
	if rng <= 0 {
		return false
	}
	return abs(b.Close-b.Open)/rng < 0.1
}

func isInsideBar(prev, last model.Bar) bool {
	return last.High <= prev.High && last.Low >= prev.Low
}
