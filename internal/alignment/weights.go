package alignment

import "github.com/sawpanic/regimescope/internal/timeframe"

// weightTable is the fixed per-timeframe weight from spec.md §4.7. 1d is
// the anchor; 1w is weighted slightly lower to discourage over-reliance on
// sparse weekly data.
var weightTable = map[timeframe.Code]float64{
	"1m":  0.3,
	"5m":  0.5,
	"15m": 0.8,
	"30m": 1.0,
	"1h":  1.5,
	"4h":  2.0,
	"1d":  3.0,
	"1w":  2.5,
}

// highTFWeight is the weight threshold at or above which a signal is treated as
// a higher-timeframe anchor for conflict detection.
const highTFWeight = 2.0

// Weight returns the fixed weight for tf, or 0 for an undocumented
// timeframe (it still participates, but contributes nothing to any vote).
func Weight(tf timeframe.Code) float64 {
	return weightTable[tf]
}
