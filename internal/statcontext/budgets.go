package statcontext

import "github.com/sawpanic/regimescope/internal/timeframe"

// barBudgets is the fixed per-timeframe bar count StatisticalContext
// requests for a timeframe, spec.md §4.6.
var barBudgets = map[timeframe.Code]int{
	"5m":  300,
	"15m": 300,
	"30m": 250,
	"1h":  250,
	"4h":  200,
	"1d":  150,
	"1w":  100,
	"1M":  60,
}

const defaultBarBudget = 200

// barBudget returns the fixed bar count a timeframe is analyzed over.
func barBudget(tf timeframe.Code) int {
	if n, ok := barBudgets[tf]; ok {
		return n
	}
	return defaultBarBudget
}

// depthFor gates enrichment depth by timeframe size, spec.md §4.6:
// >=1440 minutes (1d+) is light, [240,1440) is medium, <240 is full.
func depthFor(tf timeframe.Code) Depth {
	minutes := tf.ToMinutes()
	switch {
	case minutes >= 1440:
		return DepthLight
	case minutes >= 240:
		return DepthMedium
	default:
		return DepthFull
	}
}
