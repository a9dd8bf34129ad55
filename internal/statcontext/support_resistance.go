package statcontext

import (
	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/regime"
)

const swingWindow = 20

// supportResistance blends EMA levels, a simple recent swing high/low, and
// the regime engine's range bounds (when the regime classified as
// range-bound) into one combined view for medium/full depth.
func supportResistance(series model.BarSeries, ma MovingAverages, res *regime.Result) SupportResistance {
	n := len(series)
	window := swingWindow
	if window > n {
		window = n
	}
	var high, low float64
	if window > 0 {
		slice := series[n-window:]
		high, low = slice[0].High, slice[0].Low
		for _, b := range slice {
			if b.High > high {
				high = b.High
			}
			if b.Low < low {
				low = b.Low
			}
		}
	}

	out := SupportResistance{
		EMAShort: ma.EMAShort, EMALong: ma.EMALong,
		SwingHigh: round(high, 8), SwingLow: round(low, 8),
	}
	if res != nil && res.RangeBounds != nil {
		rh, rl := res.RangeBounds.High, res.RangeBounds.Low
		out.RangeHigh = &rh
		out.RangeLow = &rl
	}
	return out
}
