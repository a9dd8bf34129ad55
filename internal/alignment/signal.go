package alignment

import (
	"github.com/sawpanic/regimescope/internal/regime"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// SignalFromRegime builds an alignment Signal from one timeframe's
// RegimeEngine result. Direction is always taken from the regime's own
// direction component — for range regimes this is exactly "the regime's
// direction component if present" spec.md §4.7 asks for, since
// RegimeEngine.Detect populates Direction for every regime class.
func SignalFromRegime(tf timeframe.Code, res regime.Result) Signal {
	return Signal{
		Timeframe:   tf,
		RegimeClass: res.Class(),
		Direction:   res.Direction,
		Confidence:  res.Confidence,
		Weight:      Weight(tf),
	}
}
