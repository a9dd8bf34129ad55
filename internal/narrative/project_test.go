package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/regimescope/internal/alignment"
	"github.com/sawpanic/regimescope/internal/regime"
	"github.com/sawpanic/regimescope/internal/statcontext"
)

func TestProject_PrunesEmptySections(t *testing.T) {
	full := statcontext.Result{Contexts: map[statcontext.Slot]statcontext.TimeframeContext{
		statcontext.SlotShort: {
			Timeframe: "1h", Depth: statcontext.DepthFull,
			Regime: &regime.Result{
				Regime: regime.TrendingBullish, Direction: regime.Bullish, Confidence: 0.75,
				Thresholds: regime.Thresholds{ADXWeak: 15, ADXTrending: 25, ADXStrong: 35},
				TrendPhase: regime.TrendPhase{Phase: regime.PhaseMature},
			},
			TrendIndicators: statcontext.TrendIndicators{ADX: 30},
			PriceAction:     statcontext.PriceAction{Structure: "up"},
		},
	}}
	align := alignment.Report{DominantDirection: regime.Bullish, AlignmentScore: 0.9}

	out := Project(full, align)
	require.Contains(t, out, "alignment")
	require.Contains(t, out, "timeframes")
	require.Contains(t, out, "narrative")

	alignMap := out["alignment"].(map[string]interface{})
	assert.Equal(t, "bullish", alignMap["direction"])
	assert.Equal(t, "strong", alignMap["strength"])
	assert.NotContains(t, alignMap, "conflicts")
}

func TestStrengthOf_ConflictingOnHighSeverity(t *testing.T) {
	align := alignment.Report{
		AlignmentScore: 0.9,
		Conflicts:      []alignment.Conflict{{Type: alignment.HighTFConflict, Severity: alignment.SeverityHigh}},
	}
	assert.Equal(t, StrengthConflicting, strengthOf(align))
}

func TestInterpretTrend_StrongAboveStrongThreshold(t *testing.T) {
	tc := statcontext.TimeframeContext{
		Regime: &regime.Result{Thresholds: regime.Thresholds{ADXWeak: 15, ADXTrending: 25, ADXStrong: 35}},
		TrendIndicators: statcontext.TrendIndicators{ADX: 40},
	}
	assert.Equal(t, "strong trend", interpretTrend(tc))
}

func TestInterpretMomentum_Overbought(t *testing.T) {
	m := statcontext.MomentumIndicators{RSI: 75, MACDHistogram: 0.1}
	assert.Equal(t, "overbought, bullish momentum", interpretMomentum(m))
}

func TestWatchForString_NeutralDirectionFallback(t *testing.T) {
	full := statcontext.Result{Contexts: map[statcontext.Slot]statcontext.TimeframeContext{}}
	align := alignment.Report{DominantDirection: regime.Neutral}
	assert.Contains(t, watchForString(full, align), "no clear directional edge")
}
