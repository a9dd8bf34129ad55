package alignment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/regimescope/internal/regime"
)

func sig(tf string, weight float64, dir regime.Direction, conf float64) Signal {
	return Signal{Timeframe: "x", RegimeClass: regime.ClassTrending, Direction: dir, Confidence: conf, Weight: weight}
}

func TestAggregate_AllBullish_HighScore(t *testing.T) {
	signals := []Signal{
		sig("1h", 1.5, regime.Bullish, 0.8),
		sig("4h", 2.0, regime.Bullish, 0.9),
		sig("1d", 3.0, regime.Bullish, 0.85),
	}
	report := Aggregate(signals)
	assert.Equal(t, regime.Bullish, report.DominantDirection)
	assert.Greater(t, report.AlignmentScore, 0.8)
	assert.Empty(t, report.Conflicts)
	assert.Equal(t, QualityExcellent, report.Quality)
}

func TestAggregate_AllZeroConfidence_IsNeutral(t *testing.T) {
	signals := []Signal{sig("1h", 1.5, regime.Bullish, 0), sig("4h", 2.0, regime.Bearish, 0)}
	report := Aggregate(signals)
	assert.Equal(t, regime.Neutral, report.DominantDirection)
	assert.Equal(t, 0.0, report.AlignmentScore)
}

func TestAggregate_HighTFConflict_IsPoorQuality(t *testing.T) {
	signals := []Signal{
		sig("4h", 2.0, regime.Bullish, 0.9),
		sig("1d", 3.0, regime.Bearish, 0.9),
	}
	report := Aggregate(signals)
	assert.Len(t, report.Conflicts, 1)
	assert.Equal(t, HighTFConflict, report.Conflicts[0].Type)
	assert.Equal(t, SeverityHigh, report.Conflicts[0].Severity)
	assert.Equal(t, QualityPoor, report.Quality)
}

func TestAggregate_DirectionalConflict_ModerateWithTwoEachSide(t *testing.T) {
	signals := []Signal{
		sig("1m", 0.3, regime.Bullish, 0.7),
		sig("5m", 0.5, regime.Bullish, 0.7),
		sig("15m", 0.8, regime.Bearish, 0.7),
		sig("30m", 1.0, regime.Bearish, 0.7),
	}
	report := Aggregate(signals)
	var found bool
	for _, c := range report.Conflicts {
		if c.Type == DirectionalConflict {
			found = true
			assert.Equal(t, SeverityModerate, c.Severity)
		}
	}
	assert.True(t, found)
}

func TestAggregate_HTFLTFDivergence(t *testing.T) {
	signals := []Signal{
		sig("1d", 3.0, regime.Bullish, 0.9),
		sig("15m", 0.8, regime.Bearish, 0.6),
	}
	report := Aggregate(signals)
	var found bool
	for _, c := range report.Conflicts {
		if c.Type == HTFLTFDivergence {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAggregate_S7Scenario_MatchesDocumentedScore(t *testing.T) {
	signals := []Signal{
		sig("1d", 3.0, regime.Bullish, 0.8),
		sig("4h", 2.0, regime.Bearish, 0.7),
		sig("1h", 1.5, regime.Bearish, 0.6),
	}
	report := Aggregate(signals)
	assert.Equal(t, regime.Bullish, report.DominantDirection)
	assert.InDelta(t, 0.51, report.AlignmentScore, 0.01)
	assert.Len(t, report.Conflicts, 1)
	assert.Equal(t, HighTFConflict, report.Conflicts[0].Type)
	assert.Equal(t, SeverityHigh, report.Conflicts[0].Severity)
	assert.Equal(t, QualityPoor, report.Quality)
}

func TestAggregate_AddingAgreeingSignal_ScoreIsMonotonicallyNonDecreasing(t *testing.T) {
	before := Aggregate([]Signal{
		sig("1d", 3.0, regime.Bullish, 0.8),
		sig("4h", 2.0, regime.Bearish, 0.7),
	})
	after := Aggregate([]Signal{
		sig("1d", 3.0, regime.Bullish, 0.8),
		sig("4h", 2.0, regime.Bearish, 0.7),
		sig("1h", 1.5, regime.Bullish, 0.6),
	})
	assert.GreaterOrEqual(t, after.AlignmentScore, before.AlignmentScore)
}

func TestSignalFromRegime_PopulatesWeightAndClass(t *testing.T) {
	res := regime.Result{Regime: regime.TrendingBullish, Direction: regime.Bullish, Confidence: 0.7}
	s := SignalFromRegime("1h", res)
	assert.Equal(t, regime.ClassTrending, s.RegimeClass)
	assert.Equal(t, 1.5, s.Weight)
	assert.Equal(t, regime.Bullish, s.Direction)
}
