package regime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/regimescope/internal/indicator"
	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

func TestAdaptiveThresholds_Monotonic(t *testing.T) {
	th := adaptiveThresholds("1h", flatRatioSeries(30, 1.0), AdaptiveConfig{Enabled: false})
	assert.Less(t, th.ADXWeak, th.ADXTrending)
	assert.Less(t, th.ADXTrending, th.ADXStrong)
	assert.Less(t, th.ERChoppy, th.ERTrending)
	assert.Less(t, th.ATRRatioLow, th.ATRRatioHigh)
}

func TestAdaptiveThresholds_DisabledVolatility_UsesUnitMultiplier(t *testing.T) {
	th := adaptiveThresholds("1h", nil, AdaptiveConfig{Enabled: false})
	assert.Equal(t, 1.0, th.VolatilityMultiplier)
}

func TestVolatilityMultiplier_V1FormulaMapsRatioLinearly(t *testing.T) {
	series := make([]float64, 99)
	for i := range series {
		series[i] = 1.0
	}
	series = append(series, 1.5) // current/median ratio = 1.5
	cfg := VolatilityConfig{MinMultiplier: 0.5, MaxMultiplier: 2.0, Formula: volatilityFormulaV1}
	mult := volatilityMultiplier(series, cfg)
	assert.InDelta(t, 0.5+1.5*0.5, mult, 1e-9)
}

func TestVolatilityMultiplier_V2FormulaIsDefault(t *testing.T) {
	series := make([]float64, 99)
	for i := range series {
		series[i] = 1.0
	}
	series = append(series, 1.5)
	cfg := VolatilityConfig{MinMultiplier: 0.5, MaxMultiplier: 2.0}
	mult := volatilityMultiplier(series, cfg)
	assert.InDelta(t, 0.7+1.5*0.6, mult, 1e-9)
}

func TestVolatilityMultiplier_ClampsToConfiguredRange(t *testing.T) {
	series := make([]float64, 99)
	for i := range series {
		series[i] = 1.0
	}
	series = append(series, 10.0) // large ratio, formula output exceeds max
	cfg := VolatilityConfig{MinMultiplier: 0.7, MaxMultiplier: 1.5, Formula: volatilityFormulaV2}
	mult := volatilityMultiplier(series, cfg)
	assert.Equal(t, 1.5, mult)
}

func TestTrendPhase_RisingADX_IsNascent(t *testing.T) {
	series := []float64{10, 12, 14, 16, 20}
	tp := trendPhase(series)
	assert.Equal(t, PhaseNascent, tp.Phase)
}

func TestTrendPhase_DecliningADX_IsExhausted(t *testing.T) {
	series := []float64{30, 26, 22, 18, 14}
	tp := trendPhase(series)
	assert.Equal(t, PhaseExhausted, tp.Phase)
}

func TestTrendPhase_InsufficientData_IsUnknown(t *testing.T) {
	tp := trendPhase([]float64{10, 12})
	assert.Equal(t, PhaseUnknown, tp.Phase)
}

func TestPriorCompression_MajorityBelowThreshold(t *testing.T) {
	series := make([]float64, 10)
	for i := range series {
		series[i] = 0.5
	}
	c := priorCompression(series, 0.7)
	assert.True(t, c.Compressed)
	assert.Equal(t, 1.0, c.Ratio)
}

func TestDirection_BullishOrdering(t *testing.T) {
	d := direction(110, 105, 100, 30, 15, 5)
	assert.Equal(t, Bullish, d.Direction)
}

func TestDirection_DIOverrideDowngradesToNeutral(t *testing.T) {
	d := direction(110, 105, 100, 10, 25, 5)
	assert.Equal(t, Neutral, d.Direction)
}

func TestDirection_MixedOrdering_IsNeutral(t *testing.T) {
	d := direction(95, 105, 100, 20, 20, 5)
	assert.Equal(t, Neutral, d.Direction)
}

func TestClassify_BreakoutRequiresExpansionAndTrendStrength(t *testing.T) {
	th := Thresholds{ADXTrending: 25, ATRRatioHigh: 1.3}
	label := classify(classifyInputs{
		ADX: 30, ATRRatio: 1.5, Direction: DirectionInfo{Direction: Bullish}, Thresholds: th,
	})
	assert.Equal(t, BreakoutBullish, label)
}

func TestClassify_TrendingRequiresADXAndER(t *testing.T) {
	th := Thresholds{ADXTrending: 25, ERTrending: 0.5, ATRRatioHigh: 1.3}
	label := classify(classifyInputs{
		ADX: 28, ER: 0.6, ATRRatio: 1.0, Direction: DirectionInfo{Direction: Bearish}, Thresholds: th,
	})
	assert.Equal(t, TrendingBearish, label)
}

func TestClassify_RangeSubtypes(t *testing.T) {
	th := Thresholds{ADXTrending: 25, ERTrending: 0.5, ATRRatioLow: 0.7, ATRRatioHigh: 1.3}

	assert.Equal(t, RangeLowVol, classify(classifyInputs{ADX: 10, ATRRatio: 0.5, Thresholds: th}))
	assert.Equal(t, RangeHighVol, classify(classifyInputs{ADX: 10, ATRRatio: 1.5, Thresholds: th}))
	assert.Equal(t, RangeNormal, classify(classifyInputs{ADX: 10, ATRRatio: 1.0, Thresholds: th}))
	assert.Equal(t, RangeDirectional, classify(classifyInputs{ADX: 26, ER: 0.2, ATRRatio: 1.0, Thresholds: th}))
}

func TestBreakoutQuality_AdditiveScoring(t *testing.T) {
	bq := breakoutQuality(true, true, Compression{Compressed: true}, TrendPhase{Phase: PhaseNascent}, DirectionInfo{Direction: Bullish, Strength: 1.5})
	assert.Equal(t, scoreVolumeConfirmed+scorePriorCompression+scoreTrendNascent+scoreClearDirection, bq.Score)
	assert.Equal(t, GradeHigh, bq.Grade)
}

func TestBreakoutQuality_LowScore_GradesLow(t *testing.T) {
	bq := breakoutQuality(false, false, Compression{}, TrendPhase{Phase: PhaseUnknown}, DirectionInfo{Direction: Neutral})
	assert.Equal(t, 0, bq.Score)
	assert.Equal(t, GradeLow, bq.Grade)
}

func TestRangeBounds_FallsBackToMinMax_WhenNoSwings(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i], lows[i], closes[i] = 105, 95, 100
	}
	// The 10-point bar range stays under 0.3·atrShort, so no bar is a swing.
	rb := rangeBounds(highs, lows, closes, 50.0)
	assert.Equal(t, "minmax_fallback", rb.Method)
	assert.Equal(t, 105.0, rb.High)
	assert.Equal(t, 95.0, rb.Low)
}

func TestRangeBounds_DetectsSwingClusters(t *testing.T) {
	highs, lows, closes := sawtoothSeries(40)
	rb := rangeBounds(highs, lows, closes, 1.0)
	assert.Equal(t, "swing_clusters", rb.Method)
	assert.Greater(t, rb.High, rb.Low)
}

func TestConfidence_ZeroInputs_IsZero(t *testing.T) {
	c := confidence(ScoringDetails{})
	assert.Equal(t, 0.0, c)
}

func TestConfidence_IsBoundedZeroToOne(t *testing.T) {
	c := confidence(ScoringDetails{RegimeClarity: 1, ERScore: 1, DirectionScore: 1, Coherence: 1, PhaseBonus: 0.1})
	assert.LessOrEqual(t, c, 1.0)
	assert.GreaterOrEqual(t, c, 0.0)
}

func TestCoherenceChecks_TrendingBullish(t *testing.T) {
	th := Thresholds{ADXTrending: 25, ERTrending: 0.5}
	checks := coherenceChecks(TrendingBullish, coherenceInputs{ADX: 30, ER: 0.6, Direction: Bullish, Thresholds: th})
	require.Len(t, checks, 3)
	for _, ok := range checks {
		assert.True(t, ok)
	}
}

func TestCoherenceChecks_BreakoutNeutral_NoVolumeDataStillPasses(t *testing.T) {
	th := Thresholds{ADXTrending: 25, ATRRatioHigh: 1.3}
	checks := coherenceChecks(BreakoutNeutral, coherenceInputs{
		ADX: 30, ATRRatio: 1.5, Direction: Neutral, HasVolumeData: false, Thresholds: th,
	})
	assert.Equal(t, 1.0, coherenceScore(checks))
}

// --- ReferenceDetector.Detect integration coverage ---

type fakeIndicatorEngine struct {
	bars model.BarSeries
}

func (f fakeIndicatorEngine) GetSeries(_ context.Context, _ string, name string, _ timeframe.Code, bars int, _ *int64, cfg indicator.Config) (indicator.Series, error) {
	closes := f.bars.Closes()
	if bars > len(closes) {
		bars = len(closes)
	}
	closes = closes[len(closes)-bars:]

	switch name {
	case "adx":
		data := make([]indicator.Point, len(closes))
		for i := range data {
			data[i] = indicator.Point{Values: map[string]float64{"adx": 30, "plusDI": 25, "minusDI": 10}}
		}
		return indicator.Series{Indicator: name, Data: data}, nil
	case "atr":
		period := 14
		if p, ok := cfg["period"].(int); ok {
			period = p
		}
		val := 1.0
		if period > 40 {
			val = 2.0
		}
		data := make([]indicator.Point, len(closes))
		for i := range data {
			v := val
			data[i] = indicator.Point{Value: &v}
		}
		return indicator.Series{Indicator: name, Data: data}, nil
	case "ema":
		offset := 0.5
		if p, ok := cfg["period"].(int); ok && p > 20 {
			offset = 1.5
		}
		data := make([]indicator.Point, len(closes))
		for i, c := range closes {
			v := c - offset
			data[i] = indicator.Point{Value: &v}
		}
		return indicator.Series{Indicator: name, Data: data}, nil
	case "er":
		data := make([]indicator.Point, len(closes))
		for i := range data {
			v := 0.8
			data[i] = indicator.Point{Value: &v}
		}
		return indicator.Series{Indicator: name, Data: data}, nil
	}
	return indicator.Series{}, nil
}

type fakeBarSource struct {
	bars model.BarSeries
}

func (f fakeBarSource) LoadOHLCV(_ context.Context, _ string, _ timeframe.Code, count int, _ *int64) (model.BarSeries, error) {
	if count > len(f.bars) {
		count = len(f.bars)
	}
	return f.bars[len(f.bars)-count:], nil
}

func TestReferenceDetector_Detect_ProducesTrendingBullish(t *testing.T) {
	bars := trendingBars(200)
	eng := fakeIndicatorEngine{bars: bars}
	src := fakeBarSource{bars: bars}
	det := NewReferenceDetector(eng, src, DefaultConfig())

	res, err := det.Detect(context.Background(), Input{Symbol: "BTC-USD", Timeframe: "1h", Count: 60})
	require.NoError(t, err)
	assert.Contains(t, []Label{TrendingBullish, BreakoutBullish}, res.Regime)
	assert.GreaterOrEqual(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, 1.0)
}

func TestReferenceDetector_Detect_MissingSymbol_Errors(t *testing.T) {
	bars := trendingBars(200)
	det := NewReferenceDetector(fakeIndicatorEngine{bars: bars}, fakeBarSource{bars: bars}, DefaultConfig())
	_, err := det.Detect(context.Background(), Input{Timeframe: "1h", Count: 60})
	assert.Error(t, err)
}

// --- fixtures ---

func flatRatioSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func trendingBars(n int) model.BarSeries {
	out := make(model.BarSeries, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += 0.8
		out[i] = model.Bar{
			Timestamp: int64(i) * 3_600_000,
			Open:      price - 0.3, High: price + 0.6, Low: price - 0.6, Close: price,
			Volume: 1000 + float64(i%5)*50,
		}
	}
	return out
}

func sawtoothSeries(n int) ([]float64, []float64, []float64) {
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100.0
		if i%8 < 4 {
			base += float64(i%8) * 2
		} else {
			base += float64(8-i%8) * 2
		}
		highs[i] = base + 3
		lows[i] = base - 3
		closes[i] = base
	}
	return highs, lows, closes
}
