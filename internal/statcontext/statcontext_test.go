package statcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/regimescope/internal/indicator"
	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/regime"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

func TestDepthFor(t *testing.T) {
	assert.Equal(t, DepthLight, depthFor("1d"))
	assert.Equal(t, DepthLight, depthFor("1w"))
	assert.Equal(t, DepthMedium, depthFor("4h"))
	assert.Equal(t, DepthFull, depthFor("1h"))
	assert.Equal(t, DepthFull, depthFor("15m"))
}

func TestBarBudget(t *testing.T) {
	assert.Equal(t, 300, barBudget("5m"))
	assert.Equal(t, 150, barBudget("1d"))
	assert.Equal(t, defaultBarBudget, barBudget("2h"))
}

func TestOrderedSlots_LongestFirst(t *testing.T) {
	req := Request{SlotShort: "15m", SlotLong: "1d", SlotMedium: "4h"}
	slots := orderedSlots(req)
	require.Len(t, slots, 3)
	assert.Equal(t, SlotLong, slots[0])
	assert.Equal(t, SlotMedium, slots[1])
	assert.Equal(t, SlotShort, slots[2])
}

func TestVolumeShape_DetectsSpikeAndRise(t *testing.T) {
	bars := make(model.BarSeries, 25)
	for i := range bars {
		vol := 100.0
		if i == len(bars)-1 {
			vol = 500.0
		} else if i > 12 {
			vol = 150.0
		}
		bars[i] = model.Bar{Timestamp: int64(i), Close: 100, Open: 100, High: 101, Low: 99, Volume: vol}
	}
	spike, rising := volumeShape(bars, 20, 1.5)
	assert.True(t, spike)
	assert.True(t, rising)
}

func TestDetectMicroPatterns_BullishEngulfing(t *testing.T) {
	bars := model.BarSeries{
		{Open: 100, Close: 95, High: 101, Low: 94},
		{Open: 94, Close: 102, High: 103, Low: 93},
	}
	patterns := detectMicroPatterns(bars)
	found := false
	for _, p := range patterns {
		if p.Pattern == "bullish_engulfing" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckCoherence_InsufficientDataWithoutMomentum(t *testing.T) {
	cc := checkCoherence(MovingAverages{EMAShort: 10, EMALong: 9}, TrendIndicators{}, nil, 10)
	assert.Equal(t, InsufficientData, cc.Status)
}

func TestCheckCoherence_CoherentAllAgree(t *testing.T) {
	psar := 9.0
	ma := MovingAverages{EMAShort: 10, EMALong: 9}
	trend := TrendIndicators{PSAR: &psar}
	mom := &MomentumIndicators{RSI: 60, MACDHistogram: 0.5}
	cc := checkCoherence(ma, trend, mom, 11)
	assert.Equal(t, Coherent, cc.Status)
}

func TestCheckCoherence_DivergingOneSignal(t *testing.T) {
	psar := 9.0
	ma := MovingAverages{EMAShort: 10, EMALong: 9}
	trend := TrendIndicators{PSAR: &psar}
	mom := &MomentumIndicators{RSI: 40, MACDHistogram: 0.5}
	cc := checkCoherence(ma, trend, mom, 11)
	assert.Equal(t, Diverging, cc.Status)
	assert.Equal(t, SeverityMedium, cc.Severity)
}

// --- Build integration coverage ---

type fakeIndicatorEngine struct{ bars model.BarSeries }

func (f fakeIndicatorEngine) GetSeries(_ context.Context, _ string, name string, _ timeframe.Code, bars int, _ *int64, _ indicator.Config) (indicator.Series, error) {
	closes := f.bars.Closes()
	if bars > len(closes) {
		bars = len(closes)
	}
	closes = closes[len(closes)-bars:]
	data := make([]indicator.Point, len(closes))

	switch name {
	case "ema", "atr", "rsi", "obv", "vwap", "psar":
		for i, c := range closes {
			v := c
			data[i] = indicator.Point{Value: &v}
		}
	case "adx":
		for i := range data {
			data[i] = indicator.Point{Values: map[string]float64{"adx": 28, "plusDI": 22, "minusDI": 12}}
		}
	case "bb":
		for i, c := range closes {
			data[i] = indicator.Point{Values: map[string]float64{"bbUpper": c + 2, "bbMiddle": c, "bbLower": c - 2}}
		}
	case "macd":
		for i := range data {
			data[i] = indicator.Point{Values: map[string]float64{"macd": 0.5, "signal": 0.2, "histogram": 0.3}}
		}
	case "er":
		for i := range data {
			v := 0.7
			data[i] = indicator.Point{Value: &v}
		}
	}
	return indicator.Series{Indicator: name, Data: data}, nil
}

type fakeBarSource struct{ bars model.BarSeries }

func (f fakeBarSource) LoadOHLCV(_ context.Context, _ string, _ timeframe.Code, count int, _ *int64) (model.BarSeries, error) {
	if count > len(f.bars) {
		count = len(f.bars)
	}
	return f.bars[len(f.bars)-count:], nil
}

type fakeRegimeEngine struct{}

func (fakeRegimeEngine) Detect(_ context.Context, in regime.Input) (regime.Result, error) {
	return regime.Result{Regime: regime.TrendingBullish, Direction: regime.Bullish, Confidence: 0.8}, nil
}

func trendingBars(n int) model.BarSeries {
	out := make(model.BarSeries, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += 0.5
		out[i] = model.Bar{
			Timestamp: int64(i) * 3_600_000,
			Open:      price - 0.2, High: price + 0.4, Low: price - 0.4, Close: price,
			Volume: 1000 + float64(i%5)*25,
		}
	}
	return out
}

func TestStatisticalContext_Build_ProducesAllSlots(t *testing.T) {
	bars := trendingBars(400)
	sc := New(fakeBarSource{bars}, fakeIndicatorEngine{bars}, fakeRegimeEngine{})

	res, err := sc.Build(context.Background(), "BTC-USD", Request{SlotLong: "1d", SlotMedium: "4h", SlotShort: "1h"}, nil)
	require.NoError(t, err)
	require.Len(t, res.Contexts, 3)

	long := res.Contexts[SlotLong]
	assert.Equal(t, DepthLight, long.Depth)
	assert.Nil(t, long.MomentumIndicators)
	assert.Nil(t, long.CoherenceCheck)

	medium := res.Contexts[SlotMedium]
	assert.Equal(t, DepthMedium, medium.Depth)
	assert.NotNil(t, medium.MomentumIndicators)
	assert.NotNil(t, medium.CoherenceCheck)
	assert.Empty(t, medium.MicroPatterns)

	short := res.Contexts[SlotShort]
	assert.Equal(t, DepthFull, short.Depth)
	assert.NotNil(t, short.VolatilityIndicators)
	assert.NotNil(t, short.SupportResistance)
}

func TestStatisticalContext_Build_MissingSymbol_Errors(t *testing.T) {
	bars := trendingBars(400)
	sc := New(fakeBarSource{bars}, fakeIndicatorEngine{bars}, fakeRegimeEngine{})
	_, err := sc.Build(context.Background(), "", Request{SlotShort: "1h"}, nil)
	assert.Error(t, err)
}

func TestStatisticalContext_Build_EmptyRequest_Errors(t *testing.T) {
	bars := trendingBars(400)
	sc := New(fakeBarSource{bars}, fakeIndicatorEngine{bars}, fakeRegimeEngine{})
	_, err := sc.Build(context.Background(), "BTC-USD", Request{}, nil)
	assert.Error(t, err)
}
