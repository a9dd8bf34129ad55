package indicator

import (
	"context"
	"fmt"

	"github.com/sawpanic/regimescope/internal/apperrors"
	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// defaultPeriods mirrors the teacher's documented standard periods
// (internal/domain/indicators/technical.go), extended with the indicators
// spec.md §4.4 adds.
var defaultPeriods = map[string]int{
	"ema":  20,
	"atr":  14,
	"adx":  14,
	"rsi":  14,
	"bb":   20,
	"er":   10,
}

// warmupMultiple is how many extra bars of history are fetched beyond the
// caller's requested window so Wilder-smoothed series have settled before
// the returned window begins.
const warmupMultiple = 3

// ReferenceEngine is the in-process IndicatorEngine reference
// implementation: it pulls closed bars from a BarSource and evaluates the
// requested indicator over them, grounded on the RSI/ATR/ADX Wilder
// kernels in internal/domain/indicators/technical.go.
type ReferenceEngine struct {
	bars BarSource
}

// NewReferenceEngine wraps bars with the Engine contract.
func NewReferenceEngine(bars BarSource) *ReferenceEngine {
	return &ReferenceEngine{bars: bars}
}

func (e *ReferenceEngine) GetSeries(ctx context.Context, symbol string, indicatorName string, tf timeframe.Code, bars int, referenceDate *int64, cfg Config) (Series, error) {
	period := cfg.intOr("period", defaultPeriods[indicatorName])
	warmup := period * warmupMultiple
	fetchCount := bars + warmup

	series, err := e.bars.LoadOHLCV(ctx, symbol, tf, fetchCount, referenceDate)
	if err != nil {
		return Series{}, apperrors.Context(err, "indicator.getSeries", map[string]interface{}{
			"symbol": symbol, "indicator": indicatorName, "timeframe": string(tf),
		})
	}
	if len(series) < bars {
		return Series{}, apperrors.Insufficient(symbol, string(tf), len(series), bars)
	}

	closes := series.Closes()
	ohlc := toOHLC(series)

	var data []Point
	switch indicatorName {
	case "ema":
		data = scalarSeries(series, ema(closes, period))
	case "rsi":
		data = scalarSeries(series, rsi(closes, period))
	case "atr":
		data = scalarSeries(series, atr(ohlc, period))
	case "adx":
		set := adx(ohlc, period)
		data = compositeSeries(series, map[string][]float64{
			"adx": set.ADX, "plusDI": set.PlusDI, "minusDI": set.MinusDI,
		})
	case "bb":
		set := bollingerBands(closes, period, cfg.floatOr("stdDev", 2.0))
		data = compositeSeries(series, map[string][]float64{
			"bbUpper": set.Upper, "bbMiddle": set.Middle, "bbLower": set.Lower,
		})
	case "bbWidth":
		set := bollingerBands(closes, period, cfg.floatOr("stdDev", 2.0))
		data = scalarSeries(series, bbWidth(set))
	case "macd":
		set := macd(closes, cfg.intOr("fastPeriod", 12), cfg.intOr("slowPeriod", 26), cfg.intOr("signalPeriod", 9))
		data = compositeSeries(series, map[string][]float64{
			"macd": set.MACD, "signal": set.Signal, "histogram": set.Histogram,
		})
	case "obv":
		data = scalarSeries(series, obv(ohlc))
	case "vwap":
		data = scalarSeries(series, vwap(ohlc))
	case "psar":
		data = scalarSeries(series, psar(ohlc))
	case "er":
		data = scalarSeries(series, efficiencyRatio(closes, period))
	default:
		return Series{}, fmt.Errorf("indicator.getSeries: unknown indicator %q: %w", indicatorName, apperrors.ErrInvalidInput)
	}

	if len(data) > bars {
		data = data[len(data)-bars:]
	}
	return Series{Indicator: indicatorName, Data: data}, nil
}

func toOHLC(series model.BarSeries) []barOHLC {
	out := make([]barOHLC, len(series))
	for i, b := range series {
		out[i] = barOHLC{Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
	}
	return out
}

func scalarSeries(series model.BarSeries, values []float64) []Point {
	out := make([]Point, len(series))
	for i, b := range series {
		v := values[i]
		out[i] = Point{Timestamp: b.Timestamp, Value: nanToNil(v)}
	}
	return out
}

func compositeSeries(series model.BarSeries, fields map[string][]float64) []Point {
	out := make([]Point, len(series))
	for i, b := range series {
		values := make(map[string]float64, len(fields))
		for name, vals := range fields {
			if v := nanToNil(vals[i]); v != nil {
				values[name] = *v
			}
		}
		out[i] = Point{Timestamp: b.Timestamp, Values: values}
	}
	return out
}

func nanToNil(v float64) *float64 {
	if v != v { // NaN
		return nil
	}
	return &v
}
