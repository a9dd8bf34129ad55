package statcontext

import (
	"context"

	"github.com/sawpanic/regimescope/internal/indicator"
	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

func movingAverages(ctx context.Context, eng indicator.Engine, symbol string, tf timeframe.Code, bars int, ref *int64) (MovingAverages, error) {
	short, err := eng.GetSeries(ctx, symbol, "ema", tf, bars, ref, indicator.Config{"period": 20})
	if err != nil {
		return MovingAverages{}, err
	}
	long, err := eng.GetSeries(ctx, symbol, "ema", tf, bars, ref, indicator.Config{"period": 50})
	if err != nil {
		return MovingAverages{}, err
	}
	s, _ := lastScalar(short)
	l, _ := lastScalar(long)
	return MovingAverages{EMAShort: round(s, 2), EMALong: round(l, 2), Aligned: s > l}, nil
}

func trendIndicators(ctx context.Context, eng indicator.Engine, symbol string, tf timeframe.Code, bars int, ref *int64, withPSAR bool) (TrendIndicators, error) {
	adx, err := eng.GetSeries(ctx, symbol, "adx", tf, bars, ref, indicator.Config{"period": 14})
	if err != nil {
		return TrendIndicators{}, err
	}
	a, _ := lastField(adx, "adx")
	plus, _ := lastField(adx, "plusDI")
	minus, _ := lastField(adx, "minusDI")
	out := TrendIndicators{ADX: round(a, 2), PlusDI: round(plus, 2), MinusDI: round(minus, 2)}

	if withPSAR {
		psarSeries, err := eng.GetSeries(ctx, symbol, "psar", tf, bars, ref, nil)
		if err != nil {
			return TrendIndicators{}, err
		}
		if v, ok := lastScalar(psarSeries); ok {
			rv := round(v, 8)
			out.PSAR = &rv
		}
	}
	return out, nil
}

func momentumIndicators(ctx context.Context, eng indicator.Engine, symbol string, tf timeframe.Code, bars int, ref *int64) (*MomentumIndicators, error) {
	rsiSeries, err := eng.GetSeries(ctx, symbol, "rsi", tf, bars, ref, indicator.Config{"period": 14})
	if err != nil {
		return nil, err
	}
	macdSeries, err := eng.GetSeries(ctx, symbol, "macd", tf, bars, ref, nil)
	if err != nil {
		return nil, err
	}
	r, _ := lastScalar(rsiSeries)
	m, _ := lastField(macdSeries, "macd")
	sig, _ := lastField(macdSeries, "signal")
	hist, _ := lastField(macdSeries, "histogram")
	return &MomentumIndicators{
		RSI: round(r, 2), MACD: round(m, 4), MACDSignal: round(sig, 4), MACDHistogram: round(hist, 4),
	}, nil
}

func volatilityIndicators(ctx context.Context, eng indicator.Engine, symbol string, tf timeframe.Code, bars int, ref *int64) (*VolatilityIndicators, error) {
	atrSeries, err := eng.GetSeries(ctx, symbol, "atr", tf, bars, ref, indicator.Config{"period": 14})
	if err != nil {
		return nil, err
	}
	bbSeries, err := eng.GetSeries(ctx, symbol, "bb", tf, bars, ref, indicator.Config{"period": 20, "stdDev": 2.0})
	if err != nil {
		return nil, err
	}
	a, _ := lastScalar(atrSeries)
	up, _ := lastField(bbSeries, "bbUpper")
	mid, _ := lastField(bbSeries, "bbMiddle")
	low, _ := lastField(bbSeries, "bbLower")
	width := 0.0
	if mid != 0 {
		width = (up - low) / mid
	}
	return &VolatilityIndicators{
		ATR: round(a, 8), BBUpper: round(up, 8), BBMiddle: round(mid, 8), BBLower: round(low, 8), BBWidth: round(width, 4),
	}, nil
}

const volumeSpikeThreshold = 1.5

func volumeIndicators(ctx context.Context, eng indicator.Engine, symbol string, tf timeframe.Code, bars int, ref *int64, series model.BarSeries) (*VolumeIndicators, error) {
	obvSeries, err := eng.GetSeries(ctx, symbol, "obv", tf, bars, ref, nil)
	if err != nil {
		return nil, err
	}
	vwapSeries, err := eng.GetSeries(ctx, symbol, "vwap", tf, bars, ref, nil)
	if err != nil {
		return nil, err
	}
	o, _ := lastScalar(obvSeries)
	v, _ := lastScalar(vwapSeries)

	spike, rising := volumeShape(series, 20, volumeSpikeThreshold)
	return &VolumeIndicators{OBV: round(o, 4), VWAP: round(v, 8), Spike: spike, Rising: rising}, nil
}

// volumeShape reports whether the latest bar's volume spikes over the
// trailing average, and whether volume has been rising over the window.
func volumeShape(series model.BarSeries, period int, spikeThreshold float64) (spike, rising bool) {
	n := len(series)
	if n < 2 {
		return false, false
	}
	if period > n-1 {
		period = n - 1
	}
	window := series[n-1-period : n-1]
	sum := 0.0
	for _, b := range window {
		sum += b.Volume
	}
	avg := sum / float64(len(window))
	last := series[n-1].Volume
	spike = avg > 0 && last >= avg*spikeThreshold

	half := len(window) / 2
	if half == 0 {
		return spike, false
	}
	firstHalfAvg, secondHalfAvg := avgVolume(window[:half]), avgVolume(window[half:])
	rising = secondHalfAvg > firstHalfAvg
	return spike, rising
}

func avgVolume(bars model.BarSeries) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / float64(len(bars))
}

func priceAction(series model.BarSeries) PriceAction {
	n := len(series)
	if n == 0 {
		return PriceAction{}
	}
	last := series[n-1]
	change := 0.0
	if n >= 2 {
		prev := series[n-2]
		if prev.Close != 0 {
			change = (last.Close - prev.Close) / prev.Close
		}
	}
	structure := "neutral"
	lookback := 10
	if lookback > n {
		lookback = n
	}
	if lookback >= 2 {
		start := series[n-lookback].Close
		if last.Close > start {
			structure = "up"
		} else if last.Close < start {
			structure = "down"
		}
	}
	return PriceAction{CurrentClose: round(last.Close, 8), DailyChange: round(change, 4), Structure: structure}
}
