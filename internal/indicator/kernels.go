package indicator

import "math"

// ema computes the exponential moving average over closes with the given
// period. Entries before the (period-1)th index are NaN (warmup).
func ema(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(closes) < period {
		return out
	}
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += closes[i]
	}
	seed /= float64(period)
	out[period-1] = seed
	alpha := 2.0 / (float64(period) + 1.0)
	prev := seed
	for i := period; i < len(closes); i++ {
		prev = closes[i]*alpha + prev*(1-alpha)
		out[i] = prev
	}
	return out
}

// trueRange returns the per-bar true range; index 0 is NaN (no prior close).
func trueRange(bars []barOHLC) []float64 {
	out := make([]float64, len(bars))
	out[0] = math.NaN()
	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// wilderSmooth applies Wilder's smoothing (an EMA with alpha=1/period,
// seeded by a simple average of the first period values), grounded on the
// teacher's RSI/ATR kernels (internal/domain/indicators/technical.go).
func wilderSmooth(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) <= period {
		return out
	}
	seed := 0.0
	for i := 1; i <= period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period] = seed
	alpha := 1.0 / float64(period)
	prev := seed
	for i := period + 1; i < len(values); i++ {
		prev = prev*(1-alpha) + values[i]*alpha
		out[i] = prev
	}
	return out
}

// atr computes Wilder's Average True Range.
func atr(bars []barOHLC, period int) []float64 {
	return wilderSmooth(trueRange(bars), period)
}

// rsi computes Wilder's RSI, matching the teacher's gain/loss-averaging
// kernel.
func rsi(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) < period+1 {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}
	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFromAvg(avgGain, avgLoss)

	alpha := 1.0 / float64(period)
	for i := period + 1; i < len(closes); i++ {
		avgGain = avgGain*(1-alpha) + gains[i]*alpha
		avgLoss = avgLoss*(1-alpha) + losses[i]*alpha
		out[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// adxSet holds the directional-movement trio spec.md §4.4 requires adx to
// expose as a composite point: {adx, plusDI, minusDI}.
type adxSet struct {
	ADX, PlusDI, MinusDI []float64
}

// adx computes Wilder's ADX with full DX smoothing (unlike the teacher's
// simplified single-point DX, this smooths DX over period like the
// reference indicator requires for a usable trend-phase slope).
func adx(bars []barOHLC, period int) adxSet {
	n := len(bars)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := trueRange(bars)
	for i := 1; i < n; i++ {
		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	smTR := wilderSmooth(tr, period)
	smPlusDM := wilderSmooth(plusDM, period)
	smMinusDM := wilderSmooth(minusDM, period)

	plusDI := make([]float64, n)
	minusDI := make([]float64, n)
	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		plusDI[i], minusDI[i], dx[i] = math.NaN(), math.NaN(), math.NaN()
		if math.IsNaN(smTR[i]) || smTR[i] == 0 {
			continue
		}
		plusDI[i] = 100.0 * smPlusDM[i] / smTR[i]
		minusDI[i] = 100.0 * smMinusDM[i] / smTR[i]
		sum := plusDI[i] + minusDI[i]
		if sum > 0 {
			dx[i] = 100.0 * math.Abs(plusDI[i]-minusDI[i]) / sum
		} else {
			dx[i] = 0
		}
	}
	// DX is NaN until the DIs are seeded; smooth only from there on, keeping
	// one leading slot because wilderSmooth seeds from index 1.
	adxLine := make([]float64, n)
	for i := range adxLine {
		adxLine[i] = math.NaN()
	}
	start := 0
	for start < n && math.IsNaN(dx[start]) {
		start++
	}
	if start > 0 && start < n {
		copy(adxLine[start-1:], wilderSmooth(dx[start-1:], period))
	}
	return adxSet{ADX: adxLine, PlusDI: plusDI, MinusDI: minusDI}
}

// bbSet is the {bbUpper, bbMiddle, bbLower} composite point spec.md §4.4
// requires for the bb indicator.
type bbSet struct {
	Upper, Middle, Lower []float64
}

// bollingerBands computes an SMA-centred Bollinger Band envelope.
func bollingerBands(closes []float64, period int, stdDev float64) bbSet {
	n := len(closes)
	mid := make([]float64, n)
	up := make([]float64, n)
	low := make([]float64, n)
	for i := 0; i < n; i++ {
		mid[i], up[i], low[i] = math.NaN(), math.NaN(), math.NaN()
		if i+1 < period {
			continue
		}
		window := closes[i+1-period : i+1]
		mean := sum(window) / float64(period)
		variance := 0.0
		for _, v := range window {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(period)
		sd := math.Sqrt(variance)
		mid[i] = mean
		up[i] = mean + stdDev*sd
		low[i] = mean - stdDev*sd
	}
	return bbSet{Upper: up, Middle: mid, Lower: low}
}

// bbWidth is the normalized band width (Upper-Lower)/Middle.
func bbWidth(bb bbSet) []float64 {
	out := make([]float64, len(bb.Middle))
	for i := range out {
		if math.IsNaN(bb.Middle[i]) || bb.Middle[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (bb.Upper[i] - bb.Lower[i]) / bb.Middle[i]
	}
	return out
}

// macdSet is the {macd, signal, histogram} composite.
type macdSet struct {
	MACD, Signal, Histogram []float64
}

func macd(closes []float64, fast, slow, signal int) macdSet {
	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)
	line := make([]float64, len(closes))
	for i := range line {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			line[i] = math.NaN()
			continue
		}
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := emaSkippingNaN(line, signal)
	hist := make([]float64, len(closes))
	for i := range hist {
		if math.IsNaN(line[i]) || math.IsNaN(sig[i]) {
			hist[i] = math.NaN()
			continue
		}
		hist[i] = line[i] - sig[i]
	}
	return macdSet{MACD: line, Signal: sig, Histogram: hist}
}

// emaSkippingNaN runs ema only over the contiguous non-NaN tail of values,
// used to smooth the MACD line into its signal line once warmup has
// passed.
func emaSkippingNaN(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	if len(values)-start < period {
		return out
	}
	sub := ema(values[start:], period)
	copy(out[start:], sub)
	return out
}

// obv computes the On-Balance Volume cumulative series.
func obv(bars []barOHLC) []float64 {
	out := make([]float64, len(bars))
	running := 0.0
	out[0] = 0
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			running += bars[i].Volume
		case bars[i].Close < bars[i-1].Close:
			running -= bars[i].Volume
		}
		out[i] = running
	}
	return out
}

// vwap computes the cumulative volume-weighted average price from the
// start of the supplied window.
func vwap(bars []barOHLC) []float64 {
	out := make([]float64, len(bars))
	var cumPV, cumVol float64
	for i, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		cumPV += typical * b.Volume
		cumVol += b.Volume
		if cumVol == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = cumPV / cumVol
	}
	return out
}

// psar computes the Parabolic SAR with the conventional 0.02 step and 0.2
// acceleration cap.
func psar(bars []barOHLC) []float64 {
	n := len(bars)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	const step, maxAF = 0.02, 0.2
	if n == 1 {
		out[0] = bars[0].Low
		return out
	}
	longTrend := bars[1].Close >= bars[0].Close
	af := step
	var ep, sar float64
	if longTrend {
		sar = bars[0].Low
		ep = bars[0].High
	} else {
		sar = bars[0].High
		ep = bars[0].Low
	}
	out[0] = sar
	for i := 1; i < n; i++ {
		sar = sar + af*(ep-sar)
		if longTrend {
			if bars[i].Low < sar {
				longTrend = false
				sar = ep
				ep = bars[i].Low
				af = step
			} else if bars[i].High > ep {
				ep = bars[i].High
				af = math.Min(af+step, maxAF)
			}
		} else {
			if bars[i].High > sar {
				longTrend = true
				sar = ep
				ep = bars[i].High
				af = step
			} else if bars[i].Low < ep {
				ep = bars[i].Low
				af = math.Min(af+step, maxAF)
			}
		}
		out[i] = sar
	}
	return out
}

// efficiencyRatio is Kaufman's Efficiency Ratio: net directional change
// over period divided by the sum of absolute bar-to-bar changes, in
// [0, 1]. RegimeEngine rescales this against an adaptive threshold.
func efficiencyRatio(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	for i := period; i < len(closes); i++ {
		netChange := math.Abs(closes[i] - closes[i-period])
		volatilitySum := 0.0
		for j := i - period + 1; j <= i; j++ {
			volatilitySum += math.Abs(closes[j] - closes[j-1])
		}
		if volatilitySum == 0 {
			out[i] = 0
			continue
		}
		out[i] = netChange / volatilitySum
	}
	return out
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// barOHLC is the minimal OHLCV shape the kernels operate on.
type barOHLC struct {
	Open, High, Low, Close, Volume float64
}
