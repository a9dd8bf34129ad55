package regime

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/regimescope/internal/apperrors"
	"github.com/sawpanic/regimescope/internal/indicator"
	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// Input is a single detect() call's parameters, spec.md §4.5.
type Input struct {
	Symbol        string
	Timeframe     timeframe.Code
	Count         int
	ReferenceDate *int64
}

// Engine is the RegimeEngine collaborator contract.
type Engine interface {
	Detect(ctx context.Context, in Input) (Result, error)
}

// ReferenceDetector is the reference RegimeEngine implementation. It fans
// out seven parallel indicator/volume fetches (matching the teacher's plain
// sync.WaitGroup fan-out idiom in internal/data/facade/facade_impl.go) and
// then runs Steps A-I synchronously on the joined results.
type ReferenceDetector struct {
	indicators indicator.Engine
	bars       indicator.BarSource
	cfg        Config
}

// NewReferenceDetector wires an IndicatorEngine and a raw BarSource (for
// volume analysis, price, and range-bounds OHLC) behind the Engine contract.
func NewReferenceDetector(indicators indicator.Engine, bars indicator.BarSource, cfg Config) *ReferenceDetector {
	return &ReferenceDetector{indicators: indicators, bars: bars, cfg: cfg}
}

type fetchResult struct {
	series indicator.Series
	err    error
}

// Detect implements spec.md §4.5's full algorithm.
func (d *ReferenceDetector) Detect(ctx context.Context, in Input) (Result, error) {
	if in.Symbol == "" {
		return Result{}, fmt.Errorf("regime.detect: %w: missing symbol", apperrors.ErrInvalidInput)
	}

	count := in.Count
	if count < d.cfg.MinBars {
		count = d.cfg.MinBars
	}
	fetchBars := count + warmupBars

	results := make([]fetchResult, 7)
	var wg sync.WaitGroup
	wg.Add(7)

	go func() {
		defer wg.Done()
		s, err := d.indicators.GetSeries(ctx, in.Symbol, "adx", in.Timeframe, fetchBars, in.ReferenceDate, indicator.Config{"period": d.cfg.ADXPeriod})
		results[0] = fetchResult{s, err}
	}()
	go func() {
		defer wg.Done()
		s, err := d.indicators.GetSeries(ctx, in.Symbol, "atr", in.Timeframe, fetchBars, in.ReferenceDate, indicator.Config{"period": d.cfg.ATRShortPeriod})
		results[1] = fetchResult{s, err}
	}()
	go func() {
		defer wg.Done()
		s, err := d.indicators.GetSeries(ctx, in.Symbol, "atr", in.Timeframe, fetchBars, in.ReferenceDate, indicator.Config{"period": d.cfg.ATRLongPeriod})
		results[2] = fetchResult{s, err}
	}()
	go func() {
		defer wg.Done()
		s, err := d.indicators.GetSeries(ctx, in.Symbol, "ema", in.Timeframe, fetchBars, in.ReferenceDate, indicator.Config{"period": d.cfg.MAShortPeriod})
		results[3] = fetchResult{s, err}
	}()
	go func() {
		defer wg.Done()
		s, err := d.indicators.GetSeries(ctx, in.Symbol, "ema", in.Timeframe, fetchBars, in.ReferenceDate, indicator.Config{"period": d.cfg.MALongPeriod})
		results[4] = fetchResult{s, err}
	}()
	go func() {
		defer wg.Done()
		s, err := d.indicators.GetSeries(ctx, in.Symbol, "er", in.Timeframe, fetchBars, in.ReferenceDate, indicator.Config{"period": d.cfg.ERPeriod})
		results[5] = fetchResult{s, err}
	}()

	var barSeries model.BarSeries
	var barErr error
	go func() {
		defer wg.Done()
		barSeries, barErr = d.bars.LoadOHLCV(ctx, in.Symbol, in.Timeframe, fetchBars, in.ReferenceDate)
	}()

	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return Result{}, apperrors.Context(r.err, "regime.detect", map[string]interface{}{
				"symbol": in.Symbol, "timeframe": string(in.Timeframe),
			})
		}
	}
	if barErr != nil {
		return Result{}, apperrors.Context(barErr, "regime.detect.volume", map[string]interface{}{
			"symbol": in.Symbol, "timeframe": string(in.Timeframe),
		})
	}

	adxSeries, atrShortSeries, atrLongSeries := results[0].series, results[1].series, results[2].series
	emaShortSeries, emaLongSeries, erRawSeries := results[3].series, results[4].series, results[5].series

	adxLast, plusDILast, minusDILast, ok := lastComposite3(adxSeries, "adx", "plusDI", "minusDI")
	if !ok {
		return Result{}, fmt.Errorf("regime.detect %s %s: %w", in.Symbol, in.Timeframe, apperrors.ErrInsufficientData)
	}
	atrShortLast, ok := lastScalar(atrShortSeries)
	if !ok {
		return Result{}, fmt.Errorf("regime.detect %s %s: %w", in.Symbol, in.Timeframe, apperrors.ErrInsufficientData)
	}
	atrLongLast, ok := lastScalar(atrLongSeries)
	if !ok || atrLongLast == 0 {
		return Result{}, fmt.Errorf("regime.detect %s %s: %w", in.Symbol, in.Timeframe, apperrors.ErrInsufficientData)
	}
	emaShortLast, ok := lastScalar(emaShortSeries)
	if !ok {
		return Result{}, fmt.Errorf("regime.detect %s %s: %w", in.Symbol, in.Timeframe, apperrors.ErrInsufficientData)
	}
	emaLongLast, ok := lastScalar(emaLongSeries)
	if !ok {
		return Result{}, fmt.Errorf("regime.detect %s %s: %w", in.Symbol, in.Timeframe, apperrors.ErrInsufficientData)
	}

	erValues := scalarValues(erRawSeries)
	erSmoothed := smoothEMA(erValues, d.cfg.ERSmoothPeriod)
	erLast, ok := lastFinite(erSmoothed)
	if !ok {
		return Result{}, fmt.Errorf("regime.detect %s %s: %w", in.Symbol, in.Timeframe, apperrors.ErrInsufficientData)
	}

	adxValues := compositeValues(adxSeries, "adx")

	atrShortValues := scalarValues(atrShortSeries)
	atrLongValues := scalarValues(atrLongSeries)
	atrRatioSeries := ratioSeries(atrShortValues, atrLongValues)
	atrRatioLast := atrRatioSeries[len(atrRatioSeries)-1]

	if len(barSeries) == 0 {
		return Result{}, fmt.Errorf("regime.detect %s %s: %w", in.Symbol, in.Timeframe, apperrors.ErrInsufficientData)
	}
	price := barSeries[len(barSeries)-1].Close
	volumes := volumesOf(barSeries)
	highs, lows, closes := ohlcArrays(barSeries)

	thresholds := adaptiveThresholds(in.Timeframe, atrRatioSeries, d.cfg.Adaptive)
	phase := trendPhase(adxValues)
	compression := priorCompression(atrRatioSeries, d.cfg.CompressionThreshold)
	dir := direction(price, emaShortLast, emaLongLast, plusDILast, minusDILast, atrLongLast)
	volAnalysis := analyzeVolume(volumes, d.cfg.VolumePeriod, d.cfg.VolumeSpikeThreshold)
	volumeConfirms := volAnalysis.SpikeDetected && volAnalysis.TrendRising

	label := classify(classifyInputs{
		ADX: adxLast, ER: erLast, ATRRatio: atrRatioLast, Direction: dir, Thresholds: thresholds,
	})
	class := Result{Regime: label}.class()

	var bq *BreakoutQuality
	if class == ClassBreakout {
		v := breakoutQuality(volumeConfirms, volAnalysis.SpikeDetected, compression, phase, dir)
		bq = &v
	}
	var rb *RangeBounds
	if class == ClassRange {
		v := rangeBounds(highs, lows, closes, atrShortLast)
		rb = &v
	}

	clarity := regimeClarity(label, class, adxLast, thresholds)
	er := erScore(class, erLast, thresholds)
	dscore := directionScore(dir)
	checks := coherenceChecks(label, coherenceInputs{
		ADX: adxLast, ER: erLast, ATRRatio: atrRatioLast, Direction: dir.Direction,
		VolumeConfirms: volumeConfirms, HasVolumeData: true, Thresholds: thresholds,
	})
	coh := coherenceScore(checks)
	pbonus := phaseBonus(phase.Phase, class)

	details := ScoringDetails{
		RegimeClarity: round(clarity, 4), ERScore: round(er, 4),
		DirectionScore: round(dscore, 4), Coherence: round(coh, 4), PhaseBonus: pbonus,
	}
	conf := confidence(details)

	result := Result{
		Regime:     label,
		Direction:  dir.Direction,
		Confidence: conf,
		Components: Components{
			ADX: round(adxLast, 2), PlusDI: round(plusDILast, 2), MinusDI: round(minusDILast, 2),
			EfficiencyRatio: round(erLast, 4), ATRRatio: round(atrRatioLast, 4), Direction: dir,
		},
		Thresholds:      thresholds,
		TrendPhase:      phase,
		VolumeAnalysis:  &volAnalysis,
		Compression:     &compression,
		BreakoutQuality: bq,
		RangeBounds:     rb,
		ScoringDetails:  details,
		Metadata: map[string]interface{}{
			"barsUsed": len(barSeries),
		},
	}

	log.Debug().Str("symbol", in.Symbol).Str("timeframe", string(in.Timeframe)).
		Str("regime", string(label)).Float64("confidence", conf).Msg("regime detected")

	return result, nil
}

func lastScalar(s indicator.Series) (float64, bool) {
	if len(s.Data) == 0 {
		return 0, false
	}
	p := s.Data[len(s.Data)-1]
	if p.Value == nil {
		return 0, false
	}
	return *p.Value, true
}

func lastComposite3(s indicator.Series, a, b, c string) (float64, float64, float64, bool) {
	if len(s.Data) == 0 {
		return 0, 0, 0, false
	}
	p := s.Data[len(s.Data)-1]
	av, ok1 := p.Values[a]
	bv, ok2 := p.Values[b]
	cv, ok3 := p.Values[c]
	if !ok1 || !ok2 || !ok3 {
		return 0, 0, 0, false
	}
	return av, bv, cv, true
}

func scalarValues(s indicator.Series) []float64 {
	out := make([]float64, len(s.Data))
	for i, p := range s.Data {
		if p.Value == nil {
			out[i] = nan()
			continue
		}
		out[i] = *p.Value
	}
	return out
}

func compositeValues(s indicator.Series, field string) []float64 {
	out := make([]float64, len(s.Data))
	for i, p := range s.Data {
		if v, ok := p.Values[field]; ok {
			out[i] = v
		} else {
			out[i] = nan()
		}
	}
	return out
}

func ratioSeries(a, b []float64) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			out[i] = nan()
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out
}

func ohlcArrays(series model.BarSeries) (highs, lows, closes []float64) {
	highs = make([]float64, len(series))
	lows = make([]float64, len(series))
	closes = make([]float64, len(series))
	for i, b := range series {
		highs[i], lows[i], closes[i] = b.High, b.Low, b.Close
	}
	return
}

func volumesOf(series model.BarSeries) []float64 {
	out := make([]float64, len(series))
	for i, b := range series {
		out[i] = b.Volume
	}
	return out
}

func lastFinite(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	v := xs[len(xs)-1]
	if v != v {
		return 0, false
	}
	return v, true
}

func nan() float64 {
	var zero float64
	return zero / zero
}

// smoothEMA applies a standard EMA smoothing pass to xs, skipping leading
// NaNs the way the indicator package's warmup semantics do.
func smoothEMA(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	start := -1
	for i, v := range xs {
		if v == v {
			start = i
			break
		}
		out[i] = nan()
	}
	if start == -1 {
		return out
	}
	mult := 2.0 / (float64(period) + 1)
	out[start] = xs[start]
	for i := start + 1; i < len(xs); i++ {
		if xs[i] != xs[i] {
			out[i] = out[i-1]
			continue
		}
		out[i] = (xs[i]-out[i-1])*mult + out[i-1]
	}
	return out
}
