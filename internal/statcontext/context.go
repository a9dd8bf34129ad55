package statcontext

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/regimescope/internal/apperrors"
	"github.com/sawpanic/regimescope/internal/indicator"
	"github.com/sawpanic/regimescope/internal/regime"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// defaultRequestTimeout bounds one cross-timeframe Build call, spec.md §4.6.
const defaultRequestTimeout = 60 * time.Second

// StatisticalContext is the per-call orchestrator fanning out
// DataProvider + IndicatorEngine + RegimeEngine across the long/medium/
// short timeframe slots of a Request.
type StatisticalContext struct {
	bars           indicator.BarSource
	indicators     indicator.Engine
	regimeEngine   regime.Engine
	requestTimeout time.Duration
}

// New builds a StatisticalContext with the default 60s cross-timeframe
// request timeout.
func New(bars indicator.BarSource, indicators indicator.Engine, regimeEngine regime.Engine) *StatisticalContext {
	return &StatisticalContext{bars: bars, indicators: indicators, regimeEngine: regimeEngine, requestTimeout: defaultRequestTimeout}
}

// WithRequestTimeout overrides the default global timeout.
func (s *StatisticalContext) WithRequestTimeout(d time.Duration) *StatisticalContext {
	s.requestTimeout = d
	return s
}

// Build runs the full StatisticalContext pipeline for symbol across every
// slot present in req, longest timeframe first.
func (s *StatisticalContext) Build(ctx context.Context, symbol string, req Request, referenceDate *int64) (Result, error) {
	if symbol == "" {
		return Result{}, apperrors.Context(apperrors.ErrInvalidInput, "statcontext.build", map[string]interface{}{"reason": "missing symbol"})
	}
	if len(req) == 0 {
		return Result{}, apperrors.Context(apperrors.ErrInvalidInput, "statcontext.build", map[string]interface{}{"reason": "empty request"})
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	slots := orderedSlots(req)
	contexts := make(map[Slot]TimeframeContext, len(slots))
	for _, slot := range slots {
		tf := req[slot]
		tc, err := s.buildTimeframe(ctx, symbol, tf, referenceDate)
		if err != nil {
			return Result{}, apperrors.Context(err, "statcontext.build", map[string]interface{}{"symbol": symbol, "slot": string(slot), "timeframe": string(tf)})
		}
		contexts[slot] = tc
		log.Debug().Str("symbol", symbol).Str("slot", string(slot)).Str("timeframe", string(tf)).Str("depth", string(tc.Depth)).Msg("statcontext.timeframe_built")
	}

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return Result{}, apperrors.Context(apperrors.ErrTimeout, "statcontext.build", map[string]interface{}{"symbol": symbol})
		}
	default:
	}

	return Result{Contexts: contexts}, nil
}

// orderedSlots returns the request's present slots sorted longest-timeframe
// first, spec.md §4.6.
func orderedSlots(req Request) []Slot {
	slots := make([]Slot, 0, len(req))
	for slot := range req {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		return req[slots[i]].ToMillis() > req[slots[j]].ToMillis()
	})
	return slots
}

func (s *StatisticalContext) buildTimeframe(ctx context.Context, symbol string, tf timeframe.Code, referenceDate *int64) (TimeframeContext, error) {
	depth := depthFor(tf)
	bars := barBudget(tf)

	series, err := s.bars.LoadOHLCV(ctx, symbol, tf, bars, referenceDate)
	if err != nil {
		return TimeframeContext{}, err
	}

	regimeResult, err := s.regimeEngine.Detect(ctx, regime.Input{Symbol: symbol, Timeframe: tf, Count: bars, ReferenceDate: referenceDate})
	if err != nil {
		return TimeframeContext{}, err
	}

	tc := TimeframeContext{
		Timeframe: tf, Depth: depth, BarsRequested: bars, BarsAnalyzed: len(series), Regime: &regimeResult,
	}

	var (
		wg                         sync.WaitGroup
		ma                         MovingAverages
		trend                      TrendIndicators
		mom                        *MomentumIndicators
		vol                        *VolatilityIndicators
		volu                       *VolumeIndicators
		maErr, trendErr, momErr, volErr, voluErr error
	)

	withPSAR := depth != DepthLight

	wg.Add(1)
	go func() {
		defer wg.Done()
		ma, maErr = movingAverages(ctx, s.indicators, symbol, tf, bars, referenceDate)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		trend, trendErr = trendIndicators(ctx, s.indicators, symbol, tf, bars, referenceDate, withPSAR)
	}()

	if depth != DepthLight {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mom, momErr = momentumIndicators(ctx, s.indicators, symbol, tf, bars, referenceDate)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			vol, volErr = volatilityIndicators(ctx, s.indicators, symbol, tf, bars, referenceDate)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			volu, voluErr = volumeIndicators(ctx, s.indicators, symbol, tf, bars, referenceDate, series)
		}()
	}
	wg.Wait()

	for _, err := range []error{maErr, trendErr, momErr, volErr, voluErr} {
		if err != nil {
			return TimeframeContext{}, err
		}
	}

	tc.MovingAverages = ma
	tc.TrendIndicators = trend
	tc.PriceAction = priceAction(series)

	switch depth {
	case DepthLight:
		// price-action summary only, already set above.
	case DepthMedium, DepthFull:
		tc.MomentumIndicators = mom
		tc.VolatilityIndicators = vol
		tc.VolumeIndicators = volu
		sr := supportResistance(series, ma, &regimeResult)
		tc.SupportResistance = &sr
	}

	if depth == DepthFull {
		tc.MicroPatterns = detectMicroPatterns(series)
	}

	if depth != DepthLight {
		lastClose := 0.0
		if last, ok := series.Last(); ok {
			lastClose = last.Close
		}
		cc := checkCoherence(ma, trend, mom, lastClose)
		tc.CoherenceCheck = &cc
	}

	tc.Summary = summarize(tf, depth, regimeResult, tc)
	return tc, nil
}

func summarize(tf timeframe.Code, depth Depth, res regime.Result, tc TimeframeContext) string {
	return fmt.Sprintf("%s (%s depth): %s regime, %s direction, confidence %.2f, structure %s",
		tf, depth, res.Regime, res.Direction, res.Confidence, tc.PriceAction.Structure)
}
