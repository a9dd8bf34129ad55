// Package provider implements the DataProvider orchestration layer from
// spec.md §4.3: cache-then-adapter OHLCV loading with partial-range
// merging, batched backwards-in-time fetching, closed-bar filtering, and
// gap detection.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/regimescope/internal/adapter"
	"github.com/sawpanic/regimescope/internal/apperrors"
	"github.com/sawpanic/regimescope/internal/cache"
	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/timeframe"
	"github.com/sawpanic/regimescope/infra/breakers"
)

// CacheSource reports where the returned bars came from, mirroring
// spec.md §4.3's `fromCache ∈ {true,false,"partial","partial_degraded"}`.
type CacheSource string

const (
	CacheHit             CacheSource = "true"
	CacheMiss            CacheSource = "false"
	CachePartial         CacheSource = "partial"
	CachePartialDegraded CacheSource = "partial_degraded"
)

// Config is the DataProvider section of internal/config (spec.md §6).
type Config struct {
	MaxDataPoints     int
	DetectGapsDefault bool
	UseCacheDefault   bool
}

// LoadParams is the loadOHLCV public contract input (spec.md §4.3).
type LoadParams struct {
	Symbol        string
	Timeframe     timeframe.Code
	Count         int
	From          *int64
	To            *int64
	ReferenceDate *int64
	UseCache      *bool
	DetectGaps    *bool
}

// LoadResult is the loadOHLCV public contract output.
type LoadResult struct {
	Bars           model.BarSeries
	FirstTimestamp int64
	LastTimestamp  int64
	Count          int
	Gaps           []model.Gap
	GapCount       int
	FromCache      CacheSource
	LoadDuration   time.Duration
	LoadedAt       int64
	ReferenceDate  *int64
}

// Provider is the DataProvider reference implementation.
type Provider struct {
	cache   *cache.Manager
	adapter adapter.MarketAdapter
	breaker *breakers.Breaker
	cfg     Config
}

// New wires a cache manager and market adapter behind a circuit breaker
// named after the adapter (spec.md §5 "circuit-broken adapter fetch").
func New(cacheMgr *cache.Manager, adp adapter.MarketAdapter, cfg Config) *Provider {
	return &Provider{
		cache:   cacheMgr,
		adapter: adp,
		breaker: breakers.New("data-provider:" + adp.Name()),
		cfg:     cfg,
	}
}

// LoadOHLCV implements spec.md §4.3's six-step algorithm.
func (p *Provider) LoadOHLCV(ctx context.Context, params LoadParams) (LoadResult, error) {
	start := time.Now()
	correlationID := uuid.New().String()
	logger := log.With().Str("correlationId", correlationID).Str("symbol", params.Symbol).
		Str("timeframe", string(params.Timeframe)).Logger()

	if err := validate(params); err != nil {
		return LoadResult{}, err
	}
	durationMs := params.Timeframe.ToMillis()
	useCache := p.cfg.UseCacheDefault
	if params.UseCache != nil {
		useCache = *params.UseCache
	}
	detectGaps := p.cfg.DetectGapsDefault
	if params.DetectGaps != nil {
		detectGaps = *params.DetectGaps
	}

	var (
		bars      model.BarSeries
		fromCache CacheSource
	)

	if useCache {
		cacheEnd := params.To
		if params.ReferenceDate != nil {
			adjusted := *params.ReferenceDate - durationMs
			cacheEnd = &adjusted
		}
		result, err := p.cache.Get(ctx, params.Symbol, params.Timeframe, params.Count, cacheEnd)
		if err != nil {
			logger.Warn().Err(err).Msg("cache get failed, falling through to adapter")
		}

		switch result.Coverage {
		case cache.CoverageFull:
			bars = result.Bars
			fromCache = CacheHit
		case cache.CoveragePartial:
			merged, degraded, ferr := p.fillPartial(ctx, params, result, durationMs)
			if ferr != nil {
				return LoadResult{}, ferr
			}
			if degraded {
				fromCache = CachePartialDegraded
				bars = merged
			} else if merged != nil {
				fromCache = CachePartial
				bars = merged
			}
		}
	}

	if bars == nil {
		fetched, err := p.fetchFresh(ctx, params, durationMs)
		if err != nil {
			return LoadResult{}, err
		}
		bars = fetched
		fromCache = CacheMiss
	}

	bars = dedupeSortValidate(bars)
	if err := validateBars(bars); err != nil {
		return LoadResult{}, err
	}

	if params.ReferenceDate != nil {
		bars = filterClosed(bars, *params.ReferenceDate, durationMs)
	}
	if len(bars) < params.Count {
		// A degraded partial fill returns the cached subset it has.
		if fromCache != CachePartialDegraded || len(bars) == 0 {
			return LoadResult{}, apperrors.Insufficient(params.Symbol, string(params.Timeframe), len(bars), params.Count)
		}
	} else {
		bars = bars[len(bars)-params.Count:]
	}

	var gaps []model.Gap
	if detectGaps {
		gaps = model.DetectGaps(bars, durationMs)
	}

	if useCache {
		if err := p.cache.Set(ctx, params.Symbol, params.Timeframe, bars); err != nil {
			return LoadResult{}, apperrors.Context(err, "provider.loadOHLCV.cacheWrite", map[string]interface{}{"symbol": params.Symbol})
		}
	}

	return LoadResult{
		Bars:           bars,
		FirstTimestamp: bars[0].Timestamp,
		LastTimestamp:  bars[len(bars)-1].Timestamp,
		Count:          len(bars),
		Gaps:           gaps,
		GapCount:       len(gaps),
		FromCache:      fromCache,
		LoadDuration:   time.Since(start),
		LoadedAt:       time.Now().UnixMilli(),
		ReferenceDate:  params.ReferenceDate,
	}, nil
}

// fillPartial fetches the cache's reported missing windows from the
// adapter, bounded by count-|cached|. On adapter failure, it degrades
// gracefully if at least half of count is already cached (spec.md §4.3
// step 2), returning (nil, false, nil) to signal "fall through to a full
// fetch" when neither condition holds.
func (p *Provider) fillPartial(ctx context.Context, params LoadParams, result cache.GetResult, durationMs int64) (model.BarSeries, bool, error) {
	bound := params.Count - len(result.Bars)
	if bound < 0 {
		bound = 0
	}

	var fetched model.BarSeries
	fetchErr := func() error {
		if result.Missing == nil {
			return nil
		}
		if result.Missing.Before != nil {
			batch, err := p.fetchBatched(ctx, params.Symbol, params.Timeframe, bound, result.Missing.Before.End, durationMs)
			if err != nil {
				return err
			}
			fetched = append(fetched, batch...)
		}
		if result.Missing.After != nil {
			count := int((result.Missing.After.End-result.Missing.After.Start)/durationMs) + 1
			if count > bound {
				count = bound
			}
			batch, err := p.fetchBatched(ctx, params.Symbol, params.Timeframe, count, result.Missing.After.End, durationMs)
			if err != nil {
				return err
			}
			fetched = append(fetched, batch...)
		}
		return nil
	}()

	if fetchErr != nil {
		if 2*len(result.Bars) >= params.Count {
			return result.Bars, true, nil
		}
		return nil, false, nil
	}

	if err := p.cache.Set(ctx, params.Symbol, params.Timeframe, fetched); err != nil {
		log.Warn().Err(err).Str("symbol", params.Symbol).Msg("failed to persist partial-fill bars")
	}

	merged := append(model.BarSeries{}, result.Bars...)
	merged = append(merged, fetched...)
	return merged, false, nil
}

// fetchFresh resolves the miss/fallthrough path: compute endTime and
// fetchCount (spec.md §4.3 step 3) and delegate to fetchBatched.
func (p *Provider) fetchFresh(ctx context.Context, params LoadParams, durationMs int64) (model.BarSeries, error) {
	endTime := time.Now().UnixMilli()
	if params.ReferenceDate != nil {
		endTime = *params.ReferenceDate
	} else if params.To != nil {
		endTime = *params.To
	}

	fetchCount := params.Count
	if params.ReferenceDate != nil {
		fetchCount = params.Count + 1
	}
	return p.fetchBatched(ctx, params.Symbol, params.Timeframe, fetchCount, endTime, durationMs)
}

// fetchBatched honours the adapter's hard per-call bar limit and the
// configured max points, fetching backwards from endTime in adapterLimit
// batches until satisfied or the adapter runs out of history (spec.md
// §4.3 step 3).
func (p *Provider) fetchBatched(ctx context.Context, symbol string, tf timeframe.Code, totalCount int, endTime int64, durationMs int64) (model.BarSeries, error) {
	if totalCount <= 0 {
		return nil, nil
	}
	limit := p.adapter.MaxBarsPerRequest()
	maxAllowed := limit
	if p.cfg.MaxDataPoints > 0 && p.cfg.MaxDataPoints < maxAllowed {
		maxAllowed = p.cfg.MaxDataPoints
	}
	if totalCount <= maxAllowed {
		return p.fetchOnce(ctx, symbol, tf, totalCount, endTime)
	}

	var all model.BarSeries
	remaining := totalCount
	currentEnd := endTime
	for remaining > 0 {
		batchSize := remaining
		if batchSize > limit {
			batchSize = limit
		}
		batch, err := p.fetchOnce(ctx, symbol, tf, batchSize, currentEnd)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(batch, all...)
		remaining -= len(batch)
		if len(batch) < batchSize {
			break
		}
		currentEnd = batch[0].Timestamp - durationMs
	}
	return all, nil
}

func (p *Provider) fetchOnce(ctx context.Context, symbol string, tf timeframe.Code, count int, endTime int64) (model.BarSeries, error) {
	out, err := p.breaker.Execute(func() (any, error) {
		return p.adapter.FetchOHLC(ctx, symbol, tf, count, endTime)
	})
	if err != nil {
		return nil, apperrors.Context(err, "provider.fetch", map[string]interface{}{
			"symbol": symbol, "timeframe": string(tf), "count": count,
		})
	}
	series, _ := out.(model.BarSeries)
	return series, nil
}

func validate(params LoadParams) error {
	if params.Symbol == "" {
		return fmt.Errorf("provider.loadOHLCV: empty symbol: %w", apperrors.ErrInvalidInput)
	}
	if params.Count < 1 {
		return fmt.Errorf("provider.loadOHLCV: count must be >= 1, got %d: %w", params.Count, apperrors.ErrInvalidInput)
	}
	if _, err := timeframe.Parse(string(params.Timeframe)); err != nil {
		return err
	}
	return nil
}

func dedupeSortValidate(bars model.BarSeries) model.BarSeries {
	seen := make(map[int64]model.Bar, len(bars))
	for _, b := range bars {
		seen[b.Timestamp] = b
	}
	out := make(model.BarSeries, 0, len(seen))
	for _, b := range seen {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func validateBars(bars model.BarSeries) error {
	for _, b := range bars {
		if err := b.Validate(); err != nil {
			return apperrors.Context(err, "provider.validateBars", nil)
		}
	}
	return nil
}

func filterClosed(bars model.BarSeries, referenceDate, durationMs int64) model.BarSeries {
	out := make(model.BarSeries, 0, len(bars))
	for _, b := range bars {
		if b.ClosesBy(referenceDate, durationMs) {
			out = append(out, b)
		}
	}
	return out
}

// ParseReferenceDate accepts an epoch-millisecond number (as a string) or
// an RFC3339 timestamp and returns epoch milliseconds, spec.md §4.3 step 1
// ("accept epoch number, ISO string, or Date-equivalent; reject NaN").
func ParseReferenceDate(v string) (int64, error) {
	if v == "" {
		return 0, fmt.Errorf("provider.parseReferenceDate: empty value: %w", apperrors.ErrInvalidInput)
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return 0, fmt.Errorf("provider.parseReferenceDate: %q is not epoch-ms or RFC3339: %w", v, apperrors.ErrInvalidInput)
	}
	return t.UnixMilli(), nil
}

// Health reports this provider's circuit breaker name, state, and request
// counts, for the HTTP health surface.
func (p *Provider) Health() (name, state string, requests, failures int64) {
	n, s, counts := p.breaker.Stats()
	return n, s, counts.Requests, counts.TotalFailures
}

// BarSourceAdapter narrows a Provider down to indicator.BarSource's single
// LoadOHLCV(ctx, symbol, tf, count, referenceDate) method, so the same
// Provider instance can satisfy both its own DataProvider surface and the
// IndicatorEngine/RegimeEngine/StatisticalContext collaborator contracts
// without those packages depending on LoadParams/LoadResult.
type BarSourceAdapter struct {
	p *Provider
}

// AsBarSource wraps p behind the indicator.BarSource contract.
func AsBarSource(p *Provider) BarSourceAdapter {
	return BarSourceAdapter{p: p}
}

// LoadOHLCV implements indicator.BarSource.
func (a BarSourceAdapter) LoadOHLCV(ctx context.Context, symbol string, tf timeframe.Code, count int, referenceDate *int64) (model.BarSeries, error) {
	res, err := a.p.LoadOHLCV(ctx, LoadParams{Symbol: symbol, Timeframe: tf, Count: count, ReferenceDate: referenceDate})
	if err != nil {
		return nil, err
	}
	return res.Bars, nil
}
