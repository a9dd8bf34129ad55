package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/regimescope/internal/adapter"
	"github.com/sawpanic/regimescope/internal/cache"
	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// limitedAdapter is a minimal MarketAdapter whose per-call bar limit is
// configurable, used to exercise DataProvider's batched-fetch path without
// depending on the deterministic fake's fixed 500-bar limit.
type limitedAdapter struct {
	maxBars   int
	fetchLog  []int
	available int
}

func (a *limitedAdapter) Name() string           { return "limited" }
func (a *limitedAdapter) MaxBarsPerRequest() int { return a.maxBars }

func (a *limitedAdapter) FetchOHLC(_ context.Context, _ string, tf timeframe.Code, limit int, endTimestamp int64) (model.BarSeries, error) {
	a.fetchLog = append(a.fetchLog, limit)
	durationMs := tf.ToMillis()
	n := limit
	if a.available > 0 && n > a.available {
		n = a.available
	}
	out := make(model.BarSeries, n)
	for i := 0; i < n; i++ {
		ts := endTimestamp - int64(n-1-i)*durationMs
		out[i] = model.Bar{Timestamp: ts, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}
	}
	if a.available > 0 {
		a.available -= n
	}
	return out, nil
}

func (a *limitedAdapter) GetPrice(context.Context, string) (float64, error)     { return 100, nil }
func (a *limitedAdapter) Search(context.Context, string) ([]adapter.Pair, error) { return nil, nil }
func (a *limitedAdapter) ListPairs(context.Context) ([]adapter.Pair, error)     { return nil, nil }

func newTestProvider(adp adapter.MarketAdapter) *Provider {
	mgr := cache.NewManager(cache.NewMemoryStore(), cache.DefaultConfig())
	return New(mgr, adp, Config{MaxDataPoints: 5000, DetectGapsDefault: true, UseCacheDefault: true})
}

func TestProvider_LoadOHLCV_MissThenHit(t *testing.T) {
	adp := &limitedAdapter{maxBars: 100}
	p := newTestProvider(adp)
	ctx := context.Background()

	res, err := p.LoadOHLCV(ctx, LoadParams{Symbol: "BTC-USD", Timeframe: "1h", Count: 20})
	require.NoError(t, err)
	assert.Equal(t, CacheMiss, res.FromCache)
	assert.Len(t, res.Bars, 20)

	res2, err := p.LoadOHLCV(ctx, LoadParams{Symbol: "BTC-USD", Timeframe: "1h", Count: 20, To: &res.LastTimestamp})
	require.NoError(t, err)
	assert.Equal(t, CacheHit, res2.FromCache)
	assert.Len(t, res2.Bars, 20)
}

func TestProvider_LoadOHLCV_BatchesPastAdapterLimit(t *testing.T) {
	adp := &limitedAdapter{maxBars: 10}
	p := newTestProvider(adp)
	ctx := context.Background()

	res, err := p.LoadOHLCV(ctx, LoadParams{Symbol: "ETH-USD", Timeframe: "1h", Count: 35, UseCache: boolPtr(false)})
	require.NoError(t, err)
	assert.Len(t, res.Bars, 35)
	assert.Greater(t, len(adp.fetchLog), 1, "expected multiple batched fetches past the adapter's 10-bar limit")
	for _, n := range adp.fetchLog {
		assert.LessOrEqual(t, n, 10)
	}
}

func TestProvider_LoadOHLCV_ReferenceDateFiltersOpenBar(t *testing.T) {
	adp := &limitedAdapter{maxBars: 100}
	p := newTestProvider(adp)
	ctx := context.Background()

	ref := int64(1_000_000_000)
	res, err := p.LoadOHLCV(ctx, LoadParams{
		Symbol: "BTC-USD", Timeframe: "1h", Count: 10, ReferenceDate: &ref, UseCache: boolPtr(false),
	})
	require.NoError(t, err)
	durationMs := timeframe.Code("1h").ToMillis()
	for _, b := range res.Bars {
		assert.LessOrEqual(t, b.Timestamp+durationMs, ref)
	}
}

func TestProvider_LoadOHLCV_InsufficientHistory_Errors(t *testing.T) {
	adp := &limitedAdapter{maxBars: 100, available: 5}
	p := newTestProvider(adp)
	ctx := context.Background()

	_, err := p.LoadOHLCV(ctx, LoadParams{Symbol: "BTC-USD", Timeframe: "1h", Count: 50, UseCache: boolPtr(false)})
	assert.Error(t, err)
}

func TestProvider_LoadOHLCV_DetectsGaps(t *testing.T) {
	adp := &limitedAdapter{maxBars: 100}
	p := newTestProvider(adp)
	ctx := context.Background()

	res, err := p.LoadOHLCV(ctx, LoadParams{Symbol: "BTC-USD", Timeframe: "1h", Count: 10, UseCache: boolPtr(false), DetectGaps: boolPtr(true)})
	require.NoError(t, err)
	assert.Empty(t, res.Gaps, "contiguous synthetic series should report no gaps")
}

func TestParseReferenceDate_AcceptsEpochAndISO(t *testing.T) {
	ms, err := ParseReferenceDate("1700000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), ms)

	_, err = ParseReferenceDate("2024-01-01T00:00:00Z")
	require.NoError(t, err)

	_, err = ParseReferenceDate("not-a-date")
	assert.Error(t, err)
}

func boolPtr(b bool) *bool { return &b }
