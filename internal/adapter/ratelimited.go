package adapter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// RateLimitedAdapter wraps a MarketAdapter with a token-bucket limiter so a
// single venue-facing adapter never exceeds its provider's requests-per-second
// budget, grounded on the teacher's per-host limiter
// (internal/net/ratelimit/limiter.go) but scoped to the single adapter this
// DataProvider holds rather than a per-host map.
type RateLimitedAdapter struct {
	inner   MarketAdapter
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a limiter allowing rps requests per second
// with burst capacity for short bursts above that rate.
func NewRateLimited(inner MarketAdapter, rps float64, burst int) *RateLimitedAdapter {
	return &RateLimitedAdapter{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (a *RateLimitedAdapter) Name() string { return a.inner.Name() }

func (a *RateLimitedAdapter) MaxBarsPerRequest() int { return a.inner.MaxBarsPerRequest() }

func (a *RateLimitedAdapter) FetchOHLC(ctx context.Context, symbol string, tf timeframe.Code, limit int, endTimestamp int64) (model.BarSeries, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return a.inner.FetchOHLC(ctx, symbol, tf, limit, endTimestamp)
}

func (a *RateLimitedAdapter) GetPrice(ctx context.Context, symbol string) (float64, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return a.inner.GetPrice(ctx, symbol)
}

func (a *RateLimitedAdapter) Search(ctx context.Context, query string) ([]Pair, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return a.inner.Search(ctx, query)
}

func (a *RateLimitedAdapter) ListPairs(ctx context.Context) ([]Pair, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return a.inner.ListPairs(ctx)
}

// Tokens reports the limiter's currently available tokens, for diagnostics.
func (a *RateLimitedAdapter) Tokens() float64 {
	return a.limiter.Tokens()
}
