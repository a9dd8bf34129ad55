// Package adapter defines the exchange-facing boundary the data provider
// fetches OHLCV history and reference pairs through.
package adapter

import (
	"context"

	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// Pair is a tradable instrument as reported by ListPairs/Search.
type Pair struct {
	Symbol string `json:"symbol"`
	Base   string `json:"base"`
	Quote  string `json:"quote"`
}

// MarketAdapter is the venue-facing boundary DataProvider depends on
// (spec.md §4.3 "MarketAdapter"). Every adapter enforces its own hard
// per-request bar limit, reported by MaxBarsPerRequest, so the provider
// can batch backwards-in-time fetches correctly.
type MarketAdapter interface {
	// FetchOHLC returns up to limit bars of tf-resolution history for
	// symbol ending at or before endTimestamp (epoch ms). limit must not
	// exceed MaxBarsPerRequest.
	FetchOHLC(ctx context.Context, symbol string, tf timeframe.Code, limit int, endTimestamp int64) (model.BarSeries, error)

	// GetPrice returns the current reference price for symbol.
	GetPrice(ctx context.Context, symbol string) (float64, error)

	// Search returns pairs whose symbol matches query.
	Search(ctx context.Context, query string) ([]Pair, error)

	// ListPairs returns every pair the adapter serves.
	ListPairs(ctx context.Context) ([]Pair, error)

	// MaxBarsPerRequest is the adapter's hard per-call bar limit.
	MaxBarsPerRequest() int

	// Name identifies the adapter for logging and correlation.
	Name() string
}
