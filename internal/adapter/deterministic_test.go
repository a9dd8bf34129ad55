package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicAdapter_FetchOHLC_IsReproducible(t *testing.T) {
	a := NewDeterministicAdapter("fake_test")
	a.SetBasePrice("BTC-USD", 67000)
	a.SetVolatility(0.02)

	ctx := context.Background()
	bars1, err := a.FetchOHLC(ctx, "BTC-USD", "1h", 20, 1_000_000_000)
	require.NoError(t, err)
	bars2, err := a.FetchOHLC(ctx, "BTC-USD", "1h", 20, 1_000_000_000)
	require.NoError(t, err)

	require.Len(t, bars1, 20)
	assert.Equal(t, bars1, bars2)
	require.NoError(t, bars1.Validate())
}

func TestDeterministicAdapter_FetchOHLC_ClampsToMaxBars(t *testing.T) {
	a := NewDeterministicAdapter("fake_test")
	bars, err := a.FetchOHLC(context.Background(), "ETH-USD", "1h", a.MaxBarsPerRequest()+100, 1_000_000_000)
	require.NoError(t, err)
	assert.Len(t, bars, a.MaxBarsPerRequest())
}

func TestDeterministicAdapter_ListPairs_UsesConfiguredSymbols(t *testing.T) {
	a := NewDeterministicAdapter("fake_test")
	a.SetBasePrice("BTC-USD", 67000)
	a.SetBasePrice("ETH-USD", 3200)

	pairs, err := a.ListPairs(context.Background())
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "BTC-USD", pairs[0].Symbol)
	assert.Equal(t, "BTC", pairs[0].Base)
	assert.Equal(t, "USD", pairs[0].Quote)
}

func TestDeterministicAdapter_Search_FiltersBySubstring(t *testing.T) {
	a := NewDeterministicAdapter("fake_test")
	results, err := a.Search(context.Background(), "btc")
	require.NoError(t, err)
	for _, p := range results {
		assert.Contains(t, p.Symbol, "BTC")
	}
}

func TestDeterministicAdapter_GetPrice_MatchesLastBarClose(t *testing.T) {
	a := NewDeterministicAdapter("fake_test")
	a.SetBasePrice("SOL-USD", 150)
	price, err := a.GetPrice(context.Background(), "SOL-USD")
	require.NoError(t, err)
	assert.Greater(t, price, 0.0)
}
