package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedAdapter_PassesThroughCalls(t *testing.T) {
	inner := NewDeterministicAdapter("fake_test")
	inner.SetBasePrice("BTC-USD", 67000)
	limited := NewRateLimited(inner, 100, 10)

	bars, err := limited.FetchOHLC(context.Background(), "BTC-USD", "1h", 5, 1_000_000_000)
	require.NoError(t, err)
	assert.Len(t, bars, 5)

	assert.Equal(t, "fake_test", limited.Name())
	assert.Equal(t, inner.MaxBarsPerRequest(), limited.MaxBarsPerRequest())
}

func TestRateLimitedAdapter_WaitsForTokenWhenExhausted(t *testing.T) {
	inner := NewDeterministicAdapter("fake_test")
	limited := NewRateLimited(inner, 2, 1) // 1 burst token, refills at 2/s

	ctx := context.Background()
	_, err := limited.GetPrice(ctx, "ETH-USD")
	require.NoError(t, err)

	start := time.Now()
	_, err = limited.GetPrice(ctx, "ETH-USD")
	require.NoError(t, err)
	assert.Greater(t, time.Since(start), time.Duration(0))
}

func TestRateLimitedAdapter_ContextCancellation_ReturnsError(t *testing.T) {
	inner := NewDeterministicAdapter("fake_test")
	limited := NewRateLimited(inner, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := limited.GetPrice(ctx, "BTC-USD")
	require.NoError(t, err)

	cancel()
	_, err = limited.GetPrice(ctx, "BTC-USD")
	assert.Error(t, err)
}
