package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/regimescope/internal/adapter"
	"github.com/sawpanic/regimescope/internal/cache"
	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/provider"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

type stubAdapter struct{}

func (stubAdapter) Name() string           { return "stub" }
func (stubAdapter) MaxBarsPerRequest() int { return 500 }
func (stubAdapter) FetchOHLC(_ context.Context, _ string, tf timeframe.Code, limit int, end int64) (model.BarSeries, error) {
	out := make(model.BarSeries, limit)
	for i := 0; i < limit; i++ {
		out[i] = model.Bar{Timestamp: end - int64(limit-1-i)*tf.ToMillis(), Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}
	}
	return out, nil
}
func (stubAdapter) GetPrice(context.Context, string) (float64, error)      { return 100, nil }
func (stubAdapter) Search(context.Context, string) ([]adapter.Pair, error)  { return nil, nil }
func (stubAdapter) ListPairs(context.Context) ([]adapter.Pair, error)       { return nil, nil }

func newTestHandlers(t *testing.T) (*healthHandler, *cache.Manager) {
	t.Helper()
	mgr := cache.NewManager(cache.NewMemoryStore(), cache.DefaultConfig())
	prov := provider.New(mgr, stubAdapter{}, provider.Config{MaxDataPoints: 5000, DetectGapsDefault: true, UseCacheDefault: true})
	return newHealthHandler(mgr, prov, "v-test", "build-test"), mgr
}

func TestHealthHandler_ReportsHealthyClosedBreaker(t *testing.T) {
	h, _ := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "closed", resp.Provider.State)
	assert.Equal(t, "v-test", resp.Version)
}

func TestCacheStats_ReturnsJSONStats(t *testing.T) {
	h, mgr := newTestHandlers(t)
	require.NoError(t, mgr.Set(context.Background(), "BTC-USD", "1h", model.BarSeries{
		{Timestamp: 1000, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	}))

	req := httptest.NewRequest(http.MethodGet, "/cache/stats", nil)
	rr := httptest.NewRecorder()
	h.cacheStats(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
}
