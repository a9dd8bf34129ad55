package adapter

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// DeterministicAdapter generates reproducible synthetic OHLCV history from
// a per-symbol base price, volatility, and trend bias, grounded on the
// teacher's fnv-hash-seeded fake data generator
// (internal/infrastructure/datafacade/fakes/deterministic.go). It exists
// for offline development and tests where no live venue is reachable.
type DeterministicAdapter struct {
	mu         sync.RWMutex
	name       string
	basePrices map[string]float64
	volatility float64
	trendBias  float64
	maxBars    int
}

// NewDeterministicAdapter returns an adapter named name with the teacher's
// documented defaults (2% volatility, no trend bias, 500-bar hard limit).
func NewDeterministicAdapter(name string) *DeterministicAdapter {
	return &DeterministicAdapter{
		name:       name,
		basePrices: make(map[string]float64),
		volatility: 0.02,
		maxBars:    500,
	}
}

// SetVolatility sets the per-bar return standard deviation as a fraction
// of price (e.g. 0.02 = 2%).
func (a *DeterministicAdapter) SetVolatility(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.volatility = v
}

// SetTrendBias sets a constant per-bar drift as a fraction of price.
func (a *DeterministicAdapter) SetTrendBias(b float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trendBias = b
}

// SetBasePrice fixes the anchor price a symbol's series is generated
// around.
func (a *DeterministicAdapter) SetBasePrice(symbol string, price float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.basePrices[symbol] = price
}

func (a *DeterministicAdapter) Name() string { return a.name }

func (a *DeterministicAdapter) MaxBarsPerRequest() int { return a.maxBars }

func (a *DeterministicAdapter) basePrice(symbol string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if p, ok := a.basePrices[symbol]; ok {
		return p
	}
	hasher := fnv.New32a()
	hasher.Write([]byte(symbol))
	hash := hasher.Sum32()
	return 1.0 + float64(hash%100_000)/100.0 // $1.00 to $1000.99
}

// deterministicRNG is a tiny LCG seeded per-bar so successive calls for
// the same (symbol, timeframe, timestamp) always reproduce the same bar.
type deterministicRNG struct {
	seed uint32
}

func (r *deterministicRNG) next() float64 {
	r.seed = r.seed*1_103_515_245 + 12_345
	return float64(r.seed%10_000)/5_000.0 - 1.0 // [-1, 1)
}

func seedFor(symbol string, tf timeframe.Code, ts int64) uint32 {
	hasher := fnv.New32a()
	fmt.Fprintf(hasher, "%s-%s-%d", symbol, tf, ts)
	return hasher.Sum32()
}

// FetchOHLC synthesizes limit bars of tf resolution ending at endTimestamp
// via a random walk with a constant trend-bias drift, each bar's step
// seeded from (symbol, timeframe, timestamp) and the walk starting at the
// symbol's base price, so repeated calls for the same window are
// byte-identical.
func (a *DeterministicAdapter) FetchOHLC(_ context.Context, symbol string, tf timeframe.Code, limit int, endTimestamp int64) (model.BarSeries, error) {
	if limit <= 0 {
		return nil, nil
	}
	if limit > a.maxBars {
		limit = a.maxBars
	}
	durationMs := tf.ToMillis()
	if durationMs <= 0 {
		return nil, fmt.Errorf("deterministic adapter: unresolvable timeframe %q", tf)
	}

	a.mu.RLock()
	vol, bias := a.volatility, a.trendBias
	a.mu.RUnlock()
	price := a.basePrice(symbol)

	startTs := endTimestamp - int64(limit-1)*durationMs
	bars := make(model.BarSeries, limit)
	for i := 0; i < limit; i++ {
		ts := startTs + int64(i)*durationMs
		rng := &deterministicRNG{seed: seedFor(symbol, tf, ts)}

		open := price
		ret := bias + vol*rng.next()
		close := open * (1 + ret)
		wick := vol * 0.5 * (rng.next() + 1) // [0, vol]
		high := math.Max(open, close) * (1 + wick)
		low := math.Min(open, close) * (1 - wick)
		if low < 0 {
			low = 0
		}
		volume := 1_000 + (rng.next()+1)*4_500

		bars[i] = model.Bar{
			Timestamp: ts,
			Open:      round2(open),
			High:      round2(high),
			Low:       round2(low),
			Close:     round2(close),
			Volume:    round2(volume),
		}
		price = close
	}
	return bars, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GetPrice returns the most recent synthetic close.
func (a *DeterministicAdapter) GetPrice(ctx context.Context, symbol string) (float64, error) {
	bars, err := a.FetchOHLC(ctx, symbol, "1m", 1, time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	last, ok := bars.Last()
	if !ok {
		return 0, fmt.Errorf("deterministic adapter: no price for %s", symbol)
	}
	return last.Close, nil
}

// ListPairs returns every symbol this adapter has a fixed base price for,
// or the default universe when none is set, sorted for deterministic
// output.
func (a *DeterministicAdapter) ListPairs(context.Context) ([]Pair, error) {
	a.mu.RLock()
	symbols := make([]string, 0, len(a.basePrices))
	for s := range a.basePrices {
		symbols = append(symbols, s)
	}
	a.mu.RUnlock()
	if len(symbols) == 0 {
		symbols = DefaultUniverse()
	}
	sort.Strings(symbols)

	out := make([]Pair, len(symbols))
	for i, s := range symbols {
		out[i] = toPair(s)
	}
	return out, nil
}

// Search filters ListPairs by substring match against the symbol.
func (a *DeterministicAdapter) Search(ctx context.Context, query string) ([]Pair, error) {
	all, err := a.ListPairs(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToUpper(query)
	var out []Pair
	for _, p := range all {
		if strings.Contains(p.Symbol, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func toPair(symbol string) Pair {
	if i := strings.IndexAny(symbol, "-/"); i >= 0 {
		return Pair{Symbol: symbol, Base: symbol[:i], Quote: symbol[i+1:]}
	}
	return Pair{Symbol: symbol}
}

// DefaultUniverse mirrors the teacher's fake-exchange symbol list.
func DefaultUniverse() []string {
	return []string{
		"BTC-USD", "ETH-USD", "SOL-USD", "ADA-USD", "LINK-USD",
		"DOT-USD", "MATIC-USD", "AVAX-USD", "UNI-USD", "LTC-USD",
	}
}
