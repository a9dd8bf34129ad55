package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// Coverage classifies how much of a Get request the cache could satisfy,
// spec.md §4.2.
type Coverage string

const (
	CoverageFull    Coverage = "full"
	CoveragePartial Coverage = "partial"
	CoverageNone    Coverage = "none"
)

// Range is an inclusive timestamp window, in milliseconds.
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Missing reports the gap windows a partial hit still needs fetched.
type Missing struct {
	Before *Range `json:"before,omitempty"`
	After  *Range `json:"after,omitempty"`
}

// GetResult is the outcome of CacheManager.Get.
type GetResult struct {
	Coverage Coverage
	Bars     []model.Bar
	Missing  *Missing
}

// Counters is the persisted activity ledger for one manager instance,
// spec.md §4.2 "cache statistics".
type Counters struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	PartialHits  int64 `json:"partialHits"`
	Extensions   int64 `json:"extensions"`
	Merges       int64 `json:"merges"`
	Evictions    int64 `json:"evictions"`
	LastActivity int64 `json:"lastActivity"`
}

// KeyStats describes one cached (symbol, timeframe) segment for GetStats.
type KeyStats struct {
	Symbol    string
	Timeframe string
	Bars      int
	Start     int64
	End       int64
	TTL       time.Duration
}

// Stats is the aggregate return value of GetStats.
type Stats struct {
	Counters Counters
	Keys     []KeyStats
}

// Config controls CacheManager's retention policy, spec.md §6 "cache".
type Config struct {
	TTL                time.Duration
	MaxEntriesPerKey    int
	KeyPrefix          string
}

// DefaultConfig mirrors the teacher's documented defaults.
func DefaultConfig() Config {
	return Config{
		TTL:              1 * time.Hour,
		MaxEntriesPerKey: 1000,
		KeyPrefix:        "regimescope:cache",
	}
}

// Manager is the Redis-backed CacheManager from spec.md §4.2: per-symbol,
// per-timeframe segment storage with partial-range merging, LRU eviction,
// and activity counters.
type Manager struct {
	store Store
	cfg   Config
}

// NewManager wraps store with the CacheManager contract.
func NewManager(store Store, cfg Config) *Manager {
	return &Manager{store: store, cfg: cfg}
}

func (m *Manager) segmentKey(symbol string, tf timeframe.Code) string {
	return fmt.Sprintf("%s:%s:%s", m.cfg.KeyPrefix, symbol, tf)
}

func (m *Manager) statsKey() string {
	return fmt.Sprintf("%s:_stats", m.cfg.KeyPrefix)
}

// loadSegment reads and deserializes the segment for key, treating any
// store error or malformed payload as "not found" rather than surfacing it
// (spec.md §4.2: lookup failure degrades to a miss, it is never retried).
func (m *Manager) loadSegment(ctx context.Context, key string) (*Segment, bool) {
	raw, found, err := m.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache lookup failed, treating as miss")
		return nil, false
	}
	if !found {
		return nil, false
	}
	var seg Segment
	if err := json.Unmarshal(raw, &seg); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache payload corrupt, treating as miss")
		return nil, false
	}
	seg.reindex()
	return &seg, true
}

// Get looks up count closed bars ending at endTimestamp (or the segment's
// end, if nil) for (symbol, timeframe). Missing windows are expressed in
// timestamps spaced by the timeframe's bar duration.
func (m *Manager) Get(ctx context.Context, symbol string, tf timeframe.Code, count int, endTimestamp *int64) (GetResult, error) {
	key := m.segmentKey(symbol, tf)
	seg, found := m.loadSegment(ctx, key)
	if !found {
		m.bump(ctx, func(c *Counters) { c.Misses++ })
		return GetResult{Coverage: CoverageNone}, nil
	}

	end := seg.End
	if endTimestamp != nil {
		end = *endTimestamp
	}
	if end < seg.Start {
		m.bump(ctx, func(c *Counters) { c.Misses++ })
		return GetResult{Coverage: CoverageNone}, nil
	}

	durationMs := tf.ToMillis()
	all := seg.Range(seg.Start, end)
	bars := all
	if len(all) > count {
		bars = all[len(all)-count:]
	}

	if len(bars) >= count && end <= seg.End {
		m.bump(ctx, func(c *Counters) { c.Hits++ })
		return GetResult{Coverage: CoverageFull, Bars: bars}, nil
	}

	m.bump(ctx, func(c *Counters) { c.PartialHits++ })
	missing := &Missing{}
	if need := count - len(bars); need > 0 && durationMs > 0 {
		missing.Before = &Range{
			Start: seg.Start - durationMs*int64(need),
			End:   seg.Start - durationMs,
		}
	}
	if end > seg.End && durationMs > 0 {
		missing.After = &Range{Start: seg.End + durationMs, End: end}
	}
	return GetResult{Coverage: CoveragePartial, Bars: bars, Missing: missing}, nil
}

// Set merges bars into the (symbol, timeframe) segment, creating it if
// absent, evicting the oldest entries past MaxEntriesPerKey, and renewing
// the segment's TTL. A store write failure is always propagated; counter
// updates are fire-and-forget (spec.md §7).
func (m *Manager) Set(ctx context.Context, symbol string, tf timeframe.Code, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	sorted := make([]model.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	key := m.segmentKey(symbol, tf)
	seg, found := m.loadSegment(ctx, key)
	extended := found
	if !found {
		seg = NewSegment(nil, sorted[0].Timestamp)
	}
	inserted := seg.Merge(sorted)

	evicted := 0
	if seg.Count > m.cfg.MaxEntriesPerKey {
		evicted = seg.EvictOldest(seg.Count - m.cfg.MaxEntriesPerKey)
	}

	payload, err := json.Marshal(seg)
	if err != nil {
		return fmt.Errorf("cache set %s: marshal segment: %w", key, err)
	}
	if err := m.store.Set(ctx, key, payload, m.cfg.TTL); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}

	m.bump(ctx, func(c *Counters) {
		if extended {
			c.Extensions++
		}
		if inserted > 0 {
			c.Merges++
		}
		c.Evictions += int64(evicted)
	})
	return nil
}

// Clear deletes the segment for (symbol, timeframe), or every cached
// segment if either argument is nil.
func (m *Manager) Clear(ctx context.Context, symbol, tf *string) error {
	if symbol != nil && tf != nil {
		return m.store.Del(ctx, m.segmentKey(*symbol, timeframe.Code(*tf)))
	}
	keys, err := m.store.Keys(ctx, m.cfg.KeyPrefix+":*")
	if err != nil {
		return fmt.Errorf("cache clear: list keys: %w", err)
	}
	var toDelete []string
	for _, k := range keys {
		if k == m.statsKey() {
			continue
		}
		toDelete = append(toDelete, k)
	}
	if len(toDelete) == 0 {
		return nil
	}
	return m.store.Del(ctx, toDelete...)
}

// GetStats aggregates per-key segment metadata alongside the persisted
// activity counters.
func (m *Manager) GetStats(ctx context.Context) (Stats, error) {
	counters := m.loadCounters(ctx)

	keys, err := m.store.Keys(ctx, m.cfg.KeyPrefix+":*")
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: list keys: %w", err)
	}
	var out []KeyStats
	for _, k := range keys {
		if k == m.statsKey() {
			continue
		}
		seg, found := m.loadSegment(ctx, k)
		if !found {
			continue
		}
		ttl, err := m.store.TTL(ctx, k)
		if err != nil {
			ttl = 0
		}
		symbol, tf := splitKey(k, m.cfg.KeyPrefix)
		out = append(out, KeyStats{
			Symbol:    symbol,
			Timeframe: tf,
			Bars:      seg.Count,
			Start:     seg.Start,
			End:       seg.End,
			TTL:       ttl,
		})
	}
	return Stats{Counters: counters, Keys: out}, nil
}

// loadCounters restores the persisted counters, resetting to zero if the
// last recorded activity is stale beyond the configured TTL (spec.md §4.2:
// counters do not outlive the data they describe).
func (m *Manager) loadCounters(ctx context.Context) Counters {
	raw, found, err := m.store.Get(ctx, m.statsKey())
	if err != nil || !found {
		return Counters{}
	}
	var c Counters
	if err := json.Unmarshal(raw, &c); err != nil {
		return Counters{}
	}
	if m.cfg.TTL > 0 {
		age := time.Since(time.UnixMilli(c.LastActivity))
		if age > m.cfg.TTL {
			return Counters{}
		}
	}
	return c
}

// bump applies mutate to the persisted counters and writes them back.
// Failures are logged, never propagated (spec.md §7).
func (m *Manager) bump(ctx context.Context, mutate func(*Counters)) {
	c := m.loadCounters(ctx)
	mutate(&c)
	c.LastActivity = time.Now().UnixMilli()

	payload, err := json.Marshal(c)
	if err != nil {
		log.Warn().Err(err).Msg("cache counters: marshal failed")
		return
	}
	if err := m.store.Set(ctx, m.statsKey(), payload, m.cfg.TTL); err != nil {
		log.Warn().Err(err).Msg("cache counters: persist failed")
	}
}

func splitKey(key, prefix string) (symbol, tf string) {
	rest := key
	if len(key) > len(prefix)+1 {
		rest = key[len(prefix)+1:]
	}
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i] == ':' {
			return rest[:i], rest[i+1:]
		}
	}
	return rest, ""
}
