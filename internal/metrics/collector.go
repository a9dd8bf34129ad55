// Package metrics exposes the core's runtime health and throughput as
// Prometheus collectors: cache hit rate, provider circuit-breaker state, and
// regime/context-build counters. Shaped after the teacher's Collector, with
// the VADR/scan-latency/decile-analysis fields (a scanner concern this
// system doesn't have) replaced by the regime-detection and statistical-
// context counters this core actually produces.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// CircuitBreakerState mirrors a provider circuit breaker's externally
// visible state, reported by infra/breakers.
type CircuitBreakerState struct {
	Name           string    `json:"name"`
	State          string    `json:"state"` // "closed", "half-open", "open"
	FailureCount   int       `json:"failure_count"`
	SuccessCount   int       `json:"success_count"`
	LastFailure    time.Time `json:"last_failure,omitempty"`
	NextRetry      time.Time `json:"next_retry,omitempty"`
	ThresholdCount int       `json:"threshold_count"`
}

// Collector aggregates the core's Prometheus metrics plus the small amount
// of structured state (circuit breakers) the HTTP health surface reports
// verbatim rather than as a gauge.
type Collector struct {
	mu              sync.RWMutex
	circuitBreakers map[string]*CircuitBreakerState
	lastUpdate      time.Time

	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	cacheEvictions   prometheus.Counter
	regimeDetections *prometheus.CounterVec
	regimeLatency    prometheus.Histogram
	contextBuilds    prometheus.Counter
	alignmentScore   prometheus.Gauge
}

// NewCollector builds a Collector and registers its metrics against reg.
// Pass prometheus.NewRegistry() for an isolated registry (tests), or
// prometheus.DefaultRegisterer for the process-wide one.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		circuitBreakers: make(map[string]*CircuitBreakerState),
		lastUpdate:      time.Now(),

		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regimescope_cache_hits_total",
			Help: "CacheManager lookups resolved from a cached segment, full or partial.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regimescope_cache_misses_total",
			Help: "CacheManager lookups with no usable cached segment.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regimescope_cache_evictions_total",
			Help: "Bars evicted once a key passed max_bars_per_key.",
		}),
		regimeDetections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regimescope_regime_detections_total",
			Help: "RegimeEngine.Detect calls, labelled by the resulting regime.",
		}, []string{"regime"}),
		regimeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "regimescope_regime_detect_seconds",
			Help:    "RegimeEngine.Detect call latency.",
			Buckets: prometheus.DefBuckets,
		}),
		contextBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regimescope_statcontext_builds_total",
			Help: "StatisticalContext.Build calls completed.",
		}),
		alignmentScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "regimescope_alignment_score",
			Help: "Most recent AlignmentAggregator.Aggregate score.",
		}),
	}
	reg.MustRegister(
		c.cacheHits, c.cacheMisses, c.cacheEvictions,
		c.regimeDetections, c.regimeLatency, c.contextBuilds, c.alignmentScore,
	)
	return c
}

// RecordCacheHit increments the cache-hit counter.
func (c *Collector) RecordCacheHit() { c.cacheHits.Inc() }

// RecordCacheMiss increments the cache-miss counter.
func (c *Collector) RecordCacheMiss() { c.cacheMisses.Inc() }

// RecordCacheEviction increments the cache-eviction counter.
func (c *Collector) RecordCacheEviction() { c.cacheEvictions.Inc() }

// RecordRegimeDetection records a completed Detect call: its resulting
// regime label and wall-clock latency.
func (c *Collector) RecordRegimeDetection(regimeLabel string, latency time.Duration) {
	c.regimeDetections.WithLabelValues(regimeLabel).Inc()
	c.regimeLatency.Observe(latency.Seconds())
}

// RecordContextBuild increments the StatisticalContext.Build counter.
func (c *Collector) RecordContextBuild() { c.contextBuilds.Inc() }

// SetAlignmentScore records the most recent AlignmentAggregator score.
func (c *Collector) SetAlignmentScore(score float64) { c.alignmentScore.Set(score) }

// UpdateCircuitBreaker records a provider circuit breaker's current state,
// as reported by infra/breakers.Breaker.Stats.
func (c *Collector) UpdateCircuitBreaker(name string, state CircuitBreakerState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state.Name = name
	c.circuitBreakers[name] = &state
	c.lastUpdate = time.Now()

	log.Debug().Str("circuit", name).Str("state", state.State).Msg("circuit breaker state updated")
}

// CircuitBreakers returns a snapshot of all tracked circuit breaker states.
func (c *Collector) CircuitBreakers() map[string]CircuitBreakerState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]CircuitBreakerState, len(c.circuitBreakers))
	for name, state := range c.circuitBreakers {
		out[name] = *state
	}
	return out
}

// LastUpdate returns when the circuit-breaker snapshot was last refreshed.
func (c *Collector) LastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdate
}
