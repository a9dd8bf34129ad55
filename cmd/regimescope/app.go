package main

import (
	"fmt"

	"github.com/sawpanic/regimescope/internal/adapter"
	"github.com/sawpanic/regimescope/internal/cache"
	"github.com/sawpanic/regimescope/internal/config"
	"github.com/sawpanic/regimescope/internal/indicator"
	"github.com/sawpanic/regimescope/internal/metrics"
	"github.com/sawpanic/regimescope/internal/provider"
	"github.com/sawpanic/regimescope/internal/regime"
	"github.com/sawpanic/regimescope/internal/statcontext"

	"github.com/prometheus/client_golang/prometheus"
)

// app bundles the wired collaborators every subcommand needs, built once
// from a config.Config the way cmd/cryptorun wires its application package
// at the top of each subcommand's RunE.
type app struct {
	cfg        config.Config
	cacheMgr   *cache.Manager
	provider   *provider.Provider
	indicators indicator.Engine
	regime     regime.Engine
	statctx    *statcontext.StatisticalContext
	metrics    *metrics.Collector
}

func newApp(configPath string) (*app, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = *loaded
	}

	var store cache.Store = cache.NewMemoryStore()
	if cfg.Cache.Enabled && cfg.Cache.ConnectOnStart {
		redisStore, err := cache.NewRedisStore(cfg.Cache.ToRedisConfig())
		if err != nil {
			return nil, fmt.Errorf("connecting to redis cache: %w", err)
		}
		store = redisStore
	}
	cacheMgr := cache.NewManager(store, cfg.Cache.ToManagerConfig())

	adp := adapter.NewRateLimited(
		adapter.NewDeterministicAdapter("deterministic"),
		cfg.DataProvider.AdapterRPS, cfg.DataProvider.AdapterBurst,
	)
	prov := provider.New(cacheMgr, adp, cfg.DataProvider.ToProviderConfig())
	barSource := provider.AsBarSource(prov)

	indicatorEngine := indicator.NewReferenceEngine(barSource)
	regimeEngine := regime.NewReferenceDetector(indicatorEngine, barSource, cfg.Regime.ToRegimeConfig())
	statCtx := statcontext.New(barSource, indicatorEngine, regimeEngine).WithRequestTimeout(cfg.Context.Timeout())

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	return &app{
		cfg: cfg, cacheMgr: cacheMgr, provider: prov,
		indicators: indicatorEngine, regime: regimeEngine, statctx: statCtx,
		metrics: collector,
	}, nil
}
