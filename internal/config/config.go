// Package config loads and validates the core's YAML-file configuration,
// spec.md §6: cache, data-provider, regime-engine, and statistical-context
// sections. Shaped after internal/config/providers.go's
// Load*Config(path)/Validate() pattern.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/regimescope/internal/cache"
	"github.com/sawpanic/regimescope/internal/provider"
	"github.com/sawpanic/regimescope/internal/regime"
)

// CacheConfig is the `Cache` section from spec.md §6.
type CacheConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Password       string `yaml:"password,omitempty"`
	DB             int    `yaml:"db"`
	TTLSeconds     int    `yaml:"ttl_seconds"`
	MaxBarsPerKey  int    `yaml:"max_bars_per_key"`
	ConnectOnStart bool   `yaml:"connect_on_start"`
}

// ToManagerConfig converts to the cache package's runtime Config.
func (c CacheConfig) ToManagerConfig() cache.Config {
	return cache.Config{
		TTL:              time.Duration(c.TTLSeconds) * time.Second,
		MaxEntriesPerKey: c.MaxBarsPerKey,
	}
}

// ToRedisConfig converts to the cache package's Redis connection options.
func (c CacheConfig) ToRedisConfig() cache.RedisConfig {
	return cache.RedisConfig{Host: c.Host, Port: c.Port, Password: c.Password, DB: c.DB}
}

func (c CacheConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Host == "" {
		return fmt.Errorf("cache.host cannot be empty when cache.enabled")
	}
	if c.Port <= 0 {
		return fmt.Errorf("cache.port must be positive, got %d", c.Port)
	}
	if c.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be positive, got %d", c.TTLSeconds)
	}
	if c.MaxBarsPerKey <= 0 {
		return fmt.Errorf("cache.max_bars_per_key must be positive, got %d", c.MaxBarsPerKey)
	}
	return nil
}

// DataProviderConfig is the `DataProvider` section from spec.md §6.
type DataProviderConfig struct {
	MaxDataPoints     int     `yaml:"max_data_points"`
	DetectGapsDefault bool    `yaml:"detect_gaps_default"`
	UseCacheDefault   bool    `yaml:"use_cache_default"`
	AdapterRPS        float64 `yaml:"adapter_rps"`
	AdapterBurst      int     `yaml:"adapter_burst"`
}

// ToProviderConfig converts to the provider package's runtime Config.
func (d DataProviderConfig) ToProviderConfig() provider.Config {
	return provider.Config{
		MaxDataPoints:     d.MaxDataPoints,
		DetectGapsDefault: d.DetectGapsDefault,
		UseCacheDefault:   d.UseCacheDefault,
	}
}

func (d DataProviderConfig) validate() error {
	if d.MaxDataPoints <= 0 {
		return fmt.Errorf("data_provider.max_data_points must be positive, got %d", d.MaxDataPoints)
	}
	if d.AdapterRPS <= 0 {
		return fmt.Errorf("data_provider.adapter_rps must be positive, got %f", d.AdapterRPS)
	}
	if d.AdapterBurst <= 0 {
		return fmt.Errorf("data_provider.adapter_burst must be positive, got %d", d.AdapterBurst)
	}
	return nil
}

// VolatilityConfig mirrors regime.VolatilityConfig's YAML shape.
type VolatilityConfig struct {
	MinMultiplier float64 `yaml:"min_multiplier"`
	MaxMultiplier float64 `yaml:"max_multiplier"`
	// Formula selects the Step A ratio->multiplier mapping: "v1" or "v2".
	Formula string `yaml:"formula"`
}

// AdaptiveConfig mirrors regime.AdaptiveConfig's YAML shape.
type AdaptiveConfig struct {
	Enabled          bool             `yaml:"enabled"`
	VolatilityWindow int              `yaml:"volatility_window"`
	Volatility       VolatilityConfig `yaml:"volatility"`
}

// RegimeConfig is the `RegimeEngine` section from spec.md §6.
type RegimeConfig struct {
	ADXPeriod            int            `yaml:"adx_period"`
	ERPeriod             int            `yaml:"er_period"`
	ERSmoothPeriod       int            `yaml:"er_smooth_period"`
	ATRShortPeriod       int            `yaml:"atr_short_period"`
	ATRLongPeriod        int            `yaml:"atr_long_period"`
	MAShortPeriod        int            `yaml:"ma_short_period"`
	MALongPeriod         int            `yaml:"ma_long_period"`
	AdxSlopePeriod       int            `yaml:"adx_slope_period"`
	AdxSlopeThreshold    float64        `yaml:"adx_slope_threshold"`
	VolumePeriod         int            `yaml:"volume_period"`
	VolumeSpikeThreshold float64        `yaml:"volume_spike_threshold"`
	CompressionWindow    int            `yaml:"compression_window"`
	CompressionThreshold float64        `yaml:"compression_threshold"`
	Adaptive             AdaptiveConfig `yaml:"adaptive"`
	MinBars              int            `yaml:"min_bars"`
}

// ToRegimeConfig converts to the regime package's runtime Config.
func (r RegimeConfig) ToRegimeConfig() regime.Config {
	return regime.Config{
		ADXPeriod: r.ADXPeriod, ERPeriod: r.ERPeriod, ERSmoothPeriod: r.ERSmoothPeriod,
		ATRShortPeriod: r.ATRShortPeriod, ATRLongPeriod: r.ATRLongPeriod,
		MAShortPeriod: r.MAShortPeriod, MALongPeriod: r.MALongPeriod,
		AdxSlopePeriod: r.AdxSlopePeriod, AdxSlopeThreshold: r.AdxSlopeThreshold,
		VolumePeriod: r.VolumePeriod, VolumeSpikeThreshold: r.VolumeSpikeThreshold,
		CompressionWindow: r.CompressionWindow, CompressionThreshold: r.CompressionThreshold,
		Adaptive: regime.AdaptiveConfig{
			Enabled: r.Adaptive.Enabled, VolatilityWindow: r.Adaptive.VolatilityWindow,
			Volatility: regime.VolatilityConfig{
				MinMultiplier: r.Adaptive.Volatility.MinMultiplier,
				MaxMultiplier: r.Adaptive.Volatility.MaxMultiplier,
				Formula:       r.Adaptive.Volatility.Formula,
			},
		},
		MinBars: r.MinBars,
	}
}

func (r RegimeConfig) validate() error {
	if r.MinBars <= 0 {
		return fmt.Errorf("regime.min_bars must be positive, got %d", r.MinBars)
	}
	if r.ADXPeriod <= 0 || r.ATRShortPeriod <= 0 || r.ATRLongPeriod <= 0 {
		return fmt.Errorf("regime period fields must be positive")
	}
	if r.ATRShortPeriod >= r.ATRLongPeriod {
		return fmt.Errorf("regime.atr_short_period (%d) must be < atr_long_period (%d)", r.ATRShortPeriod, r.ATRLongPeriod)
	}
	if r.Adaptive.Volatility.MinMultiplier >= r.Adaptive.Volatility.MaxMultiplier {
		return fmt.Errorf("regime.adaptive.volatility min_multiplier must be < max_multiplier")
	}
	switch r.Adaptive.Volatility.Formula {
	case "", "v1", "v2":
	default:
		return fmt.Errorf("regime.adaptive.volatility.formula must be \"v1\" or \"v2\", got %q", r.Adaptive.Volatility.Formula)
	}
	return nil
}

// ContextConfig is the `Context` section from spec.md §6.
type ContextConfig struct {
	ContextTimeoutMS int            `yaml:"context_timeout_ms"`
	OHLCVBarCounts   map[string]int `yaml:"ohlcv_bar_counts,omitempty"`
}

// Timeout converts the millisecond field to a time.Duration.
func (c ContextConfig) Timeout() time.Duration {
	return time.Duration(c.ContextTimeoutMS) * time.Millisecond
}

func (c ContextConfig) validate() error {
	if c.ContextTimeoutMS <= 0 {
		return fmt.Errorf("context.context_timeout_ms must be positive, got %d", c.ContextTimeoutMS)
	}
	return nil
}

// Config is the whole application's parsed configuration.
type Config struct {
	Cache        CacheConfig        `yaml:"cache"`
	DataProvider DataProviderConfig `yaml:"data_provider"`
	Regime       RegimeConfig       `yaml:"regime"`
	Context      ContextConfig      `yaml:"context"`
}

// Default returns the documented defaults from spec.md §6, matching
// regime.DefaultConfig()'s numbers for the RegimeEngine section.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Enabled: true, Host: "localhost", Port: 6379, DB: 0,
			TTLSeconds: 3600, MaxBarsPerKey: 1000, ConnectOnStart: true,
		},
		DataProvider: DataProviderConfig{
			MaxDataPoints: 5000, DetectGapsDefault: true, UseCacheDefault: true,
			AdapterRPS: 10, AdapterBurst: 20,
		},
		Regime: RegimeConfig{
			ADXPeriod: 14, ERPeriod: 10, ERSmoothPeriod: 3,
			ATRShortPeriod: 14, ATRLongPeriod: 50,
			MAShortPeriod: 20, MALongPeriod: 50,
			AdxSlopePeriod: 5, AdxSlopeThreshold: 0.02,
			VolumePeriod: 20, VolumeSpikeThreshold: 1.5,
			CompressionWindow: 10, CompressionThreshold: 0.7,
			Adaptive: AdaptiveConfig{
				Enabled: true, VolatilityWindow: 100,
				Volatility: VolatilityConfig{MinMultiplier: 0.7, MaxMultiplier: 1.5, Formula: "v2"},
			},
			MinBars: 60,
		},
		Context: ContextConfig{ContextTimeoutMS: 60000},
	}
}

// Load reads and parses a YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks every section's invariants.
func (c Config) Validate() error {
	if err := c.Cache.validate(); err != nil {
		return err
	}
	if err := c.DataProvider.validate(); err != nil {
		return err
	}
	if err := c.Regime.validate(); err != nil {
		return err
	}
	if err := c.Context.validate(); err != nil {
		return err
	}
	return nil
}
