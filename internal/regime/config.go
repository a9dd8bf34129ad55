package regime

// VolatilityConfig bounds the Step A volatility multiplier and selects the
// formula mapping the ATR-ratio deviation onto that range.
type VolatilityConfig struct {
	MinMultiplier float64
	MaxMultiplier float64
	// Formula selects the ratio->multiplier mapping: "v1" = 0.5+ratio*0.5,
	// "v2" = 0.7+ratio*0.6. Empty defaults to "v2".
	Formula string
}

// AdaptiveConfig gates Step A's volatility rescaling.
type AdaptiveConfig struct {
	Enabled         bool
	VolatilityWindow int
	Volatility      VolatilityConfig
}

// Config is the RegimeEngine configuration enumerated in spec.md §6.
type Config struct {
	ADXPeriod            int
	ERPeriod             int
	ERSmoothPeriod       int
	ATRShortPeriod       int
	ATRLongPeriod        int
	MAShortPeriod        int
	MALongPeriod         int
	AdxSlopePeriod       int
	AdxSlopeThreshold    float64
	VolumePeriod         int
	VolumeSpikeThreshold float64
	CompressionWindow    int
	CompressionThreshold float64
	Adaptive             AdaptiveConfig
	MinBars              int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ADXPeriod: 14, ERPeriod: 10, ERSmoothPeriod: 3,
		ATRShortPeriod: 14, ATRLongPeriod: 50,
		MAShortPeriod: 20, MALongPeriod: 50,
		AdxSlopePeriod: adxSlopePeriod, AdxSlopeThreshold: adxSlopeThreshold,
		VolumePeriod: 20, VolumeSpikeThreshold: 1.5,
		CompressionWindow: compressionWindow, CompressionThreshold: compressionThreshold,
		Adaptive: AdaptiveConfig{
			Enabled: true, VolatilityWindow: adaptiveVolatilityWindow,
			Volatility: VolatilityConfig{MinMultiplier: minVolatilityMultiplier, MaxMultiplier: maxVolatilityMultiplier, Formula: volatilityFormulaV2},
		},
		MinBars: 60,
	}
}

// warmupBars is the extra history requested beyond minBars/count to cover
// Wilder-smoothing warmup, per spec.md §4.5.
const warmupBars = 50
