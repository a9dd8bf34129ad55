// Package indicator computes the technical series the regime and
// statistical-context engines consume.
package indicator

import (
	"context"

	"github.com/sawpanic/regimescope/internal/model"
	"github.com/sawpanic/regimescope/internal/timeframe"
)

// Point is one sample of a series, aligned to a candle open time. A
// warmup point that has no value yet is represented explicitly with a nil
// Value (or empty Values), never omitted (spec.md §4.4).
type Point struct {
	Timestamp int64              `json:"timestamp"`
	Value     *float64           `json:"value,omitempty"`
	Values    map[string]float64 `json:"values,omitempty"`
}

// Series is the ordered output of one GetSeries call.
type Series struct {
	Indicator string  `json:"indicator"`
	Data      []Point `json:"data"`
}

// Config is the per-indicator option map (spec.md §4.4), e.g.
// {"period": 14} for ADX or {"period": 20, "stdDev": 2} for BB.
type Config map[string]interface{}

func (c Config) intOr(key string, def int) int {
	if v, ok := c[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return def
}

func (c Config) floatOr(key string, def float64) float64 {
	if v, ok := c[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// BarSource supplies the closed-bar history an indicator is computed over;
// DataProvider satisfies this.
type BarSource interface {
	LoadOHLCV(ctx context.Context, symbol string, tf timeframe.Code, count int, referenceDate *int64) (model.BarSeries, error)
}

// Engine is the IndicatorEngine collaborator interface from spec.md §4.4.
type Engine interface {
	GetSeries(ctx context.Context, symbol string, indicator string, tf timeframe.Code, bars int, referenceDate *int64, cfg Config) (Series, error)
}
