// Package model holds the wire-level OHLCV data types shared by every
// component in the core: the adapter boundary, the cache, the data
// provider, and the regime/context engines that consume bar series.
package model

import (
	"fmt"
	"math"
)

// Bar is a single OHLCV candle. Timestamp is the open time in epoch
// milliseconds; the bar closes at Timestamp + duration(timeframe).
type Bar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Validate checks the invariants from spec.md §3: low <= open,close <= high,
// low <= high, and every value finite and non-negative (price fields; volume
// must also be non-negative).
func (b Bar) Validate() error {
	vals := []float64{b.Open, b.High, b.Low, b.Close, b.Volume}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bar at %d: non-finite value", b.Timestamp)
		}
		if v < 0 {
			return fmt.Errorf("bar at %d: negative value %v", b.Timestamp, v)
		}
	}
	if b.Low > b.High {
		return fmt.Errorf("bar at %d: low %v > high %v", b.Timestamp, b.Low, b.High)
	}
	if b.Open < b.Low || b.Open > b.High {
		return fmt.Errorf("bar at %d: open %v outside [low,high]", b.Timestamp, b.Open)
	}
	if b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("bar at %d: close %v outside [low,high]", b.Timestamp, b.Close)
	}
	return nil
}

// ClosesBy reports whether the bar is closed (its close time is <= ref) for
// a given timeframe duration in milliseconds.
func (b Bar) ClosesBy(ref int64, durationMs int64) bool {
	return b.Timestamp+durationMs <= ref
}

// BarSeries is an ordered, strictly-increasing, duplicate-free sequence of
// bars (spec.md §3).
type BarSeries []Bar

// Validate checks strict timestamp ordering and per-bar invariants.
func (s BarSeries) Validate() error {
	for i, b := range s {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && s[i-1].Timestamp >= b.Timestamp {
			return fmt.Errorf("bar series not strictly increasing at index %d (%d >= %d)",
				i, s[i-1].Timestamp, b.Timestamp)
		}
	}
	return nil
}

// Gap records a missing run of bars detected between two consecutive
// timestamps whose difference exceeds one timeframe duration.
type Gap struct {
	From  int64 `json:"from"`
	To    int64 `json:"to"`
	Count int   `json:"count"`
}

// DetectGaps walks a strictly increasing series and reports every run of
// missing intermediate bars (spec.md §4.3 step 5).
func DetectGaps(s BarSeries, durationMs int64) []Gap {
	var gaps []Gap
	for i := 1; i < len(s); i++ {
		delta := s[i].Timestamp - s[i-1].Timestamp
		if delta > durationMs {
			missing := int(delta/durationMs) - 1
			if missing > 0 {
				gaps = append(gaps, Gap{
					From:  s[i-1].Timestamp + durationMs,
					To:    s[i].Timestamp - durationMs,
					Count: missing,
				})
			}
		}
	}
	return gaps
}

// Closes returns the close prices of the series, in order.
func (s BarSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Last returns the most recent bar and true, or the zero Bar and false if
// the series is empty.
func (s BarSeries) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}
