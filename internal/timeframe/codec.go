// Package timeframe parses and orders the timeframe codes used throughout
// the core ("1h", "4h", "1d", "1w", "1M"), and carries the fixed adaptive
// multiplier table the regime engine rescales its thresholds with.
package timeframe

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/sawpanic/regimescope/internal/apperrors"
)

// unit durations in milliseconds, per spec.md §6.
const (
	minuteMs = 60_000
	hourMs   = 3_600_000
	dayMs    = 86_400_000
	weekMs   = 604_800_000
	monthMs  = 2_592_000_000 // canonical 30 days
)

var pattern = regexp.MustCompile(`^(\d+)([mhdwM])$`)

// Code is a parsed, canonical timeframe (e.g. "1h", "4h", "1d").
type Code string

// unitMs is case-sensitive: 'm' is minute, 'M' is month.
func unitMs(unit byte) (int64, bool) {
	switch unit {
	case 'm':
		return minuteMs, true
	case 'h':
		return hourMs, true
	case 'd':
		return dayMs, true
	case 'w':
		return weekMs, true
	case 'M':
		return monthMs, true
	default:
		return 0, false
	}
}

// Parse validates tf against ^\d+[mhdwM]$ and returns it as a Code.
func Parse(tf string) (Code, error) {
	if !pattern.MatchString(tf) {
		return "", apperrors.Context(apperrors.ErrInvalidTimeframe, "timeframe.parse", map[string]interface{}{"value": tf})
	}
	return Code(tf), nil
}

// ParseOrDefault is the non-throwing mode from spec.md §4.1: an invalid
// timeframe falls back to def instead of failing.
func ParseOrDefault(tf string, def Code) Code {
	if _, err := Parse(tf); err != nil {
		return def
	}
	return Code(tf)
}

// ToMillis returns the duration of one bar in this timeframe, in
// milliseconds.
func (c Code) ToMillis() int64 {
	m := pattern.FindStringSubmatch(string(c))
	if m == nil {
		return 0
	}
	n, _ := strconv.ParseInt(m[1], 10, 64)
	unit, ok := unitMs(m[2][0])
	if !ok {
		return 0
	}
	return n * unit
}

// ToMinutes returns the duration of one bar in minutes.
func (c Code) ToMinutes() float64 {
	return float64(c.ToMillis()) / float64(minuteMs)
}

// SortDescending orders timeframe codes from largest to smallest duration.
func SortDescending(codes []Code) []Code {
	out := make([]Code, len(codes))
	copy(out, codes)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ToMillis() > out[j].ToMillis()
	})
	return out
}

// NextHigher returns the smallest available timeframe strictly larger than
// current, or false if none exists.
func NextHigher(current Code, available []Code) (Code, bool) {
	curMs := current.ToMillis()
	var best Code
	found := false
	for _, c := range available {
		ms := c.ToMillis()
		if ms > curMs && (!found || ms < best.ToMillis()) {
			best = c
			found = true
		}
	}
	return best, found
}

// adaptiveMultipliers is the fixed per-timeframe table from spec.md §6 used
// to rescale ADX/ER/ATR-ratio thresholds. Timeframes not in the table get
// a multiplier of 1.0.
var adaptiveMultipliers = map[Code]float64{
	"1m":  1.30,
	"5m":  1.20,
	"15m": 1.10,
	"30m": 1.05,
	"1h":  1.00,
	"2h":  0.95,
	"4h":  0.90,
	"1d":  0.85,
	"1w":  0.80,
}

// Multiplier returns the adaptive multiplier for c, defaulting to 1.0 for
// timeframes not in the documented table.
func Multiplier(c Code) float64 {
	if m, ok := adaptiveMultipliers[c]; ok {
		return m
	}
	return 1.0
}
