package timeframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	cases := map[string]int64{
		"1m":  minuteMs,
		"15m": 15 * minuteMs,
		"4h":  4 * hourMs,
		"1d":  dayMs,
		"1w":  weekMs,
		"1M":  monthMs,
	}
	for tf, wantMs := range cases {
		c, err := Parse(tf)
		require.NoError(t, err, tf)
		assert.Equal(t, wantMs, c.ToMillis(), tf)
	}
}

func TestParse_CaseSensitive(t *testing.T) {
	// "1m" is minute, "1M" is month; they must not collide.
	m, err := Parse("1m")
	require.NoError(t, err)
	bigM, err := Parse("1M")
	require.NoError(t, err)
	assert.NotEqual(t, m.ToMillis(), bigM.ToMillis())
}

func TestParse_Invalid(t *testing.T) {
	for _, tf := range []string{"", "1", "h1", "1x", "-1h", "1.5h"} {
		_, err := Parse(tf)
		assert.Error(t, err, tf)
	}
}

func TestParseOrDefault(t *testing.T) {
	assert.Equal(t, Code("1h"), ParseOrDefault("bogus", "1h"))
	assert.Equal(t, Code("4h"), ParseOrDefault("4h", "1h"))
}

func TestSortDescending(t *testing.T) {
	in := []Code{"1h", "1d", "5m", "1w"}
	out := SortDescending(in)
	require.Len(t, out, 4)
	assert.Equal(t, Code("1w"), out[0])
	assert.Equal(t, Code("5m"), out[3])
}

func TestNextHigher(t *testing.T) {
	avail := []Code{"5m", "15m", "1h", "4h", "1d"}
	next, ok := NextHigher("15m", avail)
	require.True(t, ok)
	assert.Equal(t, Code("1h"), next)

	_, ok = NextHigher("1d", avail)
	assert.False(t, ok)
}

func TestMultiplier(t *testing.T) {
	assert.Equal(t, 1.00, Multiplier("1h"))
	assert.Equal(t, 0.85, Multiplier("1d"))
	assert.Equal(t, 1.0, Multiplier("6h")) // undocumented timeframe falls back to 1.0
}
