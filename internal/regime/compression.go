package regime

// compressionWindow and threshold mirror the RegimeEngine config defaults
// from spec.md §6.
const (
	compressionWindow    = 10
	compressionThreshold = 0.7
	compressionMinShare  = 0.5
)

// priorCompression evaluates Step C: whether the ATR ratio sat below
// threshold on at least half of the preceding window, a precondition the
// breakout-quality score (Step F) rewards.
func priorCompression(atrRatioSeries []float64, threshold float64) Compression {
	// n counts the bars before the current (last) one.
	n := len(atrRatioSeries) - 1
	if n < 0 {
		n = 0
	}
	window := compressionWindow
	if window > n {
		window = n
	}
	if window == 0 {
		return Compression{Minimum: threshold}
	}
	sample := atrRatioSeries[n-window : n]

	below := 0
	for _, r := range sample {
		if r < threshold {
			below++
		}
	}
	ratio := float64(below) / float64(len(sample))
	return Compression{
		Compressed: ratio >= compressionMinShare,
		Ratio:      ratio,
		Minimum:    threshold,
	}
}
