package regime

// analyzeVolume evaluates the period-N volume analyser: a spike is the
// most recent bar's volume exceeding spikeThreshold times the average of
// the preceding window, a rising trend is the second half of the window
// averaging higher than the first half.
func analyzeVolume(volumes []float64, period int, spikeThreshold float64) VolumeAnalysis {
	n := len(volumes)
	if period > n {
		period = n
	}
	if period < 2 {
		return VolumeAnalysis{}
	}
	window := volumes[n-period:]

	prior := window[:len(window)-1]
	current := window[len(window)-1]
	priorAvg := sum(prior) / float64(len(prior))

	spike := priorAvg > 0 && current >= spikeThreshold*priorAvg

	half := len(window) / 2
	firstHalf := window[:half]
	secondHalf := window[len(window)-half:]
	rising := sum(secondHalf)/float64(len(secondHalf)) > sum(firstHalf)/float64(len(firstHalf))

	return VolumeAnalysis{SpikeDetected: spike, TrendRising: rising}
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, v := range xs {
		total += v
	}
	return total
}
