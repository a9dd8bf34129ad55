package regime

import "sort"

// swingLookback is the symmetric window a candidate swing high/low must
// dominate to qualify as a pivot, spec.md §4.5 Step G.
const (
	swingLookback           = 3
	swingMinExcursionATR    = 0.3
	swingRetentionPriceMult = 2.0
	swingRetentionATRMult   = 10.0
	clusterProximityATRMult = 0.5
	proximityATRMult        = 0.5
)

// rangeBounds evaluates Step G over up to the last 100 bars: detect swing
// points, retain those still relevant to the current price, cluster them,
// pick a resistance/support cluster per side, and derive width/position/
// proximity/strength. Falls back to a plain min/max of the window when too
// few swings survive.
func rangeBounds(highs, lows, closes []float64, atrShort float64) RangeBounds {
	n := len(closes)
	if n == 0 {
		return RangeBounds{}
	}
	if n > 100 {
		highs, lows, closes = highs[n-100:], lows[n-100:], closes[n-100:]
		n = 100
	}
	price := closes[n-1]
	priceRange := priceRangeOf(highs, lows)
	retention := swingRetentionPriceMult * priceRange
	if alt := swingRetentionATRMult * atrShort; alt > retention {
		retention = alt
	}

	swingHighIdx := findSwingHighs(highs, lows, atrShort)
	swingLowIdx := findSwingLows(highs, lows, atrShort)

	swingHighIdx = retainNear(swingHighIdx, highs, price, retention)
	swingLowIdx = retainNear(swingLowIdx, lows, price, retention)

	method := "swing_clusters"
	var resistance, support Cluster

	if len(swingHighIdx) == 0 || len(swingLowIdx) == 0 {
		method = "minmax_fallback"
		hi, lo := minMax(highs, lows)
		resistance = Cluster{AvgPrice: hi, Touches: 1, FirstIndex: 0, LastIndex: n - 1}
		support = Cluster{AvgPrice: lo, Touches: 1, FirstIndex: 0, LastIndex: n - 1}
	} else {
		proximity := clusterProximityATRMult * atrShort
		highClusters := clusterByPrice(swingHighIdx, highs, proximity)
		lowClusters := clusterByPrice(swingLowIdx, lows, proximity)
		resistance = selectResistance(highClusters, price)
		support = selectSupport(lowClusters, price)
	}

	high := resistance.AvgPrice
	low := support.AvgPrice
	if high < low {
		high, low = low, high
	}
	width := high - low

	position := 0.5
	if width > 0 {
		position = clamp((price-low)/width, 0, 1)
	}

	widthATR := 0.0
	if atrShort > 0 {
		widthATR = width / atrShort
	}

	nearBand := proximityATRMult * atrShort
	proximityLabel := Middle
	switch {
	case atrShort > 0 && (high-price) <= nearBand:
		proximityLabel = NearResistance
	case atrShort > 0 && (price-low) <= nearBand:
		proximityLabel = NearSupport
	case position > 0.5:
		proximityLabel = UpperHalf
	case position < 0.5:
		proximityLabel = LowerHalf
	}

	touches := resistance.Touches + support.Touches
	strength := StrengthWeak
	switch {
	case touches >= 6:
		strength = StrengthStrong
	case touches >= 4:
		strength = StrengthModerate
	}

	return RangeBounds{
		High: round(high, 8), Low: round(low, 8), Width: round(width, 8),
		Position: round(position, 4), WidthATR: round(widthATR, 4),
		Proximity: proximityLabel, Strength: strength, Method: method,
		ResistanceClusters: []Cluster{resistance}, SupportClusters: []Cluster{support},
	}
}

// findSwingHighs returns indices whose high dominates its 3 left/right
// neighbours and exceeds the window's minimum low by at least
// 0.3·atrShort.
func findSwingHighs(highs, lows []float64, atrShort float64) []int {
	var out []int
	for i := swingLookback; i < len(highs)-swingLookback; i++ {
		isPivot := true
		for j := i - swingLookback; j <= i+swingLookback; j++ {
			if j != i && highs[j] > highs[i] {
				isPivot = false
				break
			}
		}
		if !isPivot {
			continue
		}
		lo := lows[i-swingLookback]
		for j := i - swingLookback; j <= i+swingLookback; j++ {
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		if highs[i]-lo >= swingMinExcursionATR*atrShort {
			out = append(out, i)
		}
	}
	return out
}

// findSwingLows is symmetric to findSwingHighs.
func findSwingLows(highs, lows []float64, atrShort float64) []int {
	var out []int
	for i := swingLookback; i < len(lows)-swingLookback; i++ {
		isPivot := true
		for j := i - swingLookback; j <= i+swingLookback; j++ {
			if j != i && lows[j] < lows[i] {
				isPivot = false
				break
			}
		}
		if !isPivot {
			continue
		}
		hi := highs[i-swingLookback]
		for j := i - swingLookback; j <= i+swingLookback; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
		}
		if hi-lows[i] >= swingMinExcursionATR*atrShort {
			out = append(out, i)
		}
	}
	return out
}

// retainNear keeps only the swing indices whose price sits within
// maxDistance of the current price.
func retainNear(indices []int, values []float64, price, maxDistance float64) []int {
	var out []int
	for _, idx := range indices {
		if abs(values[idx]-price) <= maxDistance {
			out = append(out, idx)
		}
	}
	return out
}

// clusterByPrice sorts the candidate swing indices by price and groups
// consecutive ones whose price sits within proximity of the running
// cluster mean.
func clusterByPrice(indices []int, values []float64, proximity float64) []Cluster {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Slice(sorted, func(i, j int) bool { return values[sorted[i]] < values[sorted[j]] })

	var clusters []Cluster
	cur := Cluster{AvgPrice: values[sorted[0]], Touches: 1, FirstIndex: sorted[0], LastIndex: sorted[0]}
	sum := values[sorted[0]]

	for _, idx := range sorted[1:] {
		v := values[idx]
		if abs(v-cur.AvgPrice) <= proximity {
			cur.Touches++
			sum += v
			cur.AvgPrice = sum / float64(cur.Touches)
			if idx < cur.FirstIndex {
				cur.FirstIndex = idx
			}
			if idx > cur.LastIndex {
				cur.LastIndex = idx
			}
		} else {
			clusters = append(clusters, cur)
			cur = Cluster{AvgPrice: v, Touches: 1, FirstIndex: idx, LastIndex: idx}
			sum = v
		}
	}
	clusters = append(clusters, cur)
	return clusters
}

// selectResistance picks the nearest above-price cluster with at least two
// touches, else the nearest above-price cluster, else the highest cluster.
func selectResistance(clusters []Cluster, price float64) Cluster {
	var nearestMulti, nearestAny *Cluster
	highest := clusters[0]
	for i := range clusters {
		c := &clusters[i]
		if c.AvgPrice > highest.AvgPrice {
			highest = *c
		}
		if c.AvgPrice <= price {
			continue
		}
		if nearestAny == nil || c.AvgPrice < nearestAny.AvgPrice {
			nearestAny = c
		}
		if c.Touches >= 2 && (nearestMulti == nil || c.AvgPrice < nearestMulti.AvgPrice) {
			nearestMulti = c
		}
	}
	switch {
	case nearestMulti != nil:
		return *nearestMulti
	case nearestAny != nil:
		return *nearestAny
	default:
		return highest
	}
}

// selectSupport is symmetric to selectResistance, below price.
func selectSupport(clusters []Cluster, price float64) Cluster {
	var nearestMulti, nearestAny *Cluster
	lowest := clusters[0]
	for i := range clusters {
		c := &clusters[i]
		if c.AvgPrice < lowest.AvgPrice {
			lowest = *c
		}
		if c.AvgPrice >= price {
			continue
		}
		if nearestAny == nil || c.AvgPrice > nearestAny.AvgPrice {
			nearestAny = c
		}
		if c.Touches >= 2 && (nearestMulti == nil || c.AvgPrice > nearestMulti.AvgPrice) {
			nearestMulti = c
		}
	}
	switch {
	case nearestMulti != nil:
		return *nearestMulti
	case nearestAny != nil:
		return *nearestAny
	default:
		return lowest
	}
}

func priceRangeOf(highs, lows []float64) float64 {
	hi, lo := minMax(highs, lows)
	return hi - lo
}

func minMax(highs, lows []float64) (float64, float64) {
	hi, lo := highs[0], lows[0]
	for _, h := range highs {
		if h > hi {
			hi = h
		}
	}
	for _, l := range lows {
		if l < lo {
			lo = l
		}
	}
	return hi, lo
}
