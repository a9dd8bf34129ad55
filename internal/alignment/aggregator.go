package alignment

import (
	"math"

	"github.com/sawpanic/regimescope/internal/regime"
)

// directionOrder fixes the tie-break order when two directions' weighted
// scores are exactly equal: bullish beats bearish beats neutral.
var directionOrder = []regime.Direction{regime.Bullish, regime.Bearish, regime.Neutral}

// Aggregate runs the full AlignmentAggregator over one call's signals,
// spec.md §4.7.
func Aggregate(signals []Signal) Report {
	scores := weightedDirectionScores(signals)
	totalScore := 0.0
	for _, s := range scores {
		totalScore += s
	}

	dominant, maxScore := dominantDirection(scores)
	alignmentScore := 0.0
	if totalScore > 0 {
		alignmentScore = maxScore / totalScore
	}

	conflicts := detectConflicts(signals)
	quality := gradeQuality(alignmentScore, conflicts)

	return Report{
		Signals: signals, AlignmentScore: round(alignmentScore, 4),
		DominantDirection: dominant, WeightedScores: scores,
		Conflicts: conflicts, Quality: quality,
	}
}

func weightedDirectionScores(signals []Signal) map[regime.Direction]float64 {
	scores := map[regime.Direction]float64{regime.Bullish: 0, regime.Bearish: 0, regime.Neutral: 0}
	for _, s := range signals {
		scores[s.Direction] += s.Weight * s.Confidence
	}
	return scores
}

func dominantDirection(scores map[regime.Direction]float64) (regime.Direction, float64) {
	best := directionOrder[0]
	bestScore := scores[best]
	for _, d := range directionOrder[1:] {
		if scores[d] > bestScore {
			best = d
			bestScore = scores[d]
		}
	}
	if bestScore == 0 {
		return regime.Neutral, 0
	}
	return best, bestScore
}

func detectConflicts(signals []Signal) []Conflict {
	var conflicts []Conflict

	var highBullish, highBearish int
	var bullish, bearish int
	for _, s := range signals {
		switch s.Direction {
		case regime.Bullish:
			bullish++
			if s.Weight >= highTFWeight {
				highBullish++
			}
		case regime.Bearish:
			bearish++
			if s.Weight >= highTFWeight {
				highBearish++
			}
		}
	}

	highConflict := highBullish > 0 && highBearish > 0
	if highConflict {
		conflicts = append(conflicts, Conflict{Type: HighTFConflict, Severity: SeverityHigh})
	} else if bullish > 0 && bearish > 0 {
		severity := SeverityLow
		if bullish >= 2 && bearish >= 2 {
			severity = SeverityModerate
		}
		conflicts = append(conflicts, Conflict{Type: DirectionalConflict, Severity: severity})
	}

	if !highConflict {
		if htf, ok := dominantHTFDirection(signals); ok {
			for _, s := range signals {
				if s.Weight < highTFWeight && s.Direction != regime.Neutral && s.Direction != htf {
					conflicts = append(conflicts, Conflict{Type: HTFLTFDivergence, Severity: SeverityLow})
					break
				}
			}
		}
	}

	return conflicts
}

// dominantHTFDirection returns the non-neutral direction held by any
// weight>=2.0 signal, when the high-timeframe signals agree (no high-TF
// conflict was already raised for disagreement).
func dominantHTFDirection(signals []Signal) (regime.Direction, bool) {
	for _, s := range signals {
		if s.Weight >= highTFWeight && s.Direction != regime.Neutral {
			return s.Direction, true
		}
	}
	return regime.Neutral, false
}

func gradeQuality(score float64, conflicts []Conflict) Quality {
	for _, c := range conflicts {
		if c.Severity == SeverityHigh {
			return QualityPoor
		}
	}
	hasModerate := false
	for _, c := range conflicts {
		if c.Severity == SeverityModerate {
			hasModerate = true
		}
	}
	switch {
	case score >= 0.85:
		return QualityExcellent
	case score >= 0.75 && !hasModerate:
		return QualityGood
	case score >= 0.6:
		return QualityFair
	default:
		return QualityPoor
	}
}

func round(v float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(v*mult) / mult
}
