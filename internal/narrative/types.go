// Package narrative implements the NarrativeProjector from spec.md §4.8: a
// pure transform of a StatisticalContext result plus an AlignmentAggregator
// report into a compact, LLM-friendly structure with interpreted (not raw)
// indicator states and a handful of narrative strings.
package narrative

// Strength buckets the alignment score into a human-readable label.
type Strength string

const (
	StrengthStrong      Strength = "strong"
	StrengthModerate    Strength = "moderate"
	StrengthWeak        Strength = "weak"
	StrengthConflicting Strength = "conflicting"
)
