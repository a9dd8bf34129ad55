package cache

import (
	"fmt"
	"sort"

	"github.com/sawpanic/regimescope/internal/model"
)

// Segment is one continuous cache entry for a (symbol, timeframe) key:
// spec.md §3 CacheSegment. Bars is keyed by timestamp so duplicate inserts
// are idempotent; sortedKeys is a lazily rebuilt index for O(log n) range
// lookup, discarded on serialization (spec.md §9).
type Segment struct {
	Start     int64                 `json:"start"`
	End       int64                 `json:"end"`
	Bars      map[int64]model.Bar   `json:"bars"`
	Count     int                   `json:"count"`
	CreatedAt int64                 `json:"createdAt"`
	sortedKeys []int64              `json:"-"`
}

// NewSegment builds a segment from a sorted, deduplicated set of bars.
func NewSegment(bars []model.Bar, createdAt int64) *Segment {
	seg := &Segment{
		Bars:      make(map[int64]model.Bar, len(bars)),
		CreatedAt: createdAt,
	}
	for _, b := range bars {
		seg.Bars[b.Timestamp] = b
	}
	seg.reindex()
	return seg
}

// reindex rebuilds the sorted key vector and the start/end/count invariants.
// Must be called after any mutation (spec.md §3 invariants).
func (s *Segment) reindex() {
	s.sortedKeys = make([]int64, 0, len(s.Bars))
	for ts := range s.Bars {
		s.sortedKeys = append(s.sortedKeys, ts)
	}
	sort.Slice(s.sortedKeys, func(i, j int) bool { return s.sortedKeys[i] < s.sortedKeys[j] })
	s.Count = len(s.sortedKeys)
	if s.Count > 0 {
		s.Start = s.sortedKeys[0]
		s.End = s.sortedKeys[s.Count-1]
	} else {
		s.Start, s.End = 0, 0
	}
}

// Merge inserts bars into the segment, skipping timestamps already present.
// Returns the number of genuinely new bars inserted.
func (s *Segment) Merge(bars []model.Bar) int {
	inserted := 0
	for _, b := range bars {
		if _, exists := s.Bars[b.Timestamp]; !exists {
			s.Bars[b.Timestamp] = b
			inserted++
		}
	}
	if inserted > 0 {
		s.reindex()
	}
	if s.Start > s.End && s.Count > 0 {
		panic(fmt.Sprintf("cache segment invariant violated: start %d > end %d", s.Start, s.End))
	}
	return inserted
}

// indexOf returns the position of the first key >= ts (binary search over
// the sorted index), or len(sortedKeys) if none.
func (s *Segment) indexOf(ts int64) int {
	return sort.Search(len(s.sortedKeys), func(i int) bool { return s.sortedKeys[i] >= ts })
}

// Range returns bars with start <= timestamp <= end, ascending.
func (s *Segment) Range(start, end int64) []model.Bar {
	if len(s.sortedKeys) == 0 {
		return nil
	}
	lo := s.indexOf(start)
	var out []model.Bar
	for i := lo; i < len(s.sortedKeys) && s.sortedKeys[i] <= end; i++ {
		out = append(out, s.Bars[s.sortedKeys[i]])
	}
	return out
}

// EvictOldest removes the oldest n bars (LRU-by-recency-of-data policy,
// spec.md §4.2 "oldest bars first"), advancing Start.
func (s *Segment) EvictOldest(n int) int {
	if n <= 0 || len(s.sortedKeys) == 0 {
		return 0
	}
	if n > len(s.sortedKeys) {
		n = len(s.sortedKeys)
	}
	for i := 0; i < n; i++ {
		delete(s.Bars, s.sortedKeys[i])
	}
	s.reindex()
	return n
}
