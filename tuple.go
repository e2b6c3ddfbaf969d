package ntbea

import (
	"fmt"
	"slices"
	"strings"
)

//////
// Const, vars, types.
//////

// NTuple is a fixed subset of search dimensions. It projects full points onto
// those dimensions and keeps one StatSummary per observed projection
// (pattern).
//
// Many full points share the same low-dimensional pattern, so the statistics
// of a tuple generalise across the search space: a 1-tuple learns how good
// each value of a single parameter is, a 2-tuple how good each pair of
// values is, and the full tuple remembers every sampled point exactly.
//
// Important notes:
// - Dimensions are fixed at construction; the pattern map grows lazily and
//   is never evicted
// - Not safe for concurrent mutation.
type NTuple struct {
	dims     []int
	stats    map[string]*tupleEntry
	nSamples int
}

type tupleEntry struct {
	pattern Point
	ss      *StatSummary
}

// PatternStats is a read-only view of one pattern's statistics.
type PatternStats struct {
	Pattern Point   `json:"pattern"`
	N       int     `json:"n"`
	Mean    float64 `json:"mean"`
	SD      float64 `json:"sd"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// TupleSnapshot is a read-only view of a tuple and all its observed patterns.
type TupleSnapshot struct {
	Dims     []int          `json:"dims"`
	NSamples int            `json:"n_samples"`
	Patterns []PatternStats `json:"patterns"`
}

//////
// Factory.
//////

// NewNTuple returns a tuple over dims. It fails with ErrInvalidTuple when dims
// is empty, repeats an index, or references a dimension outside space.
func NewNTuple(space SearchSpace, dims ...int) (*NTuple, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: no dimensions", ErrInvalidTuple)
	}

	seen := make(map[int]bool, len(dims))

	for _, d := range dims {
		if d < 0 || d >= space.NDims() {
			return nil, fmt.Errorf("%w: dimension %d outside [0, %d)", ErrInvalidTuple, d, space.NDims())
		}

		if seen[d] {
			return nil, fmt.Errorf("%w: dimension %d repeated", ErrInvalidTuple, d)
		}

		seen[d] = true
	}

	return &NTuple{
		dims:  slices.Clone(dims),
		stats: make(map[string]*tupleEntry),
	}, nil
}

//////
// Methods.
//////

// Dims returns a copy of the tuple's dimension indices.
func (t *NTuple) Dims() []int { return slices.Clone(t.dims) }

// Len returns the number of dimensions in the tuple.
func (t *NTuple) Len() int { return len(t.dims) }

// Project returns the values of p at the tuple's dimensions, in order.
func (t *NTuple) Project(p Point) Point {
	pattern := make(Point, len(t.dims))
	for i, d := range t.dims {
		pattern[i] = p[d]
	}

	return pattern
}

func (t *NTuple) entry(p Point) *tupleEntry {
	pattern := t.Project(p)
	key := pattern.Key()

	e, ok := t.stats[key]
	if !ok {
		e = &tupleEntry{pattern: pattern, ss: &StatSummary{}}
		t.stats[key] = e
	}

	return e
}

// Add records value against the pattern of p.
func (t *NTuple) Add(p Point, value float64) {
	t.entry(p).ss.Add(value)
	t.nSamples++
}

// AddSummary merges a whole accumulator into the pattern of p.
func (t *NTuple) AddSummary(p Point, ss *StatSummary) {
	if ss == nil || ss.N() == 0 {
		return
	}

	t.entry(p).ss.Merge(ss)
	t.nSamples += ss.N()
}

// Stats returns the accumulator for the pattern of p. The boolean is false
// when the pattern has never been observed, which is different from an
// accumulator whose mean happens to be zero.
func (t *NTuple) Stats(p Point) (*StatSummary, bool) {
	e, ok := t.stats[pointKey(t.Project(p))]
	if !ok {
		return nil, false
	}

	return e.ss, true
}

// NSamples returns the total number of observations across all patterns.
func (t *NTuple) NSamples() int { return t.nSamples }

// NPatterns returns the number of distinct patterns observed.
func (t *NTuple) NPatterns() int { return len(t.stats) }

// Reset forgets every observation.
func (t *NTuple) Reset() {
	t.stats = make(map[string]*tupleEntry)
	t.nSamples = 0
}

// Snapshot returns the tuple's statistics, patterns sorted lexicographically.
func (t *NTuple) Snapshot() TupleSnapshot {
	snap := TupleSnapshot{
		Dims:     t.Dims(),
		NSamples: t.nSamples,
		Patterns: make([]PatternStats, 0, len(t.stats)),
	}

	for _, e := range t.stats {
		snap.Patterns = append(snap.Patterns, PatternStats{
			Pattern: e.pattern.Clone(),
			N:       e.ss.N(),
			Mean:    e.ss.Mean(),
			SD:      e.ss.SD(),
			Min:     e.ss.Min(),
			Max:     e.ss.Max(),
		})
	}

	slices.SortFunc(snap.Patterns, func(a, b PatternStats) int {
		return slices.Compare(a.Pattern, b.Pattern)
	})

	return snap
}

// String describes the tuple, e.g. "NTuple[0 2] patterns=4 samples=17".
func (t *NTuple) String() string {
	parts := make([]string, len(t.dims))
	for i, d := range t.dims {
		parts[i] = fmt.Sprint(d)
	}

	return fmt.Sprintf("NTuple[%s] patterns=%d samples=%d", strings.Join(parts, " "), len(t.stats), t.nSamples)
}
