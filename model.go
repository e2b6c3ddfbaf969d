package ntbea

import (
	"fmt"
	"math"
)

//////
// Const, vars, types.
//////

// DefaultEpsilon is the default exploration epsilon. It keeps the exploration
// term finite for patterns that have never been sampled.
const DefaultEpsilon = 0.5

// BanditLandscapeModel is a statistical surrogate of the fitness landscape.
// Observations are pushed in with AddPoint; candidates are ranked with
// EvaluateScore, which combines MeanEstimate (exploitation) and
// ExplorationEstimate (a UCB-style bonus for under-sampled regions).
//
// Implementations:
// - NTupleSystem: average of tuple statistics (default)
// - WeightedNTupleSystem: hierarchical visit-weighted blend of tuple levels
// - RegressionNTupleSystem: linear fit over frequently visited patterns
//
// Thread safety:
// - Implementations are not safe for concurrent use. Optimisers own the model
// exclusively; a caller that evaluates in parallel must serialise AddPoint and
// the estimate calls.
type BanditLandscapeModel interface {
	// SearchSpace returns the space the model was built for.
	SearchSpace() SearchSpace

	// Reset removes all observations; tuple definitions are kept.
	Reset()

	// SetEpsilon configures the exploration epsilon.
	SetEpsilon(epsilon float64)

	// AddPoint records one fitness observation of p.
	AddPoint(p Point, value float64)

	// MeanEstimate returns the model's estimated fitness of p, sampled or not.
	MeanEstimate(p Point) float64

	// ExplorationEstimate returns the exploration bonus of p, before scaling
	// by kExplore.
	ExplorationEstimate(p Point) float64

	// BestOfSampled returns the sampled point with the highest empirical mean
	// fitness and that mean. The boolean is false before the first AddPoint.
	BestOfSampled() (Point, float64, bool)

	// NSampledPoints returns the number of distinct points ever added.
	NSampledPoints() int
}

// TupleConfig selects which tuples an NTupleSystem is built from.
type TupleConfig struct {
	// One adds every single dimension.
	One bool

	// Two adds every pair of dimensions; only used when there are more than
	// two dimensions.
	Two bool

	// Three adds every triple of dimensions; only used when there are more
	// than three dimensions.
	Three bool

	// Full adds the tuple of all dimensions.
	Full bool
}

// NTupleSystem is the standard n-tuple landscape model.
//
// Mean estimate:
//   - The average of the means of every tuple whose pattern for the point has
//     data, or 0 when no tuple has seen any of its patterns.
//
// Exploration estimate:
//   - The average, over all tuples, of sqrt(ln(1 + N) / (epsilon + n)), where N
//     is the number of samples the tuple has seen and n the number of samples
//     of the point's pattern (0 when unseen).
//
// Consequences:
//   - An unseen pattern gets the largest bonus its tuple can give, so unseen
//     points outrank sampled points of similar estimated fitness
//   - The bonus of a pattern strictly decreases as it is sampled again
//
// Usage example:
//
//	model, err := NewNTupleSystem(NewSpace(3, 3, 3, 3), DefaultTupleConfig())
//	if err != nil { ... }
//	model.AddPoint(Point{0, 1, 2, 0}, 0.7)
//	score := EvaluateScore(model, Point{0, 1, 2, 1}, 2.0)
type NTupleSystem struct {
	space   SearchSpace
	tuples  []*NTuple
	epsilon float64
	sampled *sampledPoints
}

// sampledPoints keeps the empirical fitness of every distinct point added to a
// model, in insertion order, so that the best sampled point is grounded in
// real observations rather than the model's estimate.
type sampledPoints struct {
	order []string
	stats map[string]*tupleEntry
}

//////
// Factory.
//////

// DefaultTupleConfig returns 1-tuples, 2-tuples and the full tuple.
func DefaultTupleConfig() TupleConfig {
	return TupleConfig{One: true, Two: true, Full: true}
}

// NewNTupleSystem builds the model and its tuples for space.
//
// Returns:
// - *NTupleSystem: Model with no observations
// - error: ErrInvalidTuple when the configuration selects no tuple at all
func NewNTupleSystem(space SearchSpace, cfg TupleConfig) (*NTupleSystem, error) {
	m := &NTupleSystem{
		space:   space,
		epsilon: DefaultEpsilon,
		sampled: newSampledPoints(),
	}

	n := space.NDims()

	if cfg.One {
		for i := range n {
			m.mustAddTuple(i)
		}
	}

	if cfg.Two && n > 2 {
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				m.mustAddTuple(i, j)
			}
		}
	}

	if cfg.Three && n > 3 {
		for i := 0; i < n-2; i++ {
			for j := i + 1; j < n-1; j++ {
				for k := j + 1; k < n; k++ {
					m.mustAddTuple(i, j, k)
				}
			}
		}
	}

	if cfg.Full && n > 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}

		m.mustAddTuple(all...)
	}

	if len(m.tuples) == 0 {
		return nil, fmt.Errorf("%w: tuple configuration selects no tuples for %d dimensions", ErrInvalidTuple, n)
	}

	return m, nil
}

func newSampledPoints() *sampledPoints {
	return &sampledPoints{stats: make(map[string]*tupleEntry)}
}

//////
// Methods.
//////

// mustAddTuple is only called with indices generated from the space itself.
func (m *NTupleSystem) mustAddTuple(dims ...int) {
	t, err := NewNTuple(m.space, dims...)
	if err != nil {
		panic(err)
	}

	m.tuples = append(m.tuples, t)
}

// AddTuple appends a custom tuple to the model.
func (m *NTupleSystem) AddTuple(dims ...int) error {
	t, err := NewNTuple(m.space, dims...)
	if err != nil {
		return err
	}

	m.tuples = append(m.tuples, t)

	return nil
}

// Tuples returns the model's tuples. The slice is a copy; the tuples are not.
func (m *NTupleSystem) Tuples() []*NTuple {
	return append([]*NTuple(nil), m.tuples...)
}

// SearchSpace implements BanditLandscapeModel.
func (m *NTupleSystem) SearchSpace() SearchSpace { return m.space }

// Epsilon returns the exploration epsilon.
func (m *NTupleSystem) Epsilon() float64 { return m.epsilon }

// SetEpsilon implements BanditLandscapeModel. Non-positive values fall back
// to DefaultEpsilon.
func (m *NTupleSystem) SetEpsilon(epsilon float64) {
	if epsilon <= 0 || math.IsNaN(epsilon) {
		epsilon = DefaultEpsilon
	}

	m.epsilon = epsilon
}

// Reset implements BanditLandscapeModel.
func (m *NTupleSystem) Reset() {
	for _, t := range m.tuples {
		t.Reset()
	}

	m.sampled = newSampledPoints()
}

// AddPoint implements BanditLandscapeModel.
func (m *NTupleSystem) AddPoint(p Point, value float64) {
	for _, t := range m.tuples {
		t.Add(p, value)
	}

	m.sampled.add(p, value)
}

// AddSummary merges a whole accumulator for p into every tuple. It does not
// count as a sampled point.
func (m *NTupleSystem) AddSummary(p Point, ss *StatSummary) {
	for _, t := range m.tuples {
		t.AddSummary(p, ss)
	}
}

// MeanEstimate implements BanditLandscapeModel.
func (m *NTupleSystem) MeanEstimate(p Point) float64 {
	var total StatSummary

	for _, t := range m.tuples {
		if ss, ok := t.Stats(p); ok {
			if mean := ss.Mean(); !math.IsNaN(mean) {
				total.Add(mean)
			}
		}
	}

	return finiteOr(total.Mean(), 0)
}

// ExplorationEstimate implements BanditLandscapeModel.
func (m *NTupleSystem) ExplorationEstimate(p Point) float64 {
	vec := m.ExplorationVector(p)
	if len(vec) == 0 {
		return 0
	}

	var tot float64
	for _, e := range vec {
		tot += e
	}

	return tot / float64(len(vec))
}

// ExplorationVector returns the per-tuple exploration terms of p, in tuple
// order.
func (m *NTupleSystem) ExplorationVector(p Point) []float64 {
	vec := make([]float64, len(m.tuples))
	for i, t := range m.tuples {
		vec[i] = m.tupleExploration(t, p, false)
	}

	return vec
}

func (m *NTupleSystem) tupleExploration(t *NTuple, p Point, withSqrt bool) float64 {
	n := 0
	if ss, ok := t.Stats(p); ok {
		n = ss.N()
	}

	numerator := math.Log(1 + float64(t.NSamples()))
	if withSqrt {
		numerator = math.Sqrt(1 + float64(t.NSamples()))
	}

	return math.Sqrt(numerator / (m.epsilon + float64(n)))
}

// BestOfSampled implements BanditLandscapeModel.
func (m *NTupleSystem) BestOfSampled() (Point, float64, bool) {
	return m.sampled.best()
}

// SampledMean returns the empirical mean fitness of exactly p and whether p
// was ever sampled.
func (m *NTupleSystem) SampledMean(p Point) (float64, bool) {
	e, ok := m.sampled.stats[p.Key()]
	if !ok {
		return 0, false
	}

	return e.ss.Mean(), true
}

// NSampledPoints implements BanditLandscapeModel.
func (m *NTupleSystem) NSampledPoints() int { return len(m.sampled.order) }

// Snapshot returns every tuple's statistics.
func (m *NTupleSystem) Snapshot() []TupleSnapshot {
	out := make([]TupleSnapshot, len(m.tuples))
	for i, t := range m.tuples {
		out[i] = t.Snapshot()
	}

	return out
}

// String describes the model's shape.
func (m *NTupleSystem) String() string {
	return fmt.Sprintf("NTupleSystem dims=%d tuples=%d sampled=%d", m.space.NDims(), len(m.tuples), m.NSampledPoints())
}

func (s *sampledPoints) add(p Point, value float64) {
	key := p.Key()

	e, ok := s.stats[key]
	if !ok {
		e = &tupleEntry{pattern: p.Clone(), ss: &StatSummary{}}
		s.stats[key] = e
		s.order = append(s.order, key)
	}

	e.ss.Add(value)
}

// best scans in insertion order so that the first sampled point wins ties.
func (s *sampledPoints) best() (Point, float64, bool) {
	picker := NewPicker[Point](MaxFirst)

	for _, key := range s.order {
		e := s.stats[key]
		picker.Add(e.ss.Mean(), e.pattern)
	}

	best, score, ok := picker.Best()
	if !ok {
		return nil, 0, false
	}

	return best.Clone(), score, true
}

//////
// Exported functionalities.
//////

// EvaluateScore returns the UCB score of p under model:
//
//	MeanEstimate(p) + kExplore * ExplorationEstimate(p)
//
// Higher is better. It is the score the optimisers use to rank neighbours.
func EvaluateScore(model BanditLandscapeModel, p Point, kExplore float64) float64 {
	return model.MeanEstimate(p) + kExplore*model.ExplorationEstimate(p)
}

// BestSolution enumerates the whole search space and returns the point with
// the highest MeanEstimate, first in enumeration order on ties.
//
// Warning:
//   - This visits every point; it fails with ErrSpaceTooLarge when the space
//     has more than limit points.
func BestSolution(model BanditLandscapeModel, limit int) (Point, float64, error) {
	space := model.SearchSpace()

	size := Size(space)
	if size > limit {
		return nil, 0, fmt.Errorf("%w: %d points, limit %d", ErrSpaceTooLarge, size, limit)
	}

	picker := NewPicker[Point](MaxFirst)
	for i := range size {
		p := NthPoint(space, i)
		picker.Add(model.MeanEstimate(p), p)
	}

	best, score, _ := picker.Best()

	return best, score, nil
}
