package ntbea

import (
	"math"
	"slices"
)

// WeightFunc maps the number of visits of a pattern to the weight, in [0, 1],
// given to that pattern's own mean over the estimate of its sub-tuples.
type WeightFunc func(visits int) float64

// ExpWeight returns 1 - exp(-visits/t).
func ExpWeight(t float64) WeightFunc {
	return func(visits int) float64 { return 1 - math.Exp(-float64(visits)/t) }
}

// LinearWeight returns min(visits/t, 1).
func LinearWeight(t float64) WeightFunc {
	return func(visits int) float64 { return math.Min(float64(visits)/t, 1) }
}

// InverseWeight returns 1 - t/(t + visits).
func InverseWeight(t float64) WeightFunc {
	return func(visits int) float64 { return 1 - t/(t+float64(visits)) }
}

// SqrtWeight returns 1 - sqrt(t/(t + visits)).
func SqrtWeight(t float64) WeightFunc {
	return func(visits int) float64 { return 1 - math.Sqrt(t/(t+float64(visits))) }
}

// WeightedNTupleSystem estimates fitness hierarchically. Starting from the
// full set of dimensions, each tuple's mean is blended with the average
// estimate of the tuples one dimension smaller, with a weight that grows with
// the number of visits of the tuple's pattern. Sparse high-order patterns
// therefore defer to their better-sampled sub-patterns.
//
// Fields:
//   - Weight: Visits to weight, default ExpWeight(30)
//   - MinWeight: Lower bound of a visited pattern's own weight
//   - WeightExplore: Apply the same blending to the exploration term
//   - ExploreWithSqrt: Use sqrt(sqrt(1 + N)) instead of ln(1 + N) in the
//     exploration numerator
type WeightedNTupleSystem struct {
	*NTupleSystem

	Weight          WeightFunc
	MinWeight       float64
	WeightExplore   bool
	ExploreWithSqrt bool
}

// NewWeightedNTupleSystem builds the hierarchical model over space.
func NewWeightedNTupleSystem(space SearchSpace, cfg TupleConfig, weight WeightFunc) (*WeightedNTupleSystem, error) {
	base, err := NewNTupleSystem(space, cfg)
	if err != nil {
		return nil, err
	}

	if weight == nil {
		weight = ExpWeight(30)
	}

	return &WeightedNTupleSystem{NTupleSystem: base, Weight: weight, MinWeight: 0.5}, nil
}

// MeanEstimate implements BanditLandscapeModel.
func (m *WeightedNTupleSystem) MeanEstimate(p Point) float64 {
	mean := func(t *NTuple, p Point) float64 {
		if ss, ok := t.Stats(p); ok {
			return ss.Mean()
		}

		return math.NaN()
	}

	return finiteOr(m.weighting(p, allDims(len(p)), 0, mean), 0)
}

// ExplorationEstimate implements BanditLandscapeModel.
func (m *WeightedNTupleSystem) ExplorationEstimate(p Point) float64 {
	explore := func(t *NTuple, p Point) float64 {
		return m.tupleExploration(t, p, m.ExploreWithSqrt)
	}

	if m.WeightExplore {
		return finiteOr(m.weighting(p, allDims(len(p)), m.MinWeight, explore), 0)
	}

	var tot float64
	for _, t := range m.tuples {
		tot += explore(t, p)
	}

	return tot / float64(len(m.tuples))
}

// weighting blends, for every largest tuple contained in dims, the tuple's
// value with the average weighting of its one-smaller sub-sets. Branches
// without any observed pattern are skipped rather than poisoning the average.
func (m *WeightedNTupleSystem) weighting(
	p Point,
	dims []int,
	minWeight float64,
	value func(*NTuple, Point) float64,
) float64 {
	if len(dims) == 0 {
		return 0
	}

	var level []*NTuple

	largest := 0

	for _, t := range m.tuples {
		if !subset(t.dims, dims) {
			continue
		}

		switch {
		case t.Len() > largest:
			largest = t.Len()
			level = []*NTuple{t}
		case t.Len() == largest:
			level = append(level, t)
		}
	}

	if len(level) == 0 {
		return math.NaN()
	}

	var total StatSummary

	for _, t := range level {
		base := value(t, p)

		n := 0
		if ss, ok := t.Stats(p); ok {
			n = ss.N()
		}

		var weight float64

		switch {
		case len(dims) == 1:
			weight = 1
		case math.IsNaN(base):
			base, weight = 0, 0
		default:
			weight = math.Max(minWeight, m.Weight(n))
		}

		estimate := weight * base
		if weight < 1 {
			var sub StatSummary

			for _, excluded := range t.dims {
				rest := slices.DeleteFunc(slices.Clone(t.dims), func(d int) bool { return d == excluded })
				if v := m.weighting(p, rest, minWeight, value); !math.IsNaN(v) {
					sub.Add(v)
				}
			}

			estimate += (1 - weight) * finiteOr(sub.Mean(), 0)
		}

		if !math.IsNaN(estimate) {
			total.Add(estimate)
		}
	}

	return total.Mean()
}

func allDims(n int) []int {
	dims := make([]int, n)
	for i := range dims {
		dims[i] = i
	}

	return dims
}

// subset reports whether every element of a is in b.
func subset(a, b []int) bool {
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}

	return true
}
