package ntbea

import "math/rand"

// Mutator produces random neighbours of a point.
type Mutator interface {
	// Mutate returns a new point near p. p is not modified.
	Mutate(p Point) Point
}

// DefaultMutator perturbs a point by redrawing some of its values.
//
// Fields:
//   - PointProbability: Expected number of redrawn dimensions per mutation.
//     Each dimension is redrawn with probability PointProbability/NDims
//   - ChaosMutation: Ignore p and draw a completely random point instead
//
// Guarantees:
//   - At least one dimension with more than one admissible value is redrawn,
//     and a redrawn value always differs from the old one, so the result never
//     equals p unless every dimension has a single value
//   - The result is always inside the search space
//   - Repeated calls may return the same neighbour; deduplication is the
//     CandidateSelector's job
type DefaultMutator struct {
	PointProbability float64
	ChaosMutation    bool

	space   SearchSpace
	rng     *rand.Rand
	mutable []int
}

// NewDefaultMutator returns a mutator over space with one expected flip.
func NewDefaultMutator(space SearchSpace, rng *rand.Rand) *DefaultMutator {
	var mutable []int

	for i := range space.NDims() {
		if space.NValues(i) > 1 {
			mutable = append(mutable, i)
		}
	}

	return &DefaultMutator{
		PointProbability: 1,
		space:            space,
		rng:              rng,
		mutable:          mutable,
	}
}

// Mutate implements Mutator.
func (m *DefaultMutator) Mutate(p Point) Point {
	if len(m.mutable) == 0 {
		return p.Clone()
	}

	if m.ChaosMutation {
		return m.chaos(p)
	}

	x := p.Clone()
	forced := m.mutable[m.rng.Intn(len(m.mutable))]
	pointProb := m.PointProbability / float64(len(x))

	for i := range x {
		if i == forced || m.rng.Float64() < pointProb {
			x[i] = m.mutateValue(x[i], m.space.NValues(i))
		}
	}

	return x
}

// chaos draws random points until one differs from p.
func (m *DefaultMutator) chaos(p Point) Point {
	for {
		x := RandomPoint(m.space, m.rng)
		if !x.Equal(p) {
			return x
		}
	}
}

// mutateValue draws uniformly among the nPossible-1 values other than cur.
func (m *DefaultMutator) mutateValue(cur, nPossible int) int {
	if nPossible <= 1 {
		return cur
	}

	rx := m.rng.Intn(nPossible - 1)
	if rx >= cur {
		return rx + 1
	}

	return rx
}
