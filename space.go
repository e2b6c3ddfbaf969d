package ntbea

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
)

//////
// Const, vars, types.
//////

// Point is one fully specified candidate solution: one value index per
// search dimension. The i-th value lies in [0, NValues(i)).
//
// Points are treated as immutable once produced. Optimisers replace the
// current point every round rather than modifying it.
type Point []int

// SearchSpace describes a discrete search space with a fixed number of
// dimensions, each with its own cardinality.
type SearchSpace interface {
	// NDims returns the number of dimensions.
	NDims() int

	// NValues returns the number of admissible values of dimension dim.
	NValues(dim int) int
}

// Space is the concrete SearchSpace built from a list of cardinalities.
//
// Usage example:
//
//	// Three binary switches and one 5-way choice
//	space := NewSpace(2, 2, 2, 5).WithNames("a", "b", "c", "mode")
type Space struct {
	cards []int
	names []string
}

//////
// Factory.
//////

// NewSpace returns a Space with the given per-dimension cardinalities.
// Cardinalities below 1 are raised to 1.
func NewSpace(cardinalities ...int) *Space {
	cards := make([]int, len(cardinalities))
	for i, c := range cardinalities {
		cards[i] = max(c, 1)
	}

	return &Space{cards: cards}
}

//////
// Methods.
//////

// WithNames attaches dimension names, used only for display.
func (s *Space) WithNames(names ...string) *Space {
	s.names = append([]string(nil), names...)

	return s
}

// NDims implements SearchSpace.
func (s *Space) NDims() int { return len(s.cards) }

// NValues implements SearchSpace.
func (s *Space) NValues(dim int) int { return s.cards[dim] }

// Name returns the name of dimension dim, or "d<dim>" when unnamed.
func (s *Space) Name(dim int) string {
	if dim < len(s.names) && s.names[dim] != "" {
		return s.names[dim]
	}

	return fmt.Sprintf("d%d", dim)
}

// Equal reports whether p and q hold the same values.
func (p Point) Equal(q Point) bool { return slices.Equal(p, q) }

// Clone returns an independent copy of p.
func (p Point) Clone() Point { return slices.Clone(p) }

// Key returns a compact hashable encoding of p.
func (p Point) Key() string { return pointKey(p) }

//////
// Exported functionalities.
//////

// Size returns the number of points in space: the product of all
// cardinalities. The result saturates at math.MaxInt instead of overflowing.
func Size(space SearchSpace) int {
	size := 1
	for i := range space.NDims() {
		size = saturatingMul(size, space.NValues(i), math.MaxInt)
	}

	return size
}

// RandomPoint draws one value per dimension uniformly from its range.
func RandomPoint(space SearchSpace, rng *rand.Rand) Point {
	p := make(Point, space.NDims())
	for i := range p {
		p[i] = rng.Intn(space.NValues(i))
	}

	return p
}

// NthPoint returns the n-th point of space in mixed-radix order, where
// dimension 0 varies fastest. n must be in [0, Size(space)).
func NthPoint(space SearchSpace, n int) Point {
	p := make(Point, space.NDims())
	for i := range p {
		card := space.NValues(i)
		p[i] = n % card
		n /= card
	}

	return p
}

// Contains reports whether p has exactly NDims values, each in range.
func Contains(space SearchSpace, p Point) bool {
	if len(p) != space.NDims() {
		return false
	}

	for i, v := range p {
		if v < 0 || v >= space.NValues(i) {
			return false
		}
	}

	return true
}
