package benchmark

import "github.com/thalesfsp/ntbea"

// FunctionSpace discretises the unit hypercube: every dimension takes the
// values idx/ValuesPerDim for idx in [0, ValuesPerDim).
type FunctionSpace struct {
	Dims         int
	ValuesPerDim int
}

// NewFunctionSpace returns a dims-dimensional grid with valuesPerDim values
// per dimension (at least 1).
func NewFunctionSpace(dims, valuesPerDim int) *FunctionSpace {
	return &FunctionSpace{Dims: dims, ValuesPerDim: max(valuesPerDim, 1)}
}

// NDims implements ntbea.SearchSpace.
func (s *FunctionSpace) NDims() int { return s.Dims }

// NValues implements ntbea.SearchSpace.
func (s *FunctionSpace) NValues(int) int { return s.ValuesPerDim }

// Value returns the coordinate of value index idx.
func (s *FunctionSpace) Value(_, idx int) float64 {
	return float64(idx) / float64(s.ValuesPerDim)
}

// ValueAt maps p to its coordinates.
func (s *FunctionSpace) ValueAt(p ntbea.Point) []float64 {
	x := make([]float64, len(p))
	for i, idx := range p {
		x[i] = s.Value(i, idx)
	}

	return x
}
