package benchmark

import (
	"fmt"
	"math"
	"slices"
)

// Function is a synthetic objective over the unit hypercube. Values are
// normalised to [0, 1] with 1 at the global optimum, so they double as the
// success probability of a noisy Bernoulli evaluation.
type Function interface {
	Name() string
	Dimension() int
	Value(x []float64) float64
}

// hartmann is the Hartmann family: -sum_i alpha_i exp(-sum_j A_ij (x_j - P_ij)^2),
// divided by its negated global minimum.
type hartmann struct {
	name    string
	a, p    [][]float64
	alpha   []float64
	minimum float64
}

var (
	hartmannAlpha = []float64{1.0, 1.2, 3.0, 3.2}

	// Hartmann3 is the 3-dimensional Hartmann function.
	Hartmann3 Function = hartmann{
		name: "Hartmann3",
		a: [][]float64{
			{3, 10, 30},
			{0.1, 10, 35},
			{3, 10, 30},
			{0.1, 10, 35},
		},
		p: scale(1e-4, [][]float64{
			{3689, 1170, 2673},
			{4699, 4387, 7470},
			{1091, 8732, 5547},
			{381, 5743, 8828},
		}),
		alpha:   hartmannAlpha,
		minimum: -3.86278,
	}

	// Hartmann6 is the 6-dimensional Hartmann function.
	Hartmann6 Function = hartmann{
		name: "Hartmann6",
		a: [][]float64{
			{10, 3, 17, 3.5, 1.7, 8},
			{0.05, 10, 17, 0.1, 8, 14},
			{3, 3.5, 1.7, 10, 17, 8},
			{17, 8, 0.05, 10, 0.1, 14},
		},
		p: scale(1e-4, [][]float64{
			{1312, 1696, 5569, 124, 8283, 5886},
			{2329, 4135, 8307, 3736, 1004, 9991},
			{2348, 1451, 3522, 2883, 3047, 6650},
			{4047, 8828, 8732, 5743, 1091, 381},
		}),
		alpha:   hartmannAlpha,
		minimum: -3.32237,
	}

	// Branin is the Branin-Hoo function on [-5, 10] x [0, 15].
	Branin Function = branin{}

	// GoldsteinPrice is the Goldstein-Price function on [-2, 2]^2.
	GoldsteinPrice Function = goldsteinPrice{}
)

// Functions lists every built-in function.
func Functions() []Function {
	return []Function{Hartmann3, Hartmann6, Branin, GoldsteinPrice}
}

// FunctionByName returns the built-in function called name.
func FunctionByName(name string) (Function, error) {
	i := slices.IndexFunc(Functions(), func(f Function) bool { return f.Name() == name })
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}

	return Functions()[i], nil
}

func (h hartmann) Name() string   { return h.name }
func (h hartmann) Dimension() int { return len(h.a[0]) }

func (h hartmann) Value(x []float64) float64 {
	var sum float64

	for i, row := range h.a {
		var inner float64
		for j, aij := range row {
			d := x[j] - h.p[i][j]
			inner += aij * d * d
		}

		sum += h.alpha[i] * math.Exp(-inner)
	}

	return unit(-sum / h.minimum)
}

const (
	braninMin = 0.397887
	braninMax = 308.129
)

type branin struct{}

func (branin) Name() string   { return "Branin" }
func (branin) Dimension() int { return 2 }

func (branin) Value(x []float64) float64 {
	x1 := 15*x[0] - 5
	x2 := 15 * x[1]

	b := 5.1 / (4 * math.Pi * math.Pi)
	c := 5 / math.Pi
	t := 1 / (8 * math.Pi)

	inner := x2 - b*x1*x1 + c*x1 - 6
	f := inner*inner + 10*(1-t)*math.Cos(x1) + 10

	return unit(1 - (f-braninMin)/(braninMax-braninMin))
}

const (
	goldsteinPriceMin = 3.0

	// goldsteinPriceUpper bounds the function on its domain. The range spans
	// six orders of magnitude, so values are compared on a log scale.
	goldsteinPriceUpper = 1.1e6
)

type goldsteinPrice struct{}

func (goldsteinPrice) Name() string   { return "GoldsteinPrice" }
func (goldsteinPrice) Dimension() int { return 2 }

func (goldsteinPrice) Value(x []float64) float64 {
	x1 := 4*x[0] - 2
	x2 := 4*x[1] - 2

	s := x1 + x2 + 1
	a := 1 + s*s*(19-14*x1+3*x1*x1-14*x2+6*x1*x2+3*x2*x2)

	d := 2*x1 - 3*x2
	b := 30 + d*d*(18-32*x1+12*x1*x1+48*x2-36*x1*x2+27*x2*x2)

	f := a * b

	return unit(1 - math.Log(f/goldsteinPriceMin)/math.Log(goldsteinPriceUpper/goldsteinPriceMin))
}

func unit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func scale(k float64, m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = k * v
		}
	}

	return out
}
