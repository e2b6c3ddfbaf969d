package ntbea

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// anyValue marks a dimension a feature does not constrain.
const anyValue = -1

// RegressionNTupleSystem fits a linear model over binary pattern features.
//
// A feature is a tuple pattern that has been visited at least Threshold
// times. Each sampled point becomes a row of indicators (bias plus one column
// per feature) and the weights are fitted by least squares. The fit is blended
// with the tuple averages of the patterns that are not features.
//
// Fields:
//   - Interpolation: Share of the fit when InterpolateByTuple is false
//   - InterpolateByTuple: Weight the fit by the share of the point's tuples
//     that are features
//   - Threshold: Minimum visits for a pattern to become a feature
//   - MaxFeatures: Keep only the most visited features; 0 keeps all
type RegressionNTupleSystem struct {
	*NTupleSystem

	Interpolation      float64
	InterpolateByTuple bool
	Threshold          int
	MaxFeatures        int

	points   []Point
	results  []float64
	features []Point
	index    map[string]struct{}
	weights  []float64
	dirty    bool
}

// NewRegressionNTupleSystem builds the regression model over space with the
// default blending options.
func NewRegressionNTupleSystem(space SearchSpace, cfg TupleConfig) (*RegressionNTupleSystem, error) {
	base, err := NewNTupleSystem(space, cfg)
	if err != nil {
		return nil, err
	}

	return &RegressionNTupleSystem{
		NTupleSystem:       base,
		Interpolation:      0.5,
		InterpolateByTuple: true,
		Threshold:          10,
		index:              make(map[string]struct{}),
	}, nil
}

// Reset implements BanditLandscapeModel.
func (m *RegressionNTupleSystem) Reset() {
	m.NTupleSystem.Reset()

	m.points = nil
	m.results = nil
	m.features = nil
	m.index = make(map[string]struct{})
	m.weights = nil
	m.dirty = false
}

// AddPoint implements BanditLandscapeModel. The fit is recomputed lazily on
// the next estimate.
func (m *RegressionNTupleSystem) AddPoint(p Point, value float64) {
	m.NTupleSystem.AddPoint(p, value)

	m.points = append(m.points, p.Clone())
	m.results = append(m.results, value)
	m.dirty = true
}

// MeanEstimate implements BanditLandscapeModel.
func (m *RegressionNTupleSystem) MeanEstimate(p Point) float64 {
	m.refit()

	row := m.featureRow(p)
	fit := m.predict(row)

	if !m.InterpolateByTuple {
		return m.Interpolation*fit + (1-m.Interpolation)*m.NTupleSystem.MeanEstimate(p)
	}

	on := 0
	for _, v := range row[1:] {
		if v > 0 {
			on++
		}
	}

	w := math.Min(float64(on)/float64(len(m.tuples)), 1)

	return fit*w + m.belowThreshold(p)*(1-w)
}

// Features returns the current feature patterns, -1 marking an unconstrained
// dimension.
func (m *RegressionNTupleSystem) Features() []Point {
	m.refit()

	out := make([]Point, len(m.features))
	for i, f := range m.features {
		out[i] = f.Clone()
	}

	return out
}

// Weights returns the fitted weights, bias first. It is nil before any point
// was added or when the fit failed.
func (m *RegressionNTupleSystem) Weights() []float64 {
	m.refit()

	return slices.Clone(m.weights)
}

// String lists the largest weights with their features.
func (m *RegressionNTupleSystem) String() string {
	m.refit()

	var sb strings.Builder

	fmt.Fprintf(&sb, "%d sampled points, %d features above threshold\n", len(m.results), len(m.features))

	order := make([]int, len(m.weights))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(math.Abs(m.weights[b]), math.Abs(m.weights[a]))
	})

	for _, i := range order[:min(len(order), 20)] {
		label := "bias"
		if i > 0 {
			label = formatFeature(m.features[i-1])
		}

		fmt.Fprintf(&sb, "\t%+.3f : %s\n", m.weights[i], label)
	}

	return sb.String()
}

func (m *RegressionNTupleSystem) refit() {
	if !m.dirty {
		return
	}

	m.dirty = false
	m.selectFeatures()

	rows, cols := len(m.points), len(m.features)+1
	data := make([]float64, 0, rows*cols)

	for _, p := range m.points {
		data = append(data, m.featureRow(p)...)
	}

	var svd mat.SVD
	if !svd.Factorize(mat.NewDense(rows, cols, data), mat.SVDThin) {
		m.weights = nil

		return
	}

	rank := svd.Rank(1e-10)
	if rank == 0 {
		m.weights = make([]float64, cols)

		return
	}

	var w mat.VecDense

	svd.SolveVecTo(&w, mat.NewVecDense(rows, slices.Clone(m.results)), rank)

	m.weights = make([]float64, cols)
	for i := range cols {
		m.weights[i] = finiteOr(w.AtVec(i), 0)
	}
}

// selectFeatures collects the patterns visited at least Threshold times, most
// visited first.
func (m *RegressionNTupleSystem) selectFeatures() {
	type candidate struct {
		feature Point
		visits  int
	}

	var found []candidate

	for _, t := range m.tuples {
		for _, e := range t.stats {
			if e.ss.N() < m.Threshold {
				continue
			}

			f := make(Point, m.space.NDims())
			for i := range f {
				f[i] = anyValue
			}

			for i, d := range t.dims {
				f[d] = e.pattern[i]
			}

			found = append(found, candidate{feature: f, visits: e.ss.N()})
		}
	}

	slices.SortFunc(found, func(a, b candidate) int {
		if c := cmp.Compare(b.visits, a.visits); c != 0 {
			return c
		}

		return slices.Compare(a.feature, b.feature)
	})

	if m.MaxFeatures > 0 && len(found) > m.MaxFeatures {
		found = found[:m.MaxFeatures]
	}

	m.features = m.features[:0]
	m.index = make(map[string]struct{}, len(found))

	for _, c := range found {
		key := c.feature.Key()
		if _, dup := m.index[key]; dup {
			continue
		}

		m.index[key] = struct{}{}
		m.features = append(m.features, c.feature)
	}

	slices.SortFunc(m.features, slices.Compare)
}

// featureRow returns the bias followed by one indicator per feature.
func (m *RegressionNTupleSystem) featureRow(p Point) []float64 {
	row := make([]float64, len(m.features)+1)
	row[0] = 1

	for i, f := range m.features {
		if matches(f, p) {
			row[i+1] = 1
		}
	}

	return row
}

func (m *RegressionNTupleSystem) predict(row []float64) float64 {
	if len(m.weights) != len(row) {
		return 0
	}

	var sum float64
	for i, v := range row {
		sum += v * m.weights[i]
	}

	return sum
}

// belowThreshold averages the tuple means of p's patterns that are not
// features, 0 when there are none.
func (m *RegressionNTupleSystem) belowThreshold(p Point) float64 {
	var total StatSummary

	for _, t := range m.tuples {
		ss, ok := t.Stats(p)
		if !ok {
			continue
		}

		f := make(Point, len(p))
		for i := range f {
			f[i] = anyValue
		}

		for _, d := range t.dims {
			f[d] = p[d]
		}

		if _, isFeature := m.index[f.Key()]; isFeature {
			continue
		}

		if mean := ss.Mean(); !math.IsNaN(mean) {
			total.Add(mean)
		}
	}

	return finiteOr(total.Mean(), 0)
}

func matches(feature, p Point) bool {
	for i, v := range feature {
		if v != anyValue && v != p[i] {
			return false
		}
	}

	return true
}

func formatFeature(f Point) string {
	parts := make([]string, len(f))
	for i, v := range f {
		if v == anyValue {
			parts[i] = "*"
		} else {
			parts[i] = fmt.Sprint(v)
		}
	}

	return strings.Join(parts, "|")
}
