package ntbea

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightFuncs(t *testing.T) {
	assert.Equal(t, 0.0, ExpWeight(10)(0))
	assert.InDelta(t, 1-math.Exp(-1), ExpWeight(10)(10), 1e-12)
	assert.Equal(t, 0.5, LinearWeight(10)(5))
	assert.Equal(t, 1.0, LinearWeight(10)(50))
	assert.Equal(t, 0.5, InverseWeight(10)(10))
	assert.InDelta(t, 1-math.Sqrt(0.5), SqrtWeight(10)(10), 1e-12)

	for _, w := range []WeightFunc{ExpWeight(3), LinearWeight(3), InverseWeight(3), SqrtWeight(3)} {
		assert.LessOrEqual(t, w(1), w(2))
		assert.LessOrEqual(t, w(1000), 1.0)
	}
}

func newWeightedModel(t *testing.T, cards ...int) *WeightedNTupleSystem {
	t.Helper()

	model, err := NewWeightedNTupleSystem(NewSpace(cards...), DefaultTupleConfig(), nil)
	require.NoError(t, err)

	return model
}

func TestWeightedMeanEstimate(t *testing.T) {
	model := newWeightedModel(t, 3, 3, 3)

	assert.Equal(t, 0.0, model.MeanEstimate(Point{1, 1, 1}))

	model.AddPoint(Point{1, 1, 1}, 6)
	model.AddPoint(Point{0, 0, 0}, 0)

	assert.InDelta(t, 6.0, model.MeanEstimate(Point{1, 1, 1}), 1e-9)
	assert.InDelta(t, 0.0, model.MeanEstimate(Point{0, 0, 0}), 1e-9)

	// An unseen point built from values of the good point inherits from its
	// sub-patterns.
	assert.Greater(t, model.MeanEstimate(Point{1, 1, 2}), model.MeanEstimate(Point{0, 0, 2}))
	assert.False(t, math.IsNaN(model.MeanEstimate(Point{2, 2, 2})))
}

func TestWeightedHeavilyVisitedPatternDominates(t *testing.T) {
	model := newWeightedModel(t, 2, 2, 2)
	model.Weight = LinearWeight(1)

	// Once the full pattern has a weight of 1 its own mean is used as is.
	model.AddPoint(Point{1, 1, 1}, 10)
	model.AddPoint(Point{1, 0, 0}, 0)
	model.AddPoint(Point{0, 1, 0}, 0)
	model.AddPoint(Point{0, 0, 1}, 0)

	assert.InDelta(t, 10.0, model.MeanEstimate(Point{1, 1, 1}), 1e-9)

	plain, err := NewNTupleSystem(NewSpace(2, 2, 2), DefaultTupleConfig())
	require.NoError(t, err)

	for _, p := range []Point{{1, 1, 1}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		mean, _ := model.SampledMean(p)
		plain.AddPoint(p, mean)
	}

	assert.Less(t, plain.MeanEstimate(Point{1, 1, 1}), 10.0)
}

func TestWeightedExplorationOptions(t *testing.T) {
	model := newWeightedModel(t, 3, 3, 3)
	model.AddPoint(Point{0, 0, 0}, 1)
	model.AddPoint(Point{0, 0, 0}, 1)

	base := model.ExplorationEstimate(Point{0, 0, 0})
	assert.InDelta(t, model.NTupleSystem.ExplorationEstimate(Point{0, 0, 0}), base, 1e-12)

	model.ExploreWithSqrt = true
	withSqrt := model.ExplorationEstimate(Point{0, 0, 0})
	assert.InDelta(t, math.Sqrt(math.Sqrt(3)/(DefaultEpsilon+2)), withSqrt, 1e-12)

	model.ExploreWithSqrt = false
	model.WeightExplore = true

	weighted := model.ExplorationEstimate(Point{1, 1, 1})
	assert.False(t, math.IsNaN(weighted))
	assert.Greater(t, weighted, model.ExplorationEstimate(Point{0, 0, 0}))
}
