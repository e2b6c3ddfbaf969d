package ntbea

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPicker(t *testing.T) {
	maxPicker := NewPicker[string](MaxFirst)

	_, _, ok := maxPicker.Best()
	assert.False(t, ok)

	maxPicker.Add(1, "a")
	maxPicker.Add(3, "b")
	maxPicker.Add(3, "c")
	maxPicker.Add(math.NaN(), "nan")

	item, score, ok := maxPicker.Best()
	require.True(t, ok)
	assert.Equal(t, "b", item, "first item wins ties")
	assert.Equal(t, 3.0, score)
	assert.Equal(t, 4, maxPicker.N())

	minPicker := NewPicker[string](MinFirst)
	minPicker.Add(math.NaN(), "nan")
	minPicker.Add(2, "x")
	minPicker.Add(-1, "y")

	item, _, _ = minPicker.Best()
	assert.Equal(t, "y", item)
}

func TestCandidateSelectorRejectsDuplicates(t *testing.T) {
	model := newDefaultModel(t, 2, 2, 2)
	cs := NewCandidateSelector(model, 1)

	assert.True(t, cs.Add(Point{0, 1, 0}))
	assert.False(t, cs.Add(Point{0, 1, 0}))
	assert.True(t, cs.Add(Point{1, 1, 0}))
	assert.Equal(t, 2, cs.N())
	assert.Len(t, cs.Candidates(), 2)
}

func TestCandidateSelectorBest(t *testing.T) {
	model := newDefaultModel(t, 2, 2, 2)

	_, _, ok := NewCandidateSelector(model, 1).Best()
	assert.False(t, ok)

	// With no data every candidate scores 0; the first one wins.
	cs := NewCandidateSelector(model, 1)
	cs.Add(Point{1, 0, 0})
	cs.Add(Point{0, 1, 0})

	best, _, ok := cs.Best()
	require.True(t, ok)
	assert.Equal(t, Point{1, 0, 0}, best)

	model.AddPoint(Point{0, 0, 0}, 0)
	model.AddPoint(Point{1, 1, 1}, 10)

	// Pure exploitation follows the mean estimate.
	cs = NewCandidateSelector(model, 0)
	cs.Add(Point{0, 0, 1})
	cs.Add(Point{1, 1, 0})

	best, score, _ := cs.Best()
	assert.Equal(t, Point{1, 1, 0}, best)
	assert.Equal(t, EvaluateScore(model, Point{1, 1, 0}, 0), score)
}

func TestCandidateSelectorWithAcquisition(t *testing.T) {
	model := newDefaultModel(t, 2, 2, 2)
	model.AddPoint(Point{0, 0, 0}, 1)

	cs := NewCandidateSelectorWith(model, nil, AcquisitionParams{KExplore: 2})
	cs.Add(Point{1, 1, 1})

	_, score, _ := cs.Best()
	assert.Equal(t, EvaluateScore(model, Point{1, 1, 1}, 2), score, "nil acquisition means UCB")

	constant := func(float64, float64, AcquisitionParams) float64 { return 42 }
	cs = NewCandidateSelectorWith(model, constant, AcquisitionParams{})
	cs.Add(Point{1, 1, 1})

	_, score, _ = cs.Best()
	assert.Equal(t, 42.0, score)
}
