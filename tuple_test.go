package ntbea

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNTupleValidation(t *testing.T) {
	space := NewSpace(2, 2, 2)

	_, err := NewNTuple(space)
	assert.ErrorIs(t, err, ErrInvalidTuple)

	_, err = NewNTuple(space, 0, 3)
	assert.ErrorIs(t, err, ErrInvalidTuple)

	_, err = NewNTuple(space, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidTuple)

	tuple, err := NewNTuple(space, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, tuple.Dims())
}

func TestNTupleProjectAndAdd(t *testing.T) {
	tuple, err := NewNTuple(NewSpace(3, 3, 3), 0, 2)
	require.NoError(t, err)

	assert.Equal(t, Point{1, 2}, tuple.Project(Point{1, 0, 2}))

	tuple.Add(Point{1, 0, 2}, 4)
	tuple.Add(Point{1, 1, 2}, 2)
	tuple.Add(Point{0, 1, 2}, 1)

	ss, ok := tuple.Stats(Point{1, 2, 2})
	require.True(t, ok, "points sharing a pattern share statistics")
	assert.Equal(t, 2, ss.N())
	assert.Equal(t, 3.0, ss.Mean())

	_, ok = tuple.Stats(Point{2, 2, 2})
	assert.False(t, ok)

	assert.Equal(t, 3, tuple.NSamples())
	assert.Equal(t, 2, tuple.NPatterns())
	assert.Equal(t, "NTuple[0 2] patterns=2 samples=3", tuple.String())
}

func TestNTupleZeroMeanIsStillObserved(t *testing.T) {
	tuple, err := NewNTuple(NewSpace(2), 0)
	require.NoError(t, err)

	tuple.Add(Point{0}, 0)

	ss, ok := tuple.Stats(Point{0})
	require.True(t, ok)
	assert.Equal(t, 0.0, ss.Mean())
}

func TestNTupleAddSummaryAndReset(t *testing.T) {
	tuple, err := NewNTuple(NewSpace(2, 2), 1)
	require.NoError(t, err)

	var ss StatSummary
	ss.AddAll(1, 3, 5)

	tuple.AddSummary(Point{0, 1}, &ss)
	tuple.AddSummary(Point{0, 0}, &StatSummary{})

	assert.Equal(t, 3, tuple.NSamples())
	assert.Equal(t, 1, tuple.NPatterns())

	tuple.Reset()

	assert.Equal(t, 0, tuple.NSamples())
	assert.Equal(t, 0, tuple.NPatterns())
}

func TestNTupleSnapshotSorted(t *testing.T) {
	tuple, err := NewNTuple(NewSpace(3, 3), 0, 1)
	require.NoError(t, err)

	tuple.Add(Point{2, 0}, 1)
	tuple.Add(Point{0, 1}, 2)
	tuple.Add(Point{0, 1}, 4)

	snap := tuple.Snapshot()

	assert.Equal(t, []int{0, 1}, snap.Dims)
	assert.Equal(t, 3, snap.NSamples)
	require.Len(t, snap.Patterns, 2)
	assert.Equal(t, Point{0, 1}, snap.Patterns[0].Pattern)
	assert.Equal(t, 2, snap.Patterns[0].N)
	assert.Equal(t, 3.0, snap.Patterns[0].Mean)
	assert.Equal(t, Point{2, 0}, snap.Patterns[1].Pattern)
}
