package ntbea

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpaceSizeAndNames(t *testing.T) {
	space := NewSpace(2, 3, 0).WithNames("a", "", "c")

	assert.Equal(t, 3, space.NDims())
	assert.Equal(t, 1, space.NValues(2), "cardinalities are raised to 1")
	assert.Equal(t, 6, Size(space))
	assert.Equal(t, "a", space.Name(0))
	assert.Equal(t, "d1", space.Name(1))
	assert.Equal(t, "c", space.Name(2))
}

func TestSizeSaturates(t *testing.T) {
	cards := make([]int, 80)
	for i := range cards {
		cards[i] = 10
	}

	assert.Equal(t, math.MaxInt, Size(NewSpace(cards...)))
}

func TestNthPointEnumeratesEveryPointOnce(t *testing.T) {
	space := NewSpace(2, 3, 2)
	seen := make(map[string]bool)

	for i := range Size(space) {
		p := NthPoint(space, i)
		assert.True(t, Contains(space, p))
		assert.False(t, seen[p.Key()], "point %v repeated", p)

		seen[p.Key()] = true
	}

	assert.Len(t, seen, 12)
	assert.Equal(t, Point{1, 0, 0}, NthPoint(space, 1), "dimension 0 varies fastest")
}

func TestRandomPointInSpace(t *testing.T) {
	space := NewSpace(3, 1, 7)
	rng := rand.New(rand.NewSource(1))

	for range 200 {
		assert.True(t, Contains(space, RandomPoint(space, rng)))
	}
}

func TestContains(t *testing.T) {
	space := NewSpace(2, 2)

	assert.True(t, Contains(space, Point{1, 0}))
	assert.False(t, Contains(space, Point{2, 0}))
	assert.False(t, Contains(space, Point{-1, 0}))
	assert.False(t, Contains(space, Point{0}))
}

func TestPointKeyAndClone(t *testing.T) {
	p := Point{0, 12, 300}
	q := p.Clone()
	q[0] = 1

	assert.Equal(t, Point{0, 12, 300}, p)
	assert.NotEqual(t, p.Key(), q.Key())
	assert.Equal(t, p.Key(), Point{0, 12, 300}.Key())
	assert.NotEqual(t, Point{1, 23}.Key(), Point{12, 3}.Key())
	assert.True(t, p.Equal(Point{0, 12, 300}))
}
