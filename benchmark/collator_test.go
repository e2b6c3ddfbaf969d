package benchmark

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCollator(t *testing.T) {
	c := NewStatsCollator()

	for i := 1; i <= 100; i++ {
		c.AddDetailed("score", float64(i))
	}

	c.AddAll(map[string]float64{"plain": 2})
	c.Add("plain", 4)

	assert.Equal(t, []string{"plain", "score"}, c.Keys())
	assert.Equal(t, 3.0, c.Mean("plain"))
	assert.Equal(t, 50.5, c.Mean("score"))
	assert.Equal(t, -1.0, c.Mean("missing"))

	median, err := c.Percentile("score", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 51.0, median)

	top, err := c.Percentile("score", 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, top)

	_, err = c.Percentile("score", 1.5)
	assert.ErrorIs(t, err, ErrInvalidPercentile)

	_, err = c.Percentile("plain", 0.5)
	assert.ErrorIs(t, err, ErrNoDetail)

	summary := c.Summary()
	assert.Regexp(t, `plain\s+= 3, SE`, summary)
	assert.Contains(t, summary, "Median = 51")

	c.Clear()
	assert.Empty(t, c.Keys())
}

func TestStatsCollatorConcurrentAdds(t *testing.T) {
	c := NewStatsCollator()

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				c.AddDetailed("x", 1)
			}
		}()
	}

	wg.Wait()

	ss, ok := c.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1000, ss.N())
}
