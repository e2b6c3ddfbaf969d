package ntbea

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUCB(t *testing.T) {
	assert.Equal(t, 1.0+2.0*0.5, UCB(1, 0.5, AcquisitionParams{KExplore: 2}))
	assert.Equal(t, 1.0, UCB(1, 0.5, AcquisitionParams{}))
}

func TestProbabilityOfImprovement(t *testing.T) {
	params := AcquisitionParams{KExplore: 1, BestSoFar: 1}

	assert.InDelta(t, 0.5, ProbabilityOfImprovement(1, 0.3, params), 1e-12)
	assert.Greater(t, ProbabilityOfImprovement(2, 0.3, params), 0.5)
	assert.Less(t, ProbabilityOfImprovement(0, 0.3, params), 0.5)

	// No uncertainty: certain gain or certain loss.
	params.KExplore = 0
	assert.Equal(t, 1.0, ProbabilityOfImprovement(2, 0.3, params))
	assert.Equal(t, 0.0, ProbabilityOfImprovement(1, 0.3, params))
}

func TestExpectedImprovement(t *testing.T) {
	params := AcquisitionParams{KExplore: 1, BestSoFar: 1, Xi: 0.1}

	for _, mean := range []float64{-1, 0.5, 1, 2} {
		ei := ExpectedImprovement(mean, 0.4, params)

		assert.GreaterOrEqual(t, ei, 0.0)
		assert.GreaterOrEqual(t, ei, mean-1.1-1e-12)
	}

	// More uncertainty never hurts at equal mean.
	assert.Greater(t, ExpectedImprovement(1, 0.8, params), ExpectedImprovement(1, 0.2, params))

	params.KExplore = 0
	assert.InDelta(t, 0.9, ExpectedImprovement(2, 1, params), 1e-12)
	assert.Equal(t, 0.0, ExpectedImprovement(0, 1, params))
}

func TestThompsonSampling(t *testing.T) {
	params := AcquisitionParams{KExplore: 1, RandomState: rand.New(rand.NewSource(1))}

	var ss StatSummary
	for range 5000 {
		ss.Add(ThompsonSampling(3, 0.5, params))
	}

	assert.InDelta(t, 3.0, ss.Mean(), 0.05)
	assert.InDelta(t, 0.5, ss.SD(), 0.05)

	params.KExplore = 0
	assert.Equal(t, 3.0, ThompsonSampling(3, 0.5, params))
}

func TestNormalHelpers(t *testing.T) {
	assert.InDelta(t, 0.5, normalCDF(0), 1e-12)
	assert.InDelta(t, 0.8413447, normalCDF(1), 1e-6)
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), normalPDF(0), 1e-12)
}
