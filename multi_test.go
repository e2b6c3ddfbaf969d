package ntbea

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJointLinearEvaluator() *JointFuncEvaluator {
	return NewJointFuncEvaluator(NewSpace(2, 2, 2), func(points []Point) ([]float64, error) {
		out := make([]float64, len(points))
		for i, p := range points {
			out[i] = linearFitness(p)
		}

		return out, nil
	})
}

func TestMultiRunTrialFindsOptimum(t *testing.T) {
	eval := newJointLinearEvaluator()

	config := testConfig(3)
	config.NNeighbours = 5

	ea := NewMulti(nil, config, 2)
	assert.Equal(t, 2, ea.Players())
	assert.Equal(t, Uninitialized, ea.State())

	result, err := ea.RunTrial(eval, 200)
	require.NoError(t, err)

	assert.Equal(t, Point{1, 1, 1}, result.Best)
	assert.Equal(t, 7.0, result.BestFitness)
	assert.Equal(t, 200, result.Iterations)
	assert.Equal(t, 200, result.Evaluations, "one joint call per iteration")
	assert.Equal(t, Terminated, ea.State())
	assert.NotNil(t, ea.Model())
}

func TestMultiRunTrialResetsReusedEvaluator(t *testing.T) {
	eval := newJointLinearEvaluator()

	for run := range int64(2) {
		result, err := NewMulti(nil, testConfig(run), 2).RunTrial(eval, 50)
		require.NoError(t, err)

		assert.Equal(t, 50, result.Evaluations, "run %d", run)
	}
}

func TestMultiRunTrialPlayerCountMismatch(t *testing.T) {
	eval := NewJointFuncEvaluator(NewSpace(2, 2, 2), func(points []Point) ([]float64, error) {
		return []float64{1}, nil
	})

	_, err := NewMulti(nil, testConfig(1), 2).RunTrial(eval, 10)
	assert.ErrorIs(t, err, ErrPlayerCountMismatch)
}

func TestMultiRunTrialEvaluatorError(t *testing.T) {
	boom := errors.New("match aborted")

	eval := NewJointFuncEvaluator(NewSpace(2, 2), func([]Point) ([]float64, error) {
		return nil, boom
	})

	_, err := NewMulti(nil, testConfig(1), 2).RunTrial(eval, 10)
	assert.ErrorIs(t, err, boom)
}

func TestMultiRunTrialSeeds(t *testing.T) {
	progress := make(chan ProgressUpdate, 2)

	config := testConfig(1)
	config.ProgressChan = progress

	ea := NewMulti(nil, config, 2)
	ea.Seeds = []Point{{1, 0, 1}}

	_, err := ea.RunTrial(newJointLinearEvaluator(), 1)
	require.NoError(t, err)

	first := <-progress
	assert.Equal(t, "MultiAgent", first.Phase)
	assert.Equal(t, 0, first.Agent)
	assert.Equal(t, Point{1, 0, 1}, first.CurrentPoint)
	assert.Equal(t, 5.0, first.LastFitness)

	second := <-progress
	assert.Equal(t, 1, second.Agent)

	ea.Seeds = []Point{{3, 0, 0}}

	_, err = ea.RunTrial(newJointLinearEvaluator(), 1)
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestMultiRunTrialInvalidPlayers(t *testing.T) {
	_, err := NewMulti(nil, testConfig(1), 0).RunTrial(newJointLinearEvaluator(), 10)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMultiRunTrialAveragesSamples(t *testing.T) {
	calls := 0

	eval := NewJointFuncEvaluator(NewSpace(2), func(points []Point) ([]float64, error) {
		calls++

		return []float64{float64(calls % 2), 1}, nil
	})

	config := testConfig(1)
	config.NSamples = 2

	progress := make(chan ProgressUpdate, 2)
	config.ProgressChan = progress

	_, err := NewMulti(nil, config, 2).RunTrial(eval, 1)
	require.NoError(t, err)

	assert.Equal(t, 0.5, (<-progress).LastFitness)
	assert.Equal(t, 1.0, (<-progress).LastFitness)
}
