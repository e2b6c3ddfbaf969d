package ntbea

import (
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns a deterministic configuration suited to fitness values
// in the single digits.
func testConfig(seed int64) Config {
	config := DefaultConfig()
	config.KExplore = 2
	config.RandomState = rand.New(rand.NewSource(seed))

	return config
}

func newLinearEvaluator() *FuncEvaluator {
	return NewFuncEvaluator(NewSpace(2, 2, 2), func(p Point) (float64, error) {
		return linearFitness(p), nil
	})
}

func TestRunTrialFindsOptimum(t *testing.T) {
	for seed := range int64(5) {
		eval := newLinearEvaluator()

		config := testConfig(seed)
		config.NNeighbours = 5

		ea := New(nil, config)
		assert.Equal(t, Uninitialized, ea.State())

		result, err := ea.RunTrial(eval, 200)
		require.NoError(t, err)

		assert.Equal(t, Point{1, 1, 1}, result.Best, "seed %d", seed)
		assert.Equal(t, 7.0, result.BestFitness)
		assert.Equal(t, 200, result.Iterations)
		assert.Equal(t, 200, result.Evaluations)
		assert.Equal(t, 5, result.Neighbourhood)
		assert.Equal(t, Terminated, ea.State())
		assert.NotNil(t, ea.Model())
	}
}

func TestRunTrialResetsReusedEvaluator(t *testing.T) {
	eval := newLinearEvaluator()

	for run := range int64(2) {
		result, err := New(nil, testConfig(run)).RunTrial(eval, 200)
		require.NoError(t, err)

		assert.Equal(t, 200, result.Iterations)
		assert.Equal(t, 200, result.Evaluations, "run %d", run)
		assert.Equal(t, 200, eval.NEvals())
	}
}

func TestRunTrialWithSeed(t *testing.T) {
	progress := make(chan ProgressUpdate, 1)

	config := testConfig(1)
	config.Seed = Point{0, 1, 0}
	config.ProgressChan = progress

	_, err := New(nil, config).RunTrial(newLinearEvaluator(), 3)
	require.NoError(t, err)

	update := <-progress

	assert.Equal(t, Point{0, 1, 0}, update.CurrentPoint, "the seed is evaluated first")
	assert.Equal(t, Point{0, 1, 0}, config.Seed, "the seed is not modified")
}

func TestRunTrialInvalidSeed(t *testing.T) {
	config := testConfig(1)
	config.Seed = Point{0, 2, 0}

	_, err := New(nil, config).RunTrial(newLinearEvaluator(), 10)
	assert.ErrorIs(t, err, ErrInvalidSeed)

	config.Seed = Point{0, 1}

	_, err = New(nil, config).RunTrial(newLinearEvaluator(), 10)
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestRunTrialInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no neighbours", func(c *Config) { c.NNeighbours = 0 }},
		{"no samples", func(c *Config) { c.NSamples = 0 }},
		{"negative k", func(c *Config) { c.KExplore = -1 }},
		{"negative attempts", func(c *Config) { c.MaxMutationAttempts = -1 }},
		{"no random state", func(c *Config) { c.RandomState = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(1)
			tt.mutate(&config)

			_, err := New(nil, config).RunTrial(newLinearEvaluator(), 10)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRunTrialEvaluatorError(t *testing.T) {
	boom := errors.New("simulator crashed")

	var calls atomic.Int32

	eval := NewFuncEvaluator(NewSpace(3, 3), func(p Point) (float64, error) {
		if calls.Add(1) == 4 {
			return 0, boom
		}

		return 1, nil
	})

	ea := New(nil, testConfig(1))

	_, err := ea.RunTrial(eval, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Terminated, ea.State())
}

func TestRunTrialZeroBudget(t *testing.T) {
	_, err := New(nil, testConfig(1)).RunTrial(newLinearEvaluator(), 0)
	assert.ErrorIs(t, err, ErrNoEvaluations)
}

func TestRunTrialTinySpaceTerminates(t *testing.T) {
	// Two points: each has exactly one neighbour.
	eval := NewFuncEvaluator(NewSpace(2), func(p Point) (float64, error) {
		return float64(p[0]), nil
	})

	config := testConfig(1)
	config.NNeighbours = 50

	result, err := New(nil, config).RunTrial(eval, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Neighbourhood)
	assert.Equal(t, Point{1}, result.Best)

	// A single point space has no neighbours at all.
	eval = NewFuncEvaluator(NewSpace(1, 1), func(Point) (float64, error) { return 3, nil })

	result, err = New(nil, config).RunTrial(eval, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Neighbourhood)
	assert.Equal(t, Point{0, 0}, result.Best)
	assert.Equal(t, 3.0, result.BestFitness)
}

func TestRunTrialNSamplesAverages(t *testing.T) {
	var calls atomic.Int32

	eval := NewFuncEvaluator(NewSpace(2, 2), func(Point) (float64, error) {
		// Alternates 0, 2, 0, 2, ...
		return float64(2 * ((calls.Add(1) + 1) % 2)), nil
	})

	config := testConfig(1)
	config.NSamples = 2

	result, err := New(nil, config).RunTrial(eval, 4)
	require.NoError(t, err)
	assert.Equal(t, 8, result.Evaluations)
	assert.Equal(t, 1.0, result.BestFitness)
}

func TestRunTrialProgress(t *testing.T) {
	config := testConfig(2)
	config.NNeighbours = 5

	progress := make(chan ProgressUpdate, 100)
	config.ProgressChan = progress

	_, err := New(nil, config).RunTrial(newLinearEvaluator(), 10)
	require.NoError(t, err)
	close(progress)

	var updates []ProgressUpdate
	for u := range progress {
		updates = append(updates, u)
	}

	require.Len(t, updates, 10)

	for i, u := range updates {
		assert.Equal(t, "Optimization", u.Phase)
		assert.Equal(t, i+1, u.CurrentIteration)
		assert.Equal(t, 10, u.TotalIterations)
		assert.Equal(t, i+1, u.Evaluations)
		assert.GreaterOrEqual(t, u.CurrentBestFitness, u.LastFitness)
	}
}

func TestRunTrialFullProgressChannelDoesNotBlock(t *testing.T) {
	config := testConfig(2)
	config.ProgressChan = make(chan ProgressUpdate)

	result, err := New(nil, config).RunTrial(newLinearEvaluator(), 20)
	require.NoError(t, err)
	assert.Equal(t, 20, result.Iterations)
}

func TestRunTrialWithAcquisitionFunctions(t *testing.T) {
	for name, acquire := range map[string]AcquisitionFunc{
		"pi":       ProbabilityOfImprovement,
		"ei":       ExpectedImprovement,
		"thompson": ThompsonSampling,
	} {
		t.Run(name, func(t *testing.T) {
			config := testConfig(4)
			config.NNeighbours = 5
			config.Acquisition = acquire

			result, err := New(nil, config).RunTrial(newLinearEvaluator(), 200)
			require.NoError(t, err)
			assert.Equal(t, 200, result.Iterations)
			assert.Equal(t, 7.0, result.BestFitness)
		})
	}
}

func TestNeighbourhoodSize(t *testing.T) {
	tests := []struct {
		requested int
		cards     []int
		want      int
	}{
		{50, []int{2, 2, 2}, 5},
		{50, []int{10, 10, 10}, 50},
		{100, []int{10, 10}, 25},
		{1, []int{10, 10, 10}, 5},
		{50, []int{2}, 1},
		{50, []int{1}, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, neighbourhoodSize(tt.requested, NewSpace(tt.cards...)), "%d in %v", tt.requested, tt.cards)
	}
}

func TestSelectSuccessorAttemptBudget(t *testing.T) {
	space := NewSpace(2, 2, 2)
	model := newDefaultModel(t, 2, 2, 2)
	mutator := NewDefaultMutator(space, rand.New(rand.NewSource(1)))

	_, found := selectSuccessor(model, mutator, Point{0, 0, 0}, nil, AcquisitionParams{}, 7, 1)
	assert.Equal(t, 1, found, "one attempt yields at most one neighbour")

	next, found := selectSuccessor(model, mutator, Point{0, 0, 0}, nil, AcquisitionParams{}, 7, 10000)
	assert.Equal(t, 7, found)
	assert.NotEqual(t, Point{0, 0, 0}, next)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "terminated", Terminated.String())
	assert.Equal(t, "state(7)", State(7).String())
}
