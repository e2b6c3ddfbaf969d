package ntbea

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

//////
// Const, vars, types.
//////

const (
	// minNeighbours is the lower bound of the neighbourhood size.
	minNeighbours = 5

	// defaultAttemptsPerNeighbour sets the default mutation attempt budget.
	defaultAttemptsPerNeighbour = 100
)

// NTupleBanditEA is the single-agent n-tuple bandit evolutionary algorithm.
//
// Each iteration it:
//  1. Evaluates the current point (NSamples times, averaged)
//  2. Adds the observation to the landscape model
//  3. Mutates the current point until the CandidateSelector holds the
//     neighbourhood size of distinct neighbours (or the attempt budget is
//     spent)
//  4. Moves to the neighbour with the best UCB score
//
// The result is the model's best sampled point, not the last current point.
type NTupleBanditEA struct {
	config Config
	model  BanditLandscapeModel
	state  State
}

//////
// Factory.
//////

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		KExplore:        100.0,
		NNeighbours:     50,
		Xi:              0.01,
		Epsilon:         DefaultEpsilon,
		NSamples:        1,
		ReportFrequency: 0,
		RandomState:     rand.New(rand.NewSource(time.Now().UnixNano())),
		Logger:          nil, // Default to no logs.
		ProgressChan:    nil, // Default to no progress updates.
	}
}

// New returns an optimiser. model may be nil, in which case RunTrial builds
// an NTupleSystem with DefaultTupleConfig for the evaluator's space. A
// non-nil model is reused across runs; call its Reset between independent
// experiments.
func New(model BanditLandscapeModel, config Config) *NTupleBanditEA {
	return &NTupleBanditEA{config: config, model: model}
}

//////
// Methods.
//////

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.NNeighbours < 1:
		return fmt.Errorf("%w: NNeighbours must be positive, got %d", ErrInvalidConfig, c.NNeighbours)
	case c.NSamples < 1:
		return fmt.Errorf("%w: NSamples must be positive, got %d", ErrInvalidConfig, c.NSamples)
	case c.KExplore < 0 || math.IsNaN(c.KExplore):
		return fmt.Errorf("%w: KExplore must be non-negative, got %v", ErrInvalidConfig, c.KExplore)
	case c.MaxMutationAttempts < 0:
		return fmt.Errorf("%w: MaxMutationAttempts must be non-negative, got %d", ErrInvalidConfig, c.MaxMutationAttempts)
	case c.RandomState == nil:
		return fmt.Errorf("%w: RandomState is required", ErrInvalidConfig)
	}

	return nil
}

// logger returns the configured logger or one that discards.
func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.New(slog.DiscardHandler)
}

// neighbourhoodSize clamps requested to [5, size/4], then to size-1, the
// number of distinct neighbours any point can have.
func neighbourhoodSize(requested int, space SearchSpace) int {
	size := Size(space)

	n := min(requested, size/4)
	if n < minNeighbours {
		n = minNeighbours
	}

	return clamp(n, 0, size-1)
}

// attemptBudget returns the per-iteration mutation budget.
func (c Config) attemptBudget(neighbourhood int) int {
	if c.MaxMutationAttempts > 0 {
		return c.MaxMutationAttempts
	}

	return max(defaultAttemptsPerNeighbour*neighbourhood, defaultAttemptsPerNeighbour)
}

// sendProgress delivers update without blocking.
func (c Config) sendProgress(update ProgressUpdate) {
	if c.ProgressChan == nil {
		return
	}

	select {
	case c.ProgressChan <- update:
	default:
		// Skip update if channel is full.
	}
}

// resolveModel returns the configured model or builds the default one.
func resolveModel(model BanditLandscapeModel, space SearchSpace, epsilon float64) (BanditLandscapeModel, error) {
	if model == nil {
		m, err := NewNTupleSystem(space, DefaultTupleConfig())
		if err != nil {
			return nil, err
		}

		model = m
	}

	model.SetEpsilon(epsilon)

	return model, nil
}

// resolveStart returns a copy of seed when it is valid, a random point when
// it is nil, and ErrInvalidSeed otherwise.
func resolveStart(seed Point, space SearchSpace, rng *rand.Rand) (Point, error) {
	if seed == nil {
		return RandomPoint(space, rng), nil
	}

	if !Contains(space, seed) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, seed)
	}

	return seed.Clone(), nil
}

// acquisitionParams returns the parameters for this iteration's scoring.
func (c Config) acquisitionParams(bestSoFar float64) AcquisitionParams {
	return AcquisitionParams{
		KExplore:    c.KExplore,
		Xi:          c.Xi,
		BestSoFar:   bestSoFar,
		RandomState: c.RandomState,
	}
}

// selectSuccessor fills a CandidateSelector with mutations of p and returns
// the best-scoring one. When no neighbour could be produced p is returned.
func selectSuccessor(
	model BanditLandscapeModel,
	mutator Mutator,
	p Point,
	acquire AcquisitionFunc,
	params AcquisitionParams,
	neighbourhood, attempts int,
) (Point, int) {
	evc := NewCandidateSelectorWith(model, acquire, params)

	for tries := 0; evc.N() < neighbourhood && tries < attempts; tries++ {
		evc.Add(mutator.Mutate(p))
	}

	best, _, ok := evc.Best()
	if !ok {
		return p, evc.N()
	}

	return best, evc.N()
}

// State returns the optimiser's lifecycle state.
func (ea *NTupleBanditEA) State() State { return ea.state }

// Model returns the landscape model, nil before the first run when none was
// given to New.
func (ea *NTupleBanditEA) Model() BanditLandscapeModel { return ea.model }

// fitness returns the mean of NSamples evaluations of p.
func (ea *NTupleBanditEA) fitness(evaluator SolutionEvaluator, p Point) (float64, error) {
	if ea.config.NSamples == 1 {
		return evaluator.Evaluate(p)
	}

	var ss StatSummary

	for range ea.config.NSamples {
		v, err := evaluator.Evaluate(p)
		if err != nil {
			return 0, err
		}

		ss.Add(v)
	}

	return ss.Mean(), nil
}

// RunTrial runs nEvals iterations of the search against evaluator.
//
// Parameters:
// - evaluator: Fitness of single points. Its counter is reset before the
// first iteration
// - nEvals: Number of iterations; each iteration makes NSamples evaluations
//
// Returns:
// - Result: The best sampled point and its empirical mean fitness
// - error: Invalid configuration or seed, or the first evaluator error
//
// Usage example:
//
//	space := NewSpace(2, 2, 2)
//	eval := NewFuncEvaluator(space, func(p Point) (float64, error) {
//	    return float64(p[0] + 2*p[1] + 4*p[2]), nil
//	})
//
//	config := DefaultConfig()
//	config.NNeighbours = 5
//
//	result, err := New(nil, config).RunTrial(eval, 200)
//	// result.Best == Point{1, 1, 1}, result.BestFitness == 7
func (ea *NTupleBanditEA) RunTrial(evaluator SolutionEvaluator, nEvals int) (Result, error) {
	if err := ea.config.Validate(); err != nil {
		return Result{}, err
	}

	evaluator.Reset()

	space := evaluator.SearchSpace()
	rng := ea.config.RandomState
	log := ea.config.logger()

	model, err := resolveModel(ea.model, space, ea.config.Epsilon)
	if err != nil {
		return Result{}, err
	}

	ea.model = model

	p, err := resolveStart(ea.config.Seed, space, rng)
	if err != nil {
		return Result{}, err
	}

	neighbourhood := neighbourhoodSize(ea.config.NNeighbours, space)
	attempts := ea.config.attemptBudget(neighbourhood)
	mutator := NewDefaultMutator(space, rng)

	ea.state = Running
	defer func() { ea.state = Terminated }()

	log.Debug("ntbea run started",
		"dims", space.NDims(),
		"size", Size(space),
		"neighbourhood", neighbourhood,
		"k_explore", ea.config.KExplore,
		"n_evals", nEvals,
	)

	iterations := 0

	for i := range nEvals {
		// Each iteration makes one (possibly resampled) fitness evaluation of
		// p and adds this new information to the model.
		fitness, err := ea.fitness(evaluator, p)
		if err != nil {
			return Result{}, fmt.Errorf("evaluate %v at iteration %d: %w", p, i, err)
		}

		model.AddPoint(p, fitness)
		iterations++

		best, bestFitness, _ := model.BestOfSampled()

		if f := ea.config.ReportFrequency; f > 0 && i > 0 && i%f == 0 {
			log.Info("ntbea progress",
				"iteration", i,
				"evaluations", evaluator.NEvals(),
				"fitness", fitness,
				"best", best,
				"best_fitness", bestFitness,
			)
		}

		ea.config.sendProgress(ProgressUpdate{
			Phase:              "Optimization",
			CurrentIteration:   i + 1,
			TotalIterations:    nEvals,
			CurrentPoint:       p,
			CurrentBestPoint:   best,
			CurrentBestFitness: bestFitness,
			LastFitness:        fitness,
			Evaluations:        evaluator.NEvals(),
		})

		// Explore the neighbourhood of p in the model only, balancing
		// exploration and exploitation.
		params := ea.config.acquisitionParams(bestFitness)
		next, found := selectSuccessor(model, mutator, p, ea.config.Acquisition, params, neighbourhood, attempts)
		if found < neighbourhood {
			log.Debug("neighbourhood short", "iteration", i, "found", found, "wanted", neighbourhood)
		}

		p = next
	}

	best, bestFitness, ok := model.BestOfSampled()
	if !ok {
		return Result{}, ErrNoEvaluations
	}

	log.Debug("ntbea run finished", "best", best, "best_fitness", bestFitness, "evaluations", evaluator.NEvals())

	return Result{
		Best:          best,
		BestFitness:   bestFitness,
		Iterations:    iterations,
		Evaluations:   evaluator.NEvals(),
		Neighbourhood: neighbourhood,
	}, nil
}
