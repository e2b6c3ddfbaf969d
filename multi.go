package ntbea

import "fmt"

// MultiNTupleBanditEA co-optimises one point per agent.
//
// Each iteration every agent's point is evaluated jointly, every
// (point, fitness) pair is added to one shared landscape model, and then each
// agent independently moves to its best-scoring neighbour under that model.
//
// Important notes:
//   - Statistics are pooled across agents. This assumes all agents search the
//     same space with symmetric roles; it conflates agent identity in exchange
//     for data efficiency
//   - The result is the shared model's single best sampled point, not one
//     point per agent
type MultiNTupleBanditEA struct {
	// Seeds optionally fixes the starting point of each agent. Missing or nil
	// entries start at random points.
	Seeds []Point

	config  Config
	model   BanditLandscapeModel
	players int
	state   State
}

// NewMulti returns a multi-agent optimiser for players agents. model may be
// nil, in which case RunTrial builds the default NTupleSystem. Config.Seed is
// ignored; use Seeds.
func NewMulti(model BanditLandscapeModel, config Config, players int) *MultiNTupleBanditEA {
	return &MultiNTupleBanditEA{config: config, model: model, players: players}
}

// Players returns the number of agents.
func (ea *MultiNTupleBanditEA) Players() int { return ea.players }

// State returns the optimiser's lifecycle state.
func (ea *MultiNTupleBanditEA) State() State { return ea.state }

// Model returns the shared landscape model.
func (ea *MultiNTupleBanditEA) Model() BanditLandscapeModel { return ea.model }

// fitness evaluates ps jointly NSamples times and averages component-wise.
func (ea *MultiNTupleBanditEA) fitness(evaluator MultiSolutionEvaluator, ps []Point) ([]float64, error) {
	total := make([]float64, ea.players)

	for range ea.config.NSamples {
		fitness, err := evaluator.EvaluateJoint(ps)
		if err != nil {
			return nil, err
		}

		if len(fitness) != ea.players {
			return nil, fmt.Errorf("%w: expected %d results, got %d", ErrPlayerCountMismatch, ea.players, len(fitness))
		}

		for j, v := range fitness {
			total[j] += v
		}
	}

	for j := range total {
		total[j] /= float64(ea.config.NSamples)
	}

	return total, nil
}

// RunTrial runs nEvals joint iterations against evaluator, resetting its
// counter first.
//
// Returns:
// - Result: The shared model's best sampled point and its empirical mean
// - error: Invalid configuration or seeds, an evaluator error, or
// ErrPlayerCountMismatch, all of which abort the run
func (ea *MultiNTupleBanditEA) RunTrial(evaluator MultiSolutionEvaluator, nEvals int) (Result, error) {
	if err := ea.config.Validate(); err != nil {
		return Result{}, err
	}

	evaluator.Reset()

	if ea.players < 1 {
		return Result{}, fmt.Errorf("%w: players must be positive, got %d", ErrInvalidConfig, ea.players)
	}

	space := evaluator.SearchSpace()
	rng := ea.config.RandomState
	log := ea.config.logger()

	model, err := resolveModel(ea.model, space, ea.config.Epsilon)
	if err != nil {
		return Result{}, err
	}

	ea.model = model

	ps := make([]Point, ea.players)
	for j := range ps {
		var seed Point
		if j < len(ea.Seeds) {
			seed = ea.Seeds[j]
		}

		if ps[j], err = resolveStart(seed, space, rng); err != nil {
			return Result{}, fmt.Errorf("agent %d: %w", j, err)
		}
	}

	neighbourhood := neighbourhoodSize(ea.config.NNeighbours, space)
	attempts := ea.config.attemptBudget(neighbourhood)
	mutator := NewDefaultMutator(space, rng)

	ea.state = Running
	defer func() { ea.state = Terminated }()

	log.Debug("multi-agent ntbea run started", "players", ea.players, "neighbourhood", neighbourhood, "n_evals", nEvals)

	iterations := 0

	for i := range nEvals {
		fitness, err := ea.fitness(evaluator, ps)
		if err != nil {
			return Result{}, fmt.Errorf("joint evaluation at iteration %d: %w", i, err)
		}

		// Register all of the evaluated settings with the shared model.
		for j := range ps {
			model.AddPoint(ps[j], fitness[j])
		}

		iterations++

		best, bestFitness, _ := model.BestOfSampled()

		if f := ea.config.ReportFrequency; f > 0 && i > 0 && i%f == 0 {
			log.Info("multi-agent ntbea progress",
				"iteration", i,
				"evaluations", evaluator.NEvals(),
				"fitness", fitness,
				"best", best,
				"best_fitness", bestFitness,
			)
		}

		// Each agent then independently finds its best neighbour.
		params := ea.config.acquisitionParams(bestFitness)
		next := make([]Point, ea.players)
		for j := range ps {
			ea.config.sendProgress(ProgressUpdate{
				Phase:              "MultiAgent",
				Agent:              j,
				CurrentIteration:   i + 1,
				TotalIterations:    nEvals,
				CurrentPoint:       ps[j],
				CurrentBestPoint:   best,
				CurrentBestFitness: bestFitness,
				LastFitness:        fitness[j],
				Evaluations:        evaluator.NEvals(),
			})

			next[j], _ = selectSuccessor(model, mutator, ps[j], ea.config.Acquisition, params, neighbourhood, attempts)
		}

		ps = next
	}

	best, bestFitness, ok := model.BestOfSampled()
	if !ok {
		return Result{}, ErrNoEvaluations
	}

	return Result{
		Best:          best,
		BestFitness:   bestFitness,
		Iterations:    iterations,
		Evaluations:   evaluator.NEvals(),
		Neighbourhood: neighbourhood,
	}, nil
}
