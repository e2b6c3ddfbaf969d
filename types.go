package ntbea

import (
	"fmt"
	"log/slog"
	"math/rand"
)

// ProgressUpdate represents the current state of an optimisation run.
type ProgressUpdate struct {
	// Phase is "Optimization" for single-agent runs and "MultiAgent" for
	// multi-agent runs.
	Phase string

	// Agent is the index of the agent the update is about (0 for single-agent
	// runs).
	Agent int

	// CurrentIteration is the 1-based iteration number.
	CurrentIteration int

	// TotalIterations is the evaluation budget of the run.
	TotalIterations int

	// CurrentPoint holds the point evaluated this iteration.
	CurrentPoint Point

	// CurrentBestPoint holds the best sampled point so far.
	CurrentBestPoint Point

	// CurrentBestFitness holds the empirical mean fitness of CurrentBestPoint.
	CurrentBestFitness float64

	// LastFitness holds the fitness observed this iteration.
	LastFitness float64

	// Evaluations is the evaluator's NEvals after this iteration.
	Evaluations int
}

// State is the lifecycle state of an optimiser.
type State int

const (
	// Uninitialized is the state before the first RunTrial.
	Uninitialized State = iota

	// Running is the state while RunTrial executes.
	Running

	// Terminated is the state after RunTrial returned.
	Terminated
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the parameters of the n-tuple bandit search.
//
// Usage example:
//
//	config := DefaultConfig()
//
//	// Explore less: fitness values are in [0, 1]
//	config.KExplore = 2.0
//
//	// Average three noisy evaluations per iteration
//	config.NSamples = 3
//
// Default values recommendations:
// - KExplore: scale it to the fitness range; 100 suits fitness values in the tens
// - NNeighbours: 50 (clamped to [5, Size/4], then to Size-1)
// - NSamples: 1 unless evaluations are very noisy
//
// Note:
// - Create separate configs for concurrent runs; RandomState is not thread-safe.
type Config struct {
	// KExplore scales the exploration bonus in the UCB score. Higher values
	// favour rarely sampled regions.
	KExplore float64

	// Acquisition ranks neighbours. Nil means UCB.
	Acquisition AcquisitionFunc

	// Xi is the minimum improvement sought by ProbabilityOfImprovement and
	// ExpectedImprovement.
	Xi float64

	// NNeighbours is the number of distinct neighbours scored by the model
	// each iteration. Neighbours are never evaluated by the fitness function.
	NNeighbours int

	// Epsilon is passed to the landscape model. It keeps the exploration bonus
	// of unseen patterns finite.
	Epsilon float64

	// NSamples is the number of evaluations averaged per iteration.
	NSamples int

	// Seed is the starting point. A random point is used when nil.
	Seed Point

	// MaxMutationAttempts bounds the number of mutations tried per iteration
	// while filling the neighbourhood. 0 means 100 * the neighbourhood size.
	// The effective neighbourhood may be smaller than requested when the
	// local neighbourhood is too small.
	MaxMutationAttempts int

	// ReportFrequency is the number of iterations between progress log lines.
	// 0 disables them.
	ReportFrequency int

	// RandomState drives random starting points and mutations.
	RandomState *rand.Rand

	// Logger receives run logs. Nil discards them.
	Logger *slog.Logger

	// ProgressChan receives one update per iteration (per agent for
	// multi-agent runs). Updates are dropped when the channel is full. If nil,
	// no updates are sent.
	ProgressChan chan<- ProgressUpdate
}

// Result is the outcome of a run.
type Result struct {
	// Best is the sampled point with the highest empirical mean fitness.
	Best Point

	// BestFitness is the empirical mean fitness of Best.
	BestFitness float64

	// Iterations is the number of loop iterations completed.
	Iterations int

	// Evaluations is the evaluator's NEvals at the end of the run.
	Evaluations int

	// Neighbourhood is the neighbourhood size targeted after clamping.
	Neighbourhood int
}
