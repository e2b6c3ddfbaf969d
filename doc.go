// Package ntbea implements the N-Tuple Bandit Evolutionary Algorithm, a
// sample-efficient optimiser for noisy, expensive fitness functions over
// discrete search spaces.
//
// # Features
//
// The package includes the following key features:
//
//   - N-Tuple Landscape Model: Statistics per projection of the sampled points
//     onto subsets of dimensions generalise every evaluation across the space
//   - Bandit Selection: Neighbours are ranked by an upper confidence bound,
//     never by extra fitness evaluations
//   - Alternative Models: Hierarchical visit weighting (WeightedNTupleSystem),
//     a linear fit over frequent patterns (RegressionNTupleSystem) and a
//     kernel-smoothed model (KernelModel)
//   - Multiple Acquisition Functions: UCB (default), Probability of
//     Improvement, Expected Improvement and Thompson Sampling
//   - Multi-Agent Search: Several agents share one model while being evaluated
//     jointly
//   - Progress Monitoring: Real-time updates via channels
//
// # Search Spaces
//
// A point is a vector of value indices, one per dimension, each in
// [0, NValues(dim)). Any type with NDims and NValues is a SearchSpace; Space
// is the ready-made one:
//
//	space := NewSpace(4, 4, 3).WithNames("depth", "width", "rate")
//
// # Running a Search
//
//	eval := NewFuncEvaluator(space, func(p Point) (float64, error) {
//	    return score(p), nil
//	})
//
//	config := DefaultConfig()
//	config.KExplore = 2.0 // fitness in [0, 1]
//
//	result, err := New(nil, config).RunTrial(eval, 500)
//
// The result is the sampled point with the best empirical mean fitness.
//
// # Acquisition Functions
//
// Config.Acquisition replaces the UCB rule. Every function receives the
// model's mean estimate and exploration bonus of the neighbour:
//
//	config.Acquisition = ExpectedImprovement
//	config.Xi = 0.01 // Minimum improvement threshold
//
// # Thread Safety
//
//   - Models are not safe for concurrent use, except KernelModel
//   - Runs with separate configs, models and evaluators may execute
//     concurrently; RandomState must not be shared
//   - Progress channel sends never block
package ntbea
