package ntbea

import (
	"math"
	"math/rand"
)

//////
// Acquisition functions used to rank neighbours.
// Each function turns the model's estimates for a candidate into a score,
// balancing exploitation (a high MeanEstimate) and exploration (a high
// ExplorationEstimate). Higher scores are better.
//////

// AcquisitionFunc scores a candidate from its model estimates.
//
// Parameters:
// - mean: The model's MeanEstimate of the candidate
// - exploration: The model's ExplorationEstimate of the candidate
// - params: Additional parameters needed by specific acquisition functions
//
// Returns:
// - float64: Acquisition value (higher values indicate more promising points)
//
// Built-in acquisition functions:
// - UCB: Upper Confidence Bound (default, the classic NTBEA rule)
// - ProbabilityOfImprovement: Probability of beating the best sampled fitness
// - ExpectedImprovement: Expected margin over the best sampled fitness
// - ThompsonSampling: Random draw scaled by the exploration bonus
//
// Implementation notes for custom acquisition functions:
// - Should handle a zero exploration term
// - Must return higher values for more promising points.
type AcquisitionFunc func(mean, exploration float64, params AcquisitionParams) float64

// AcquisitionParams holds the parameters of the acquisition functions.
type AcquisitionParams struct {
	// KExplore scales the exploration term. For PI, EI and Thompson sampling
	// KExplore*exploration plays the role of the standard deviation.
	KExplore float64

	// Xi is the minimum improvement over BestSoFar sought by PI and EI.
	Xi float64

	// BestSoFar is the best empirical mean fitness sampled so far. It is set
	// by the optimiser every iteration.
	BestSoFar float64

	// RandomState is used by ThompsonSampling. It must not be nil when
	// ThompsonSampling is selected.
	RandomState *rand.Rand
}

// UCB implements the Upper Confidence Bound rule:
//
//	mean + KExplore * exploration
//
// It is the same score as EvaluateScore.
func UCB(mean, exploration float64, params AcquisitionParams) float64 {
	return mean + params.KExplore*exploration
}

// ProbabilityOfImprovement returns the probability that the candidate beats
// BestSoFar by at least Xi, treating KExplore*exploration as the standard
// deviation of a normal belief around mean.
//
// When to use:
// - When small, reliable improvements matter more than large, uncertain ones.
func ProbabilityOfImprovement(mean, exploration float64, params AcquisitionParams) float64 {
	sigma := params.KExplore * exploration
	gain := mean - params.BestSoFar - params.Xi

	if sigma <= 0 {
		if gain > 0 {
			return 1
		}

		return 0
	}

	return normalCDF(gain / sigma)
}

// ExpectedImprovement returns the expected margin by which the candidate
// beats BestSoFar + Xi under the same normal belief as
// ProbabilityOfImprovement.
//
// When to use:
// - When both the probability and the size of an improvement matter.
func ExpectedImprovement(mean, exploration float64, params AcquisitionParams) float64 {
	sigma := params.KExplore * exploration
	gain := mean - params.BestSoFar - params.Xi

	if sigma <= 0 {
		return math.Max(gain, 0)
	}

	z := gain / sigma

	return gain*normalCDF(z) + sigma*normalPDF(z)
}

// ThompsonSampling draws a random score from the normal belief around mean.
//
// Warning:
// - Always set RandomState before using this function.
func ThompsonSampling(mean, exploration float64, params AcquisitionParams) float64 {
	return mean + params.KExplore*exploration*params.RandomState.NormFloat64()
}

// normalCDF is the cumulative distribution function of the standard normal
// distribution.
func normalCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// normalPDF is the density function of the standard normal distribution.
func normalPDF(x float64) float64 {
	return math.Exp(-x*x/2.0) / math.Sqrt(2.0*math.Pi)
}
