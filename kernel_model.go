package ntbea

import (
	"math"
	"sync"
)

//////
// Const, vars, types.
//////

// KernelModel is a landscape model that smooths the empirical means of
// sampled points with a Radial Basis Function kernel over value indices.
// It ignores tuple structure and generalises by distance instead, which suits
// parameters whose value indices are ordered (e.g. discretised ranges).
//
// Mean estimate:
//   - The kernel-weighted average of sampled points' empirical means, each
//     weighted by k(x, x_i) * n_i; 0 before the first observation.
//
// Exploration estimate:
//   - sqrt(ln(1 + N) / (epsilon + sum_i k(x, x_i) * n_i)), where N is the total
//     number of observations and n_i the number of observations of x_i. A
//     point far from every sample gets close to the largest bonus, and the
//     bonus of a point shrinks every time it (or a close neighbour) is sampled.
//
// Thread safety:
//   - All fields are protected by an RWMutex; concurrent estimates are safe.
type KernelModel struct {
	// mu protects access to all fields
	mu sync.RWMutex

	space   SearchSpace
	sampled *sampledPoints
	total   int
	epsilon float64

	// sigma is the kernel width in value-index units.
	// Larger values = smoother interpolation
	// Smaller values = more local influence
	sigma float64
}

//////
// Factory.
//////

// NewKernelModel creates a kernel model for space with sigma = 1.0.
//
// Best practices:
// - Create a new instance for each optimisation task
// - Widen sigma when cardinalities are large.
func NewKernelModel(space SearchSpace) *KernelModel {
	return &KernelModel{
		space:   space,
		sampled: newSampledPoints(),
		epsilon: DefaultEpsilon,
		sigma:   1.0, // Default kernel width
	}
}

//////
// Methods.
//////

// rbfKernel measures the similarity of two points (1.0 for identical points,
// close to 0.0 for distant ones):
//
//	k(x1, x2) = exp(-sum((x1 - x2)^2) / (2 * sigma^2))
//
// Important notes:
// - Panics if the points have different lengths
// - Callers must hold at least the read lock.
func (km *KernelModel) rbfKernel(x1, x2 Point) float64 {
	if len(x1) != len(x2) {
		panic("input points must have the same length")
	}

	var sum float64

	for i := range x1 {
		diff := float64(x1[i] - x2[i])
		sum += diff * diff
	}

	return math.Exp(-sum / (2 * km.sigma * km.sigma))
}

// predict returns the weighted mean and the total kernel weight at x.
func (km *KernelModel) predict(x Point) (mean, weight float64) {
	var sum float64

	for _, key := range km.sampled.order {
		e := km.sampled.stats[key]
		w := km.rbfKernel(x, e.pattern) * float64(e.ss.N())
		sum += w * e.ss.Mean()
		weight += w
	}

	if weight == 0 {
		return 0, 0
	}

	return sum / weight, weight
}

// SearchSpace implements BanditLandscapeModel.
func (km *KernelModel) SearchSpace() SearchSpace { return km.space }

// Reset implements BanditLandscapeModel.
func (km *KernelModel) Reset() {
	km.mu.Lock()
	defer km.mu.Unlock()

	km.sampled = newSampledPoints()
	km.total = 0
}

// SetEpsilon implements BanditLandscapeModel.
func (km *KernelModel) SetEpsilon(epsilon float64) {
	km.mu.Lock()
	defer km.mu.Unlock()

	if epsilon <= 0 || math.IsNaN(epsilon) {
		epsilon = DefaultEpsilon
	}

	km.epsilon = epsilon
}

// SetSigma updates the kernel width. Non-positive values are ignored.
func (km *KernelModel) SetSigma(sigma float64) {
	km.mu.Lock()
	defer km.mu.Unlock()

	if sigma > 0 {
		km.sigma = sigma
	}
}

// Sigma returns the kernel width.
func (km *KernelModel) Sigma() float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()

	return km.sigma
}

// AddPoint implements BanditLandscapeModel.
func (km *KernelModel) AddPoint(p Point, value float64) {
	km.mu.Lock()
	defer km.mu.Unlock()

	km.sampled.add(p, value)
	km.total++
}

// MeanEstimate implements BanditLandscapeModel.
func (km *KernelModel) MeanEstimate(p Point) float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()

	mean, _ := km.predict(p)

	return mean
}

// ExplorationEstimate implements BanditLandscapeModel.
func (km *KernelModel) ExplorationEstimate(p Point) float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()

	_, weight := km.predict(p)

	return math.Sqrt(math.Log(1+float64(km.total)) / (km.epsilon + weight))
}

// BestOfSampled implements BanditLandscapeModel.
func (km *KernelModel) BestOfSampled() (Point, float64, bool) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	return km.sampled.best()
}

// NSampledPoints implements BanditLandscapeModel.
func (km *KernelModel) NSampledPoints() int {
	km.mu.RLock()
	defer km.mu.RUnlock()

	return len(km.sampled.order)
}
