package benchmark

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/thalesfsp/ntbea"
)

// FunctionEvaluator evaluates a Function on a FunctionSpace.
//
// By default each evaluation is a Bernoulli trial that returns 1 with
// probability Value(x) and 0 otherwise, so the optimiser only sees noisy
// binary outcomes. Deterministic returns Value(x) itself.
type FunctionEvaluator struct {
	// Deterministic disables the Bernoulli noise.
	Deterministic bool

	f      Function
	space  *FunctionSpace
	mu     sync.Mutex
	rng    *rand.Rand
	nEvals atomic.Int64
}

// NewFunctionEvaluator returns an evaluator of f over space. rng drives the
// noise and is guarded internally.
func NewFunctionEvaluator(f Function, space *FunctionSpace, rng *rand.Rand) *FunctionEvaluator {
	return &FunctionEvaluator{f: f, space: space, rng: rng}
}

// Function returns the evaluated function.
func (e *FunctionEvaluator) Function() Function { return e.f }

// Reset implements ntbea.Evaluator.
func (e *FunctionEvaluator) Reset() { e.nEvals.Store(0) }

// SearchSpace implements ntbea.Evaluator.
func (e *FunctionEvaluator) SearchSpace() ntbea.SearchSpace { return e.space }

// NEvals implements ntbea.Evaluator.
func (e *FunctionEvaluator) NEvals() int { return int(e.nEvals.Load()) }

// Evaluate implements ntbea.SolutionEvaluator.
func (e *FunctionEvaluator) Evaluate(p ntbea.Point) (float64, error) {
	if !ntbea.Contains(e.space, p) {
		return 0, fmt.Errorf("%w: %v", ErrOutsideSpace, p)
	}

	e.nEvals.Add(1)

	return e.sample(e.f.Value(e.space.ValueAt(p))), nil
}

func (e *FunctionEvaluator) sample(v float64) float64 {
	if e.Deterministic {
		return v
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rng.Float64() < v {
		return 1
	}

	return 0
}

// JointFunctionEvaluator evaluates several agents' points on the same
// function in one call, each independently. It counts one evaluation per
// joint call.
type JointFunctionEvaluator struct {
	*FunctionEvaluator
}

// NewJointFunctionEvaluator returns a joint evaluator of f over space.
func NewJointFunctionEvaluator(f Function, space *FunctionSpace, rng *rand.Rand) *JointFunctionEvaluator {
	return &JointFunctionEvaluator{FunctionEvaluator: NewFunctionEvaluator(f, space, rng)}
}

// EvaluateJoint implements ntbea.MultiSolutionEvaluator.
func (e *JointFunctionEvaluator) EvaluateJoint(points []ntbea.Point) ([]float64, error) {
	out := make([]float64, len(points))

	for i, p := range points {
		if !ntbea.Contains(e.space, p) {
			return nil, fmt.Errorf("agent %d: %w: %v", i, ErrOutsideSpace, p)
		}

		out[i] = e.sample(e.f.Value(e.space.ValueAt(p)))
	}

	e.nEvals.Add(1)

	return out, nil
}
