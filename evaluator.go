package ntbea

import "sync/atomic"

//////
// Const, vars, types.
//////

// Evaluator is the part of the fitness contract shared by single and
// multi-agent evaluators.
type Evaluator interface {
	// Reset clears the evaluation counter. Call it before a run begins.
	Reset()

	// SearchSpace returns the space candidate points must lie in.
	SearchSpace() SearchSpace

	// NEvals returns the number of evaluations made since the last Reset.
	NEvals() int
}

// SolutionEvaluator evaluates one point at a time. Evaluation may be noisy and
// expensive; an error aborts the run that requested it.
type SolutionEvaluator interface {
	Evaluator

	// Evaluate returns the fitness of p (higher is better).
	Evaluate(p Point) (float64, error)
}

// MultiSolutionEvaluator evaluates one joint configuration of several agents
// and returns one fitness value per agent, in the order of the points given.
type MultiSolutionEvaluator interface {
	Evaluator

	// EvaluateJoint returns len(points) fitness values.
	EvaluateJoint(points []Point) ([]float64, error)
}

// FitnessFunc is a plain single-agent fitness function.
//
// Usage example:
//
//	eval := NewFuncEvaluator(NewSpace(2, 2, 2), func(p Point) (float64, error) {
//	    return float64(p[0] + 2*p[1] + 4*p[2]), nil
//	})
type FitnessFunc func(p Point) (float64, error)

// JointFitnessFunc is a plain multi-agent fitness function.
type JointFitnessFunc func(points []Point) ([]float64, error)

// FuncEvaluator adapts a FitnessFunc to SolutionEvaluator and counts calls.
type FuncEvaluator struct {
	space  SearchSpace
	f      FitnessFunc
	nEvals atomic.Int64
}

// JointFuncEvaluator adapts a JointFitnessFunc to MultiSolutionEvaluator and
// counts calls.
type JointFuncEvaluator struct {
	space  SearchSpace
	f      JointFitnessFunc
	nEvals atomic.Int64
}

//////
// Factory.
//////

// NewFuncEvaluator returns a counting evaluator over space backed by f.
func NewFuncEvaluator(space SearchSpace, f FitnessFunc) *FuncEvaluator {
	return &FuncEvaluator{space: space, f: f}
}

// NewJointFuncEvaluator returns a counting joint evaluator over space backed
// by f.
func NewJointFuncEvaluator(space SearchSpace, f JointFitnessFunc) *JointFuncEvaluator {
	return &JointFuncEvaluator{space: space, f: f}
}

//////
// Methods.
//////

// Reset implements Evaluator.
func (e *FuncEvaluator) Reset() { e.nEvals.Store(0) }

// SearchSpace implements Evaluator.
func (e *FuncEvaluator) SearchSpace() SearchSpace { return e.space }

// NEvals implements Evaluator.
func (e *FuncEvaluator) NEvals() int { return int(e.nEvals.Load()) }

// Evaluate implements SolutionEvaluator.
func (e *FuncEvaluator) Evaluate(p Point) (float64, error) {
	e.nEvals.Add(1)

	return e.f(p)
}

// Reset implements Evaluator.
func (e *JointFuncEvaluator) Reset() { e.nEvals.Store(0) }

// SearchSpace implements Evaluator.
func (e *JointFuncEvaluator) SearchSpace() SearchSpace { return e.space }

// NEvals implements Evaluator. One joint call counts as one evaluation.
func (e *JointFuncEvaluator) NEvals() int { return int(e.nEvals.Load()) }

// EvaluateJoint implements MultiSolutionEvaluator.
func (e *JointFuncEvaluator) EvaluateJoint(points []Point) ([]float64, error) {
	e.nEvals.Add(1)

	return e.f(points)
}
