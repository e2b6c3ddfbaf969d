package benchmark

import "errors"

var (
	// ErrUnknownFunction is returned for a function name that is not built in.
	ErrUnknownFunction = errors.New("unknown benchmark function")

	// ErrUnknownModel is returned for an unsupported ModelType.
	ErrUnknownModel = errors.New("unknown model type")

	// ErrInvalidExperiment is returned by Experiment.Validate.
	ErrInvalidExperiment = errors.New("invalid experiment")

	// ErrOutsideSpace is returned when an evaluator receives a point outside
	// its search space.
	ErrOutsideSpace = errors.New("point outside the function search space")

	// ErrInvalidPercentile is returned for a percentile outside [0, 1].
	ErrInvalidPercentile = errors.New("percentile must be between 0.0 and 1.0")

	// ErrNoDetail is returned when percentiles are requested for a key
	// without detailed values.
	ErrNoDetail = errors.New("no detailed values recorded")
)
