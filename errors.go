package ntbea

import "errors"

var (
	// ErrPlayerCountMismatch is returned when a joint evaluation produces a
	// different number of fitness values than there are agents. It is a
	// configuration error; the run is aborted.
	ErrPlayerCountMismatch = errors.New("joint evaluation result length does not match player count")

	// ErrInvalidSeed is returned when a seed point does not fit the search space.
	ErrInvalidSeed = errors.New("seed point is outside the search space")

	// ErrInvalidTuple is returned when tuple indices are empty, duplicated or out
	// of range.
	ErrInvalidTuple = errors.New("invalid n-tuple dimensions")

	// ErrSpaceTooLarge is returned by exhaustive operations on spaces above the
	// requested limit.
	ErrSpaceTooLarge = errors.New("search space too large for exhaustive enumeration")

	// ErrNoEvaluations is returned when a run finishes without a single sampled point.
	ErrNoEvaluations = errors.New("no points were evaluated")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)
