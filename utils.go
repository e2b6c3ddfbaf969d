package ntbea

import (
	"encoding/binary"
	"math"

	"golang.org/x/exp/constraints"
)

//////
// Helper functions.
//////

// saturatingMul multiplies two non-negative integers, returning limit instead
// of overflowing.
//
// Parameters:
// - a, b: Non-negative factors
// - limit: Value returned when a*b would exceed it
//
// Returns:
// - T: min(a*b, limit)
//
// Important notes:
// - Used by Size so that large search spaces report a capped size rather than
// wrapping around to a negative number
// - Zero factors short-circuit to zero.
func saturatingMul[T constraints.Integer](a, b, limit T) T {
	if a == 0 || b == 0 {
		return 0
	}

	if a > limit/b {
		return limit
	}

	return a * b
}

// clamp restricts v to the inclusive range [lo, hi].
func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

// pointKey encodes the values of p into a compact string usable as a map key.
//
// Values are written as unsigned varints, so small cardinalities (the usual
// case) cost a single byte per dimension. Points are expected to hold
// non-negative values; negative values are still encoded unambiguously via
// zig-zag encoding.
func pointKey(p []int) string {
	buf := make([]byte, 0, len(p)+1)

	for _, v := range p {
		buf = binary.AppendVarint(buf, int64(v))
	}

	return string(buf)
}

// finiteOr returns v unless it is NaN or infinite, in which case it returns
// fallback.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}

	return v
}
