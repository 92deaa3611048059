// Package numeric holds small generic numeric helpers shared across the
// search engines and their variation operators.
package numeric

import "golang.org/x/exp/constraints"

// Clamp restricts v to the closed range [lo, hi], matching the bounded
// real vectors the variation operators work on (the [0, 1-ε] gene domain
// is just Clamp(v, 0, 1-ε)).
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
