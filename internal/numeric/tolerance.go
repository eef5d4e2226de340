// Package numeric provides floating-point helpers shared by the simulation
// engine and its tests.
package numeric

import (
	"fmt"
	"math"
)

// Epsilon is the float64 machine epsilon (2^-52).
const Epsilon = 0x1p-52

// ToleranceError reports a sum that drifted from its target by more than
// the epsilon-scaled tolerance allows.
type ToleranceError struct {
	Values []float64
	Sum    float64
	Max    float64 // largest magnitude among Values
	Target float64
	Diff   float64
}

func (e *ToleranceError) Error() string {
	return fmt.Sprintf("sum out of tolerance: nums=%v sum=%g max=%g compare=%g diff=%g",
		e.Values, e.Sum, e.Max, e.Target, e.Diff)
}

// CheckSum verifies that vals sum to target within max(|vals|) * Epsilon.
//
// The tolerance scales with the largest magnitude in vals, so it is a
// rounding check, not a modelling tolerance. An empty slice always passes.
func CheckSum(vals []float64, target float64) error {
	if len(vals) == 0 {
		return nil
	}

	var sum, max float64
	for _, v := range vals {
		sum += v
		if a := math.Abs(v); a > max {
			max = a
		}
	}

	diff := math.Abs(sum - target)
	if diff <= max*Epsilon {
		return nil
	}

	// Copy so the error does not alias caller memory.
	cp := make([]float64, len(vals))
	copy(cp, vals)
	return &ToleranceError{
		Values: cp,
		Sum:    sum,
		Max:    max,
		Target: target,
		Diff:   diff,
	}
}

// MustSum is like CheckSum but panics with the *ToleranceError.
// Use only where a mismatch can only mean a programming defect.
func MustSum(vals []float64, target float64) {
	if err := CheckSum(vals, target); err != nil {
		panic(err)
	}
}

// WithinRel reports whether a and b agree within rel * max(|a|, |b|, 1).
// Used by assertions that compare trajectories against expected values.
func WithinRel(a, b, rel float64) bool {
	scale := math.Max(math.Max(math.Abs(a), math.Abs(b)), 1)
	return math.Abs(a-b) <= rel*scale
}
