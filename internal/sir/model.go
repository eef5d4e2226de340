package sir

import (
	"math"

	"github.com/roach88/sirsim/internal/numeric"
)

// Params are the fixed model parameters of one run.
//
// None of them are validated here. A non-positive TotalPop divides by zero
// and yields non-finite compartments; rejecting such input is the caller's
// job.
type Params struct {
	Beta     float64 `json:"beta"`      // rate of infection
	Gamma    float64 `json:"gamma"`     // rate of recovery/removal
	TotalPop float64 `json:"total_pop"` // N, denominator of the force of infection
}

// Step is the compartment state at the end of a day.
type Step struct {
	Day         int     `json:"day"`
	Susceptible float64 `json:"susceptible"`
	Infected    float64 `json:"infected"`
	Removed     float64 `json:"removed"`
}

// Total returns S + I + R.
func (s Step) Total() float64 {
	return s.Susceptible + s.Infected + s.Removed
}

// TotalCases returns I + R, everyone who has ever been infected.
func (s Step) TotalCases() float64 {
	return s.Infected + s.Removed
}

// Deltas are the per-day changes of each compartment.
type Deltas struct {
	S float64
	I float64
	R float64
}

// ComputeDeltas evaluates the Euler update for one day:
//
//	ΔS = -(β·S·I) / N
//	ΔR = γ·I
//	ΔI = -ΔS - ΔR
//
// The explicit float64 conversions forbid fused multiply-add, keeping
// results bit-identical across architectures.
func ComputeDeltas(p Params, s Step) Deltas {
	dS := -(float64(p.Beta*s.Susceptible*s.Infected) / p.TotalPop)
	dR := float64(p.Gamma * s.Infected)
	dI := float64(-dS) - dR
	return Deltas{S: dS, I: dI, R: dR}
}

// Advance produces the snapshot for the day after s.
// It returns an *InvariantError, and no snapshot, if the deltas do not
// cancel within tolerance.
func Advance(p Params, s Step) (Step, error) {
	return advanceWith(ComputeDeltas, p, s)
}

func advanceWith(deltas func(Params, Step) Deltas, p Params, s Step) (Step, error) {
	d := deltas(p, s)

	// Order matters: the check sums ΔS, ΔR, ΔI left to right.
	// Non-finite deltas only come from degenerate parameters and
	// cannot be checked meaningfully.
	if finite(d.S, d.R, d.I) {
		if err := numeric.CheckSum([]float64{d.S, d.R, d.I}, 0); err != nil {
			return Step{}, &InvariantError{Day: s.Day, Deltas: d, Cause: err}
		}
	}

	return Step{
		Day:         s.Day + 1,
		Susceptible: s.Susceptible + d.S,
		Infected:    s.Infected + d.I,
		Removed:     s.Removed + d.R,
	}, nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Peak returns the snapshot with the most infected. Ties keep the earliest
// day. The bool is false for an empty slice.
func Peak(steps []Step) (Step, bool) {
	if len(steps) == 0 {
		return Step{}, false
	}
	best := steps[0]
	for _, s := range steps[1:] {
		if s.Infected > best.Infected {
			best = s
		}
	}
	return best, true
}
