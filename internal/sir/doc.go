// Package sir implements a discrete-time SIR (Susceptible, Infected, Removed)
// epidemic model integrated with forward Euler at a step of one day.
//
// The engine is a cursor: an Iterator owns the current snapshot, the fixed
// parameters and the day budget, and nothing else. Each call to Next
// advances one day.
//
//	it := sir.FromTotalPop(0.5, 0.1, 1000, 1, 100)
//	for it.Next() {
//	    s := it.Step()
//	    fmt.Println(s.Day, s.Susceptible, s.Infected, s.Removed)
//	}
//	if err := it.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Day zero
//
// The initial condition (day 0) is construction state. It is not part of
// the produced sequence; the first element is day 1. Use Iterator.Initial
// or Trajectory when day 0 is needed in output.
//
// # Conservation
//
// ΔI is derived as -(ΔS + ΔR) rather than from its own ODE term, so the three
// deltas cancel exactly up to rounding and S + I + R stays equal to the total
// population at every step. Each step re-checks that cancellation with
// numeric.CheckSum; a mismatch is reported as an *InvariantError and stops
// the iterator for good.
//
// # Concurrency
//
// An Iterator is not safe for concurrent use. Independent runs share nothing
// and can run in parallel without synchronization.
package sir
