package sir

import "iter"

// Iterator produces the daily snapshots of one run, lazily and exactly once.
//
// It retains only the current snapshot, the parameters and the day budget.
// Once Next returns false it keeps returning false; an Iterator cannot be
// rewound. Construct a new one to replay a run.
type Iterator struct {
	params  Params
	initial Step
	current Step
	days    int
	err     error
	done    bool

	// deltas is swapped in tests to exercise the invariant check.
	deltas func(Params, Step) Deltas
}

// New returns an Iterator starting from initial (expected to be day 0)
// and producing days snapshots. days <= 0 produces nothing.
func New(p Params, initial Step, days int) *Iterator {
	return &Iterator{
		params:  p,
		initial: initial,
		current: initial,
		days:    days,
		deltas:  ComputeDeltas,
	}
}

// FromTotalPop starts a run where the total population is known:
// S₀ = totalPop - infected, R₀ = 0.
func FromTotalPop(beta, gamma, totalPop, infected float64, days int) *Iterator {
	return New(
		Params{Beta: beta, Gamma: gamma, TotalPop: totalPop},
		Step{Day: 0, Susceptible: totalPop - infected, Infected: infected, Removed: 0},
		days,
	)
}

// FromSusceptible starts a run where the initial susceptible count is known:
// N = susceptible + infected, R₀ = 0.
func FromSusceptible(beta, gamma, susceptible, infected float64, days int) *Iterator {
	return New(
		Params{Beta: beta, Gamma: gamma, TotalPop: susceptible + infected},
		Step{Day: 0, Susceptible: susceptible, Infected: infected, Removed: 0},
		days,
	)
}

// Next advances one day. It returns false when the day budget is spent or
// after a failed step; check Err to tell the two apart.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if it.current.Day >= it.days {
		it.done = true
		return false
	}

	next, err := advanceWith(it.deltas, it.params, it.current)
	if err != nil {
		it.err = err
		it.done = true
		return false
	}
	it.current = next
	return true
}

// Step returns the snapshot produced by the last successful Next.
// Before the first Next it returns the initial condition.
func (it *Iterator) Step() Step {
	return it.current
}

// Err returns the invariant violation that stopped the iterator, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Params returns the run's fixed parameters.
func (it *Iterator) Params() Params {
	return it.params
}

// Initial returns the day 0 snapshot the run was constructed with.
func (it *Iterator) Initial() Step {
	return it.initial
}

// Days returns the day budget given at construction.
func (it *Iterator) Days() int {
	return it.days
}

// Remaining returns how many snapshots are still to be produced.
func (it *Iterator) Remaining() int {
	if it.done {
		return 0
	}
	return max(it.days-it.current.Day, 0)
}

// All returns a single-use sequence over the remaining snapshots. It drains
// the same cursor as Next, so ranging twice yields nothing the second time.
// Err must be checked after the loop.
func (it *Iterator) All() iter.Seq[Step] {
	return func(yield func(Step) bool) {
		for it.Next() {
			if !yield(it.current) {
				return
			}
		}
	}
}

// Collect drains it into a slice. The result is never nil.
func Collect(it *Iterator) ([]Step, error) {
	steps := make([]Step, 0, it.Remaining())
	for it.Next() {
		steps = append(steps, it.Step())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

// Trajectory is like Collect but prepends the day 0 snapshot.
func Trajectory(it *Iterator) ([]Step, error) {
	steps, err := Collect(it)
	if err != nil {
		return nil, err
	}
	return append([]Step{it.Initial()}, steps...), nil
}
