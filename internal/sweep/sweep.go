// Package sweep runs many scenarios concurrently.
//
// Each scenario drives its own iterator; nothing is shared between runs, so
// the outcome of a scenario is the same whether it runs alone or in a sweep.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/sirsim/internal/scenario"
	"github.com/roach88/sirsim/internal/sir"
)

// Options configure a sweep.
type Options struct {
	// Workers caps concurrent runs. Zero or negative means runtime.NumCPU().
	Workers int

	// Each, if set, is called from the worker goroutine as soon as a run
	// finishes. It must be safe for concurrent use. An error aborts the sweep.
	Each func(ctx context.Context, o Outcome) error

	Logger *slog.Logger
}

// Outcome is the result of one scenario.
type Outcome struct {
	Scenario scenario.Scenario
	Params   sir.Params // resolved, with N derived when S0 was given
	Initial  sir.Step   // day 0
	Steps    []sir.Step // day 1..days
	Peak     sir.Step   // zero if Steps is empty
	Final    sir.Step   // last step, or the initial state if Steps is empty
}

// Run executes every scenario and returns outcomes in input order.
//
// The context is checked before each run starts; a run in progress is not
// interrupted. The first error stops new runs and is returned.
func Run(ctx context.Context, scenarios []scenario.Scenario, opts Options) ([]Outcome, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	outcomes := make([]Outcome, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, sc := range scenarios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			o, err := runOne(sc)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			logger.Debug("scenario complete", "scenario", sc.Name, "days", len(o.Steps), "peak_day", o.Peak.Day)

			if opts.Each != nil {
				if err := opts.Each(ctx, o); err != nil {
					return fmt.Errorf("scenario %s: %w", sc.Name, err)
				}
			}
			outcomes[i] = o
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func runOne(sc scenario.Scenario) (Outcome, error) {
	it, err := sc.Iterator()
	if err != nil {
		return Outcome{}, err
	}
	steps, err := sir.Collect(it)
	if err != nil {
		return Outcome{}, err
	}

	o := Outcome{
		Scenario: sc,
		Params:   it.Params(),
		Initial:  it.Initial(),
		Steps:    steps,
		Final:    it.Initial(),
	}
	if peak, ok := sir.Peak(steps); ok {
		o.Peak = peak
		o.Final = steps[len(steps)-1]
	}
	return o, nil
}
