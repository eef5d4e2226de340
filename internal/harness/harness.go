package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/sirsim/internal/sir"
)

// Harness executes checks. The zero value is not usable; use New.
type Harness struct {
	logger *slog.Logger
}

// New returns a harness logging to logger. A nil logger discards output.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{logger: logger}
}

// Run executes a check with a discarding logger.
func Run(c *Check) (*Result, error) {
	return New(nil).Run(c)
}

// Run executes a check and returns the result.
//
// Execution flow:
// 1. Build the iterator from the check's params
// 2. Collect the trajectory, with day 0 when include_initial is set
// 3. Evaluate assertions and return pass/fail with the trajectory
//
// An engine failure, such as an invariant violation, is returned as an
// error rather than as a failed assertion.
func (h *Harness) Run(c *Check) (*Result, error) {
	it, err := c.Params.Iterator()
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", c.Name, err)
	}

	var steps []sir.Step
	if c.IncludeInitial {
		steps, err = sir.Trajectory(it)
	} else {
		steps, err = sir.Collect(it)
	}
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", c.Name, err)
	}

	result := NewResult(c.Name)
	result.Params = it.Params()
	result.Steps = steps

	for _, msg := range EvaluateAssertions(steps, it.Params().TotalPop, c.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("check evaluated",
		"check", c.Name,
		"snapshots", len(steps),
		"assertions", len(c.Assertions),
		"pass", result.Pass,
	)
	return result, nil
}

// RunFile loads and executes the check at path.
func (h *Harness) RunFile(path string) (*Result, error) {
	c, err := LoadCheck(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h.Run(c)
}
