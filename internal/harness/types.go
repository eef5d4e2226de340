package harness

import "github.com/roach88/sirsim/internal/sir"

// Result is the outcome of a check execution.
type Result struct {
	// Name is the check's name.
	Name string `json:"name"`

	// Pass indicates overall success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// Params are the resolved model parameters of the run.
	Params sir.Params `json:"params"`

	// Steps is the trajectory the assertions were evaluated on.
	// It starts at day 0 when the check sets include_initial.
	Steps []sir.Step `json:"steps"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for check execution.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Steps:  []sir.Step{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
