// Package scenario defines named parameter sets for SIR runs and loads
// them from CUE files.
//
// A scenario directory holds one or more .cue files contributing to a
// top-level scenario struct:
//
//	scenario: baseline: {
//	    description: "R0 = 5"
//	    beta:      0.5
//	    gamma:     0.1
//	    total_pop: 1000
//	    infected:  1
//	    days:      160
//	}
//
//	scenario: known_susceptible: {
//	    beta:        0.3
//	    gamma:       0.1
//	    susceptible: 999
//	    infected:    1
//	}
//
// Exactly one of total_pop and susceptible is required. days defaults to
// DefaultDays.
package scenario

import (
	"errors"
	"fmt"

	"github.com/roach88/sirsim/internal/sir"
)

// DefaultDays is the day budget when none is given.
const DefaultDays = 100

// Params describe one run's inputs. It is shared by CUE scenarios and YAML
// check files.
type Params struct {
	Beta  float64 `yaml:"beta" json:"beta"`
	Gamma float64 `yaml:"gamma" json:"gamma"`

	// Exactly one of TotalPop and Susceptible must be set.
	TotalPop    *float64 `yaml:"total_pop,omitempty" json:"total_pop,omitempty"`
	Susceptible *float64 `yaml:"susceptible,omitempty" json:"susceptible,omitempty"`

	Infected float64 `yaml:"infected" json:"infected"`

	// Days is the day budget; nil means DefaultDays.
	Days *int `yaml:"days,omitempty" json:"days,omitempty"`
}

// Scenario is a named parameter set.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Params
}

// Validation errors shared with the CLI's flag checks.
var (
	ErrNoPopulation       = errors.New("one of total_pop or susceptible is required")
	ErrConflictingInitial = errors.New("total_pop and susceptible are mutually exclusive")
)

// Validate checks the initial-condition choice. Rates and counts are not
// range-checked: the engine accepts any real input.
func (p Params) Validate() error {
	switch {
	case p.TotalPop == nil && p.Susceptible == nil:
		return ErrNoPopulation
	case p.TotalPop != nil && p.Susceptible != nil:
		return ErrConflictingInitial
	}
	return nil
}

// DayCount returns Days or DefaultDays.
func (p Params) DayCount() int {
	if p.Days == nil {
		return DefaultDays
	}
	return *p.Days
}

// Iterator builds the engine for p using the constructor that matches the
// supplied initial condition.
func (p Params) Iterator() (*sir.Iterator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.TotalPop != nil {
		return sir.FromTotalPop(p.Beta, p.Gamma, *p.TotalPop, p.Infected, p.DayCount()), nil
	}
	return sir.FromSusceptible(p.Beta, p.Gamma, *p.Susceptible, p.Infected, p.DayCount()), nil
}

// String renders a compact summary for logs and text output.
func (s Scenario) String() string {
	pop := "?"
	switch {
	case s.TotalPop != nil:
		pop = fmt.Sprintf("N=%g", *s.TotalPop)
	case s.Susceptible != nil:
		pop = fmt.Sprintf("S0=%g", *s.Susceptible)
	}
	return fmt.Sprintf("%s (beta=%g gamma=%g %s I0=%g days=%d)",
		s.Name, s.Beta, s.Gamma, pop, s.Infected, s.DayCount())
}

// Float returns a pointer to v, for building Params literals.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building Params literals.
func Int(v int) *int { return &v }
