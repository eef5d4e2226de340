package scenario

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a scenario field that is missing or has the wrong type.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile parses a CUE value into a Scenario. The name comes from the last
// path selector, so v should be the scenario struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`scenario: flu: { beta: 0.5, gamma: 0.1, total_pop: 100, infected: 1 }`)
//	sc, err := Compile(v.LookupPath(cue.ParsePath("scenario.flu")))
func Compile(v cue.Value) (*Scenario, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	sc := &Scenario{}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		sc.Name = labels[len(labels)-1].String()
	}
	if sc.Name == "" {
		return nil, &CompileError{Field: "name", Message: "scenario must be a named struct", Pos: v.Pos()}
	}

	var err error
	if sc.Beta, err = requiredFloat(v, "beta"); err != nil {
		return nil, err
	}
	if sc.Gamma, err = requiredFloat(v, "gamma"); err != nil {
		return nil, err
	}
	if sc.Infected, err = requiredFloat(v, "infected"); err != nil {
		return nil, err
	}
	if sc.TotalPop, err = optionalFloat(v, "total_pop"); err != nil {
		return nil, err
	}
	if sc.Susceptible, err = optionalFloat(v, "susceptible"); err != nil {
		return nil, err
	}

	if daysVal := v.LookupPath(cue.ParsePath("days")); daysVal.Exists() {
		days, err := daysVal.Int64()
		if err != nil {
			return nil, &CompileError{Field: "days", Message: "days must be an integer", Pos: daysVal.Pos()}
		}
		sc.Days = Int(int(days))
	}

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		sc.Description = desc
	}

	if err := sc.Validate(); err != nil {
		return nil, &CompileError{Field: "initial", Message: err.Error(), Pos: v.Pos()}
	}

	return sc, nil
}

func requiredFloat(v cue.Value, field string) (float64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	f, err := fv.Float64()
	if err != nil {
		return 0, &CompileError{Field: field, Message: field + " must be a number", Pos: fv.Pos()}
	}
	return f, nil
}

func optionalFloat(v cue.Value, field string) (*float64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	f, err := fv.Float64()
	if err != nil {
		return nil, &CompileError{Field: field, Message: field + " must be a number", Pos: fv.Pos()}
	}
	return &f, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
