package sir

import (
	"errors"
	"fmt"
)

// ErrInvariant indicates the per-step deltas failed to cancel. It always
// points at a defect in the update arithmetic, never at bad input.
var ErrInvariant = errors.New("sir: delta sum invariant violated")

// InvariantError wraps a failed consistency check with the state that
// produced it.
type InvariantError struct {
	// Day is the day of the snapshot being advanced (the step that failed
	// would have produced Day+1).
	Day    int
	Deltas Deltas
	Cause  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v at day %d (dS=%g dI=%g dR=%g): %v",
		ErrInvariant, e.Day, e.Deltas.S, e.Deltas.I, e.Deltas.R, e.Cause)
}

// Unwrap exposes both the sentinel and the underlying tolerance error.
func (e *InvariantError) Unwrap() []error {
	return []error{ErrInvariant, e.Cause}
}

// IsInvariantError reports whether err is, or wraps, an invariant violation.
func IsInvariantError(err error) bool {
	return errors.Is(err, ErrInvariant)
}
