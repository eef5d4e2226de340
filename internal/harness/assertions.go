package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/sirsim/internal/numeric"
	"github.com/roach88/sirsim/internal/sir"
)

// DefaultRelTolerance applies to value comparisons without an explicit
// tolerance, and to conservation as a fraction of N.
const DefaultRelTolerance = 1e-9

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Day      int    // Offending day, or -1 if not day-specific
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	if e.Day >= 0 {
		fmt.Fprintf(&buf, "  Day: %d\n", e.Day)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)

	return buf.String()
}

// assertConserved checks that S+I+R stays within tolerance of N on every
// snapshot. NaN totals always fail.
func assertConserved(steps []sir.Step, n float64, a Assertion) error {
	tol := DefaultRelTolerance * math.Abs(n)
	if a.Tolerance != nil {
		tol = *a.Tolerance
	}

	for _, s := range steps {
		total := s.Total()
		if !(math.Abs(total-n) <= tol) {
			return &AssertionError{
				Type:     AssertConserved,
				Expected: fmt.Sprintf("S+I+R = %g within %g", n, tol),
				Actual:   fmt.Sprintf("S+I+R = %g (diff %g)", total, total-n),
				Day:      s.Day,
			}
		}
	}
	return nil
}

// assertLength checks the number of snapshots.
func assertLength(steps []sir.Step, a Assertion) error {
	if len(steps) != *a.Count {
		return &AssertionError{
			Type:     AssertLength,
			Expected: fmt.Sprintf("%d snapshots", *a.Count),
			Actual:   fmt.Sprintf("%d snapshots", len(steps)),
			Day:      -1,
		}
	}
	return nil
}

// assertAtDay compares the snapshot for a given day against Expect.
func assertAtDay(steps []sir.Step, a Assertion) error {
	for _, s := range steps {
		if s.Day == *a.Day {
			return compareStep(AssertAtDay, s, a)
		}
	}
	return &AssertionError{
		Type:     AssertAtDay,
		Expected: fmt.Sprintf("snapshot for day %d", *a.Day),
		Actual:   fmt.Sprintf("no such day in %s", dayRange(steps)),
		Day:      *a.Day,
	}
}

// assertFinal compares the last snapshot against Expect.
func assertFinal(steps []sir.Step, a Assertion) error {
	if len(steps) == 0 {
		return &AssertionError{
			Type:     AssertFinal,
			Expected: "at least one snapshot",
			Actual:   "empty trajectory",
			Day:      -1,
		}
	}
	return compareStep(AssertFinal, steps[len(steps)-1], a)
}

// assertPeakDay checks the day infected peaks on. Ties go to the earliest day.
func assertPeakDay(steps []sir.Step, a Assertion) error {
	peak, ok := sir.Peak(steps)
	if !ok {
		return &AssertionError{
			Type:     AssertPeakDay,
			Expected: fmt.Sprintf("peak on day %d", *a.Day),
			Actual:   "empty trajectory",
			Day:      -1,
		}
	}
	if peak.Day != *a.Day {
		return &AssertionError{
			Type:     AssertPeakDay,
			Expected: fmt.Sprintf("peak on day %d", *a.Day),
			Actual:   fmt.Sprintf("peak on day %d (infected %g)", peak.Day, peak.Infected),
			Day:      peak.Day,
		}
	}
	return nil
}

// assertMonotonic checks that a series never moves against Direction.
func assertMonotonic(steps []sir.Step, a Assertion) error {
	value := seriesValue(a.Series)
	for i := 1; i < len(steps); i++ {
		prev, curr := value(steps[i-1]), value(steps[i])
		bad := (a.Direction == "up" && curr < prev) || (a.Direction == "down" && curr > prev)
		if bad {
			return &AssertionError{
				Type:     AssertMonotonic,
				Expected: fmt.Sprintf("%s %s", a.Series, directionWord(a.Direction)),
				Actual:   fmt.Sprintf("%g -> %g", prev, curr),
				Day:      steps[i].Day,
			}
		}
	}
	return nil
}

func compareStep(kind string, s sir.Step, a Assertion) error {
	var mismatches []string
	check := func(field string, want *float64, got float64) {
		if want == nil {
			return
		}
		if !within(got, *want, a.Tolerance) {
			mismatches = append(mismatches, fmt.Sprintf("%s=%g (want %g)", field, got, *want))
		}
	}
	check("susceptible", a.Expect.Susceptible, s.Susceptible)
	check("infected", a.Expect.Infected, s.Infected)
	check("removed", a.Expect.Removed, s.Removed)

	if len(mismatches) == 0 {
		return nil
	}
	expected := "values within relative tolerance " + fmt.Sprint(DefaultRelTolerance)
	if a.Tolerance != nil {
		expected = fmt.Sprintf("values within %g", *a.Tolerance)
	}
	return &AssertionError{
		Type:     kind,
		Expected: expected,
		Actual:   strings.Join(mismatches, ", "),
		Day:      s.Day,
	}
}

func within(got, want float64, tol *float64) bool {
	if tol != nil {
		return math.Abs(got-want) <= *tol
	}
	return numeric.WithinRel(got, want, DefaultRelTolerance)
}

func seriesValue(series string) func(sir.Step) float64 {
	switch series {
	case SeriesSusceptible:
		return func(s sir.Step) float64 { return s.Susceptible }
	case SeriesInfected:
		return func(s sir.Step) float64 { return s.Infected }
	case SeriesRemoved:
		return func(s sir.Step) float64 { return s.Removed }
	default:
		return sir.Step.TotalCases
	}
}

func directionWord(dir string) string {
	if dir == "up" {
		return "non-decreasing"
	}
	return "non-increasing"
}

func dayRange(steps []sir.Step) string {
	if len(steps) == 0 {
		return "empty trajectory"
	}
	return fmt.Sprintf("days %d..%d", steps[0].Day, steps[len(steps)-1].Day)
}

// EvaluateAssertions evaluates all assertions against the trajectory.
// n is the run's total population. Returns a message per failed assertion.
func EvaluateAssertions(steps []sir.Step, n float64, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			errors = append(errors, err.Error())
			continue
		}

		var err error
		switch assertion.Type {
		case AssertConserved:
			err = assertConserved(steps, n, assertion)
		case AssertLength:
			err = assertLength(steps, assertion)
		case AssertAtDay:
			err = assertAtDay(steps, assertion)
		case AssertPeakDay:
			err = assertPeakDay(steps, assertion)
		case AssertFinal:
			err = assertFinal(steps, assertion)
		case AssertMonotonic:
			err = assertMonotonic(steps, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
