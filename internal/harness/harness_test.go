package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sirsim/internal/scenario"
)

func boundaryCheck(days int, assertions ...Assertion) *Check {
	return &Check{
		Name: "boundary",
		Params: scenario.Params{
			Beta:     0.5,
			Gamma:    0.5,
			TotalPop: scenario.Float(10),
			Infected: 1,
			Days:     scenario.Int(days),
		},
		Assertions: assertions,
	}
}

func TestRun_PassingCheck(t *testing.T) {
	c := boundaryCheck(1,
		Assertion{Type: AssertConserved},
		Assertion{Type: AssertLength, Count: scenario.Int(1)},
		Assertion{Type: AssertAtDay, Day: scenario.Int(1), Expect: &Expected{
			Susceptible: scenario.Float(8.55),
			Infected:    scenario.Float(0.95),
			Removed:     scenario.Float(0.5),
		}},
	)

	result, err := Run(c)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "boundary", result.Name)
	assert.Equal(t, 10.0, result.Params.TotalPop)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, 1, result.Steps[0].Day)
}

func TestRun_IncludeInitial(t *testing.T) {
	c := boundaryCheck(3, Assertion{Type: AssertLength, Count: scenario.Int(4)})
	c.IncludeInitial = true

	result, err := Run(c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Steps, 4)
	assert.Equal(t, 0, result.Steps[0].Day)
	assert.Equal(t, 9.0, result.Steps[0].Susceptible)
}

func TestRun_FailingAssertions(t *testing.T) {
	c := boundaryCheck(5,
		Assertion{Type: AssertLength, Count: scenario.Int(4)},
		Assertion{Type: AssertPeakDay, Day: scenario.Int(3)},
		Assertion{Type: AssertFinal, Expect: &Expected{Infected: scenario.Float(1)}},
		Assertion{Type: AssertMonotonic, Series: SeriesInfected, Direction: "up"},
		Assertion{Type: AssertAtDay, Day: scenario.Int(0), Expect: &Expected{Infected: scenario.Float(1)}},
	)

	result, err := Run(c)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)

	assert.Contains(t, result.Errors[0], "Assertion failed: length")
	assert.Contains(t, result.Errors[0], "5 snapshots")
	assert.Contains(t, result.Errors[1], "peak on day 1")
	assert.Contains(t, result.Errors[2], "infected=")
	assert.Contains(t, result.Errors[3], "Day: 2")
	assert.Contains(t, result.Errors[4], "no such day in days 1..5")

	// The trajectory is reported even when assertions fail.
	assert.Len(t, result.Steps, 5)
}

func TestRun_InvalidParams(t *testing.T) {
	c := boundaryCheck(1, Assertion{Type: AssertConserved})
	c.Params.TotalPop = nil

	_, err := Run(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, scenario.ErrNoPopulation)
}

func TestEvaluateAssertions_Conserved(t *testing.T) {
	result, err := Run(boundaryCheck(50, Assertion{Type: AssertConserved}))
	require.NoError(t, err)
	assert.True(t, result.Pass)

	// A wrong N must be caught.
	errs := EvaluateAssertions(result.Steps, result.Params.TotalPop+1, []Assertion{{Type: AssertConserved}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "conserved")
	assert.Contains(t, errs[0], "Day: 1")

	// An explicit tolerance wide enough to absorb the offset passes.
	errs = EvaluateAssertions(result.Steps, 11, []Assertion{{Type: AssertConserved, Tolerance: scenario.Float(1.5)}})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_EmptyTrajectory(t *testing.T) {
	errs := EvaluateAssertions(nil, 10, []Assertion{
		{Type: AssertConserved},
		{Type: AssertLength, Count: scenario.Int(0)},
		{Type: AssertPeakDay, Day: scenario.Int(1)},
		{Type: AssertFinal, Expect: &Expected{Infected: scenario.Float(0)}},
		{Type: AssertMonotonic, Series: SeriesRemoved, Direction: "up"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "peak_day")
	assert.Contains(t, errs[1], "empty trajectory")
}

func TestEvaluateAssertions_InvalidAssertion(t *testing.T) {
	errs := EvaluateAssertions(nil, 10, []Assertion{{Type: AssertLength}, {Type: "bogus"}})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "count is required")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}

func TestCheckedInChecks(t *testing.T) {
	paths, err := FindChecks("testdata/checks", "")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	h := New(nil)
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			result, err := h.RunFile(path)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRunWithGolden(t *testing.T) {
	c, err := LoadCheck("testdata/checks/boundary.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunFile_Missing(t *testing.T) {
	_, err := New(nil).RunFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
