// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sirsim/internal/sir"
	"github.com/roach88/sirsim/internal/store"
)

// Collect drains it and fails the test on an engine error.
func Collect(t testing.TB, it *sir.Iterator) []sir.Step {
	t.Helper()
	steps, err := sir.Collect(it)
	require.NoError(t, err)
	return steps
}

// AssertConserved fails unless every step sums to n within tol.
func AssertConserved(t testing.TB, steps []sir.Step, n, tol float64) {
	t.Helper()
	for _, s := range steps {
		diff := math.Abs(s.Total() - n)
		require.LessOrEqualf(t, diff, tol, "day %d: S+I+R = %v, want %v", s.Day, s.Total(), n)
	}
}

// AssertConsecutiveDays fails unless steps are numbered first, first+1, ...
func AssertConsecutiveDays(t testing.TB, steps []sir.Step, first int) {
	t.Helper()
	for i, s := range steps {
		require.Equalf(t, first+i, s.Day, "steps[%d]", i)
	}
}

// TempStore opens a fresh run store in t's temp dir and closes it on cleanup.
func TempStore(t testing.TB) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, path
}
