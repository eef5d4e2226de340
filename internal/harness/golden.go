package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sirsim/internal/export"
	"github.com/roach88/sirsim/internal/sir"
)

// RunWithGolden executes a check and compares its CSV rendering against a
// golden file stored in testdata/golden/{check.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
//
// Returns the result so callers can inspect assertion failures too, or an
// error if the check could not execute. A mismatch with the golden file
// fails t via goldie.
func RunWithGolden(t *testing.T, c *Check) (*Result, error) {
	t.Helper()

	result, err := Run(c)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, c.Name, result.Steps); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the CSV rendering of steps against a golden file.
// This is useful when a trajectory is already at hand.
func AssertGolden(t *testing.T, name string, steps []sir.Step) error {
	t.Helper()

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, steps); err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())

	return nil
}
