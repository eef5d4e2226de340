package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sirsim/internal/sir"
)

func boundarySteps(t *testing.T, days int) []sir.Step {
	t.Helper()
	it := sir.FromTotalPop(0.5, 0.5, 10, 1, days)
	steps, err := sir.Collect(it)
	require.NoError(t, err)
	return steps
}

func TestWriteCSV_FirstLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, boundarySteps(t, 1)))
	assert.Equal(t, "1, 8.55, 0.95, 0.5\n", buf.String())
}

func TestWriteCSV_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, boundarySteps(t, 5)))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "boundary", buf.Bytes())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestWriteCSV_LineCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, boundarySteps(t, 100)))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 100)
	assert.True(t, strings.HasPrefix(lines[0], "1, "))
	assert.True(t, strings.HasPrefix(lines[99], "100, "))
	for _, line := range lines {
		assert.Len(t, strings.Split(line, ", "), 4, line)
	}
}

func TestWriteCSVFile_Overwrites(t *testing.T) {
	base := filepath.Join(t.TempDir(), "sir-out")
	require.NoError(t, os.WriteFile(base+".csv", []byte("stale content that is longer than the new file\n"), 0644))

	path, err := WriteCSVFile(base, boundarySteps(t, 1))
	require.NoError(t, err)
	assert.Equal(t, base+".csv", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1, 8.55, 0.95, 0.5\n", string(data))
}

func TestWriteCSVFile_MissingDirectory(t *testing.T) {
	_, err := WriteCSVFile(filepath.Join(t.TempDir(), "nope", "out"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10"},
		{0, "0"},
		{8.55, "8.55"},
		{-2.5, "-2.5"},
		{1e-7, "0.0000001"},
		{1e21, "1000000000000000000000"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.in))
		})
	}
}

func TestWriteJSONL(t *testing.T) {
	steps := []sir.Step{
		{Day: 1, Susceptible: 8.55, Infected: 0.95, Removed: 0.5},
		{Day: 2, Susceptible: math.NaN(), Infected: math.Inf(1), Removed: 1},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, steps))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, 1.0, first["day"])
	assert.Equal(t, 8.55, first["susceptible"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Nil(t, second["susceptible"])
	assert.Nil(t, second["infected"])
	assert.Equal(t, 1.0, second["removed"])
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"csv", "jsonl"}, Formats())

	var buf bytes.Buffer
	require.NoError(t, Write("csv", &buf, boundarySteps(t, 1)))
	assert.Equal(t, "1, 8.55, 0.95, 0.5\n", buf.String())

	err := Write("xlsx", &buf, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"xlsx"`)
}
