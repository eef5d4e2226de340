package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sirsim/internal/ident"
)

const boundaryCSV = `1, 8.55, 0.95, 0.5
2, 8.143875000000001, 0.8811249999999999, 0.975
3, 7.785086407031251, 0.79935109296875, 1.4155625
4, 7.473935540615422, 0.7108264129002044, 1.815238046484375
5, 7.208302001086271, 0.6210467459792528, 2.1706512529344772
`

func TestRunCommand_WritesCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "boundary")

	stdout, err := execute(t, testConfig(), "run", "-b", "0.5", "-g", "0.5", "-n", "10", "-i", "1", "-t", "5", "-o", out)
	require.NoError(t, err)

	assert.Equal(t, boundaryCSV, readFile(t, out+".csv"))
	assert.Contains(t, stdout, "Simulated 5 days")
	assert.Contains(t, stdout, "Peak:  day 1, 0.95 infected")
	assert.Contains(t, stdout, "Wrote "+out+".csv")
}

func TestRunCommand_SusceptibleMatchesTotalPop(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, testConfig(), "run", "-b", "0.5", "-g", "0.5", "-s", "9", "-i", "1", "-t", "5", "-o", filepath.Join(dir, "s"))
	require.NoError(t, err)

	assert.Equal(t, boundaryCSV, readFile(t, filepath.Join(dir, "s.csv")))
}

func TestRunCommand_IncludeInitial(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")

	_, err := execute(t, testConfig(), "run", "-b", "0.5", "-g", "0.5", "-n", "10", "-i", "1", "-t", "5", "-o", out, "--include-initial")
	require.NoError(t, err)

	assert.Equal(t, "0, 9, 1, 0\n"+boundaryCSV, readFile(t, out+".csv"))
}

func TestRunCommand_OutputDefaultsFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Output = filepath.Join(t.TempDir(), "from-env")

	_, err := execute(t, cfg, "run", "-b", "0.5", "-g", "0.1", "-n", "1000", "-i", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(readFile(t, cfg.Output+".csv"), "\n"), "\n")
	assert.Len(t, lines, 100)
	assert.True(t, strings.HasPrefix(lines[99], "100, "), lines[99])
}

func TestRunCommand_NoOutputs(t *testing.T) {
	dir := t.TempDir()

	stdout, err := execute(t, testConfig(), "run", "-b", "0.5", "-g", "0.1", "-n", "1000", "-i", "1", "-o", filepath.Join(dir, "out"), "--no-csv", "--terminals=")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotContains(t, stdout, "Wrote")
}

func TestRunCommand_Charts(t *testing.T) {
	out := filepath.Join(t.TempDir(), "flu")

	stdout, err := execute(t, testConfig(), "run", "-b", "0.5", "-g", "0.1", "-n", "1000", "-i", "1",
		"-o", out, "-C", "--terminals", "png,svg", "--lang", "sv", "--title", "Influensa")
	require.NoError(t, err)

	assert.FileExists(t, out+".png")
	assert.FileExists(t, out+".svg")
	assert.NoFileExists(t, out+".csv")
	assert.Contains(t, readFile(t, out+".svg"), "Antal personer")
	assert.Contains(t, stdout, "Wrote "+out+".svg")
}

func TestRunCommand_DegenerateInputWritesNonFinite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "zero")

	_, err := execute(t, testConfig(), "run", "-b", "0.5", "-g", "0.1", "-n", "0", "-i", "0", "-t", "3", "-o", out)
	require.NoError(t, err)

	assert.Contains(t, readFile(t, out+".csv"), "NaN")
}

func TestRunCommand_ZeroDays(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty")

	stdout, err := execute(t, testConfig(), "run", "-b", "0.5", "-g", "0.1", "-n", "100", "-i", "1", "-t", "0", "-o", out)
	require.NoError(t, err)

	assert.Equal(t, "", readFile(t, out+".csv"))
	assert.NotContains(t, stdout, "Peak:")
	assert.Contains(t, stdout, "Final: day 0, S=99 I=1 R=0")
}

func TestRunCommand_JSONSummary(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")

	stdout, err := execute(t, testConfig(), "--format", "json", "run", "-b", "0.5", "-g", "0.5", "-n", "10", "-i", "1", "-t", "5", "-o", out)
	require.NoError(t, err)

	var summary RunSummary
	resp := decodeResponse(t, stdout, &summary)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 5, summary.Days)
	assert.Equal(t, 5, summary.Snapshots)
	assert.Equal(t, 10.0, summary.Params.TotalPop)
	assert.Equal(t, 5, summary.Final.Day)
	require.NotNil(t, summary.Peak)
	assert.Equal(t, []string{out + ".csv"}, summary.Files)
}

func TestRunCommand_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing population", []string{"-b", "0.5", "-g", "0.1", "-i", "1"}, "one of --total-pop or --susceptible is required"},
		{"both populations", []string{"-b", "0.5", "-g", "0.1", "-n", "10", "-s", "9", "-i", "1"}, "mutually exclusive"},
		{"missing beta", []string{"-g", "0.1", "-n", "10", "-i", "1"}, "--beta is required"},
		{"missing infected", []string{"-b", "0.5", "-g", "0.1", "-n", "10"}, "--infected is required"},
		{"csv and no-csv", []string{"-b", "0.5", "-g", "0.1", "-n", "10", "-i", "1", "-c", "-C"}, "--csv and --no-csv"},
		{"unknown terminal", []string{"-b", "0.5", "-g", "0.1", "-n", "10", "-i", "1", "--terminals", "gif"}, "unknown chart format"},
		{"bad number", []string{"-b", "lots", "-g", "0.1", "-n", "10", "-i", "1"}, "invalid flags"},
		{"positional argument", []string{"extra", "-b", "0.5", "-g", "0.1", "-n", "10", "-i", "1"}, "invalid arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			args := append([]string{"run", "-o", filepath.Join(dir, "out")}, tt.args...)

			_, err := execute(t, testConfig(), args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing written on usage error")
		})
	}
}

func TestRunCommand_UsageErrorJSON(t *testing.T) {
	stdout, err := execute(t, testConfig(), "--format", "json", "run", "-b", "0.5", "-g", "0.1", "-i", "1")
	require.Error(t, err)

	resp := decodeResponse(t, stdout, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUsage, resp.Error.Code)
}

func TestRunCommand_SavesRun(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	out := filepath.Join(dir, "out")

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text", Config: testConfig()},
		IDGenerator: ident.NewFixedGenerator("run-1"),
	}
	cmd := newRunCommand(opts)
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-b", "0.5", "-g", "0.5", "-n", "10", "-i", "1", "-t", "5", "-o", out, "--db", db, "--name", "boundary"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "Saved run run-1")

	shown, err := execute(t, testConfig(), "show", "run-1", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, readFile(t, out+".csv"), shown)
}

func TestRunCommand_DatabaseFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.DB = filepath.Join(dir, "runs.db")

	_, err := execute(t, cfg, "run", "-b", "0.5", "-g", "0.1", "-n", "100", "-i", "1", "-t", "3", "-o", filepath.Join(dir, "out"))
	require.NoError(t, err)

	listed, err := execute(t, cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, listed, "run")
	assert.NotContains(t, listed, "No runs found")
}
