package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sirsim/internal/sir"
)

func compileOne(t *testing.T, src, name string) (*Scenario, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return Compile(v.LookupPath(cue.ParsePath("scenario." + name)))
}

func TestCompileTotalPop(t *testing.T) {
	sc, err := compileOne(t, `
		scenario: flu: {
			description: "seasonal"
			beta:      0.5
			gamma:     0.1
			total_pop: 1000
			infected:  1
			days:      30
		}
	`, "flu")
	require.NoError(t, err)

	assert.Equal(t, "flu", sc.Name)
	assert.Equal(t, "seasonal", sc.Description)
	assert.Equal(t, 0.5, sc.Beta)
	assert.Equal(t, 0.1, sc.Gamma)
	require.NotNil(t, sc.TotalPop)
	assert.Equal(t, 1000.0, *sc.TotalPop)
	assert.Nil(t, sc.Susceptible)
	assert.Equal(t, 1.0, sc.Infected)
	assert.Equal(t, 30, sc.DayCount())
}

func TestCompileSusceptibleDefaultsDays(t *testing.T) {
	sc, err := compileOne(t, `
		scenario: s: { beta: 0.3, gamma: 0.1, susceptible: 999, infected: 1 }
	`, "s")
	require.NoError(t, err)

	require.NotNil(t, sc.Susceptible)
	assert.Equal(t, 999.0, *sc.Susceptible)
	assert.Nil(t, sc.Days)
	assert.Equal(t, DefaultDays, sc.DayCount())
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "missing beta",
			src:   `scenario: x: { gamma: 0.1, total_pop: 10, infected: 1 }`,
			field: "beta",
		},
		{
			name:  "missing infected",
			src:   `scenario: x: { beta: 0.1, gamma: 0.1, total_pop: 10 }`,
			field: "infected",
		},
		{
			name:  "string rate",
			src:   `scenario: x: { beta: "fast", gamma: 0.1, total_pop: 10, infected: 1 }`,
			field: "beta",
		},
		{
			name:  "fractional days",
			src:   `scenario: x: { beta: 0.1, gamma: 0.1, total_pop: 10, infected: 1, days: 1.5 }`,
			field: "days",
		},
		{
			name:  "no population",
			src:   `scenario: x: { beta: 0.1, gamma: 0.1, infected: 1 }`,
			field: "initial",
		},
		{
			name:  "both population forms",
			src:   `scenario: x: { beta: 0.1, gamma: 0.1, total_pop: 10, susceptible: 9, infected: 1 }`,
			field: "initial",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileOne(t, tt.src, "x")
			require.Error(t, err)

			var compileErr *CompileError
			require.True(t, errors.As(err, &compileErr), "got %T: %v", err, err)
			assert.Equal(t, tt.field, compileErr.Field)
		})
	}
}

func TestParamsIterator(t *testing.T) {
	byTotal := Params{Beta: 0.4, Gamma: 0.2, TotalPop: Float(100), Infected: 4, Days: Int(20)}
	bySusceptible := Params{Beta: 0.4, Gamma: 0.2, Susceptible: Float(96), Infected: 4, Days: Int(20)}

	a, err := byTotal.Iterator()
	require.NoError(t, err)
	b, err := bySusceptible.Iterator()
	require.NoError(t, err)

	assert.Equal(t, a.Params(), b.Params())
	assert.Equal(t, a.Initial(), b.Initial())

	sa, err := sir.Collect(a)
	require.NoError(t, err)
	sb, err := sir.Collect(b)
	require.NoError(t, err)
	assert.Equal(t, sa, sb)

	_, err = Params{Beta: 1, Gamma: 1, Infected: 1}.Iterator()
	assert.ErrorIs(t, err, ErrNoPopulation)

	_, err = Params{Beta: 1, Gamma: 1, Infected: 1, TotalPop: Float(1), Susceptible: Float(1)}.Iterator()
	assert.ErrorIs(t, err, ErrConflictingInitial)
}

func TestScenarioString(t *testing.T) {
	sc := Scenario{Name: "flu", Params: Params{Beta: 0.5, Gamma: 0.1, TotalPop: Float(1000), Infected: 1}}
	assert.Equal(t, "flu (beta=0.5 gamma=0.1 N=1000 I0=1 days=100)", sc.String())
}

func writeCUE(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "a.cue", `package scenarios

scenario: zeta: { beta: 0.5, gamma: 0.1, total_pop: 1000, infected: 1 }
`)
	writeCUE(t, dir, "b.cue", `package scenarios

scenario: alpha: { beta: 0.3, gamma: 0.1, susceptible: 500, infected: 5, days: 10 }
`)

	result, errs := Load(dir, LoadModeFailFast)
	require.Empty(t, errs)
	require.NotNil(t, result)

	assert.Equal(t, 2, result.FileCount)
	require.Len(t, result.Scenarios, 2)
	assert.Equal(t, "alpha", result.Scenarios[0].Name, "sorted by name")
	assert.Equal(t, "zeta", result.Scenarios[1].Name)
}

func TestLoad_CollectAll(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "bad.cue", `package scenarios

scenario: one: { gamma: 0.1, total_pop: 10, infected: 1 }
scenario: two: { beta: 0.1, gamma: 0.1, infected: 1 }
scenario: ok: { beta: 0.1, gamma: 0.1, total_pop: 10, infected: 1 }
`)

	result, errs := Load(dir, LoadModeCollectAll)
	require.Len(t, errs, 2)
	require.NotNil(t, result)
	assert.Len(t, result.Scenarios, 1)

	codes := []string{}
	for _, err := range errs {
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		codes = append(codes, loadErr.Code)
	}
	assert.ElementsMatch(t, []string{ErrCodeMissingField, ErrCodeInitial}, codes)

	_, errs = Load(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestLoad_DirectoryErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		code  string
	}{
		{
			name:  "missing",
			setup: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			code:  ErrCodeNotFound,
		},
		{
			name: "not a directory",
			setup: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "file.cue")
				require.NoError(t, os.WriteFile(p, []byte("package x"), 0644))
				return p
			},
			code: ErrCodeNotFound,
		},
		{
			name:  "no cue files",
			setup: func(t *testing.T) string { return t.TempDir() },
			code:  ErrCodeNoFiles,
		},
		{
			name: "no scenario struct",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeCUE(t, dir, "x.cue", "package scenarios\n\nother: 1\n")
				return dir
			},
			code: ErrCodeNoScenarios,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := Load(tt.setup(t), LoadModeCollectAll)
			require.Len(t, errs, 1)
			var loadErr *LoadError
			require.True(t, errors.As(errs[0], &loadErr))
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}
