package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/sirsim/internal/chart"
	"github.com/roach88/sirsim/internal/export"
	"github.com/roach88/sirsim/internal/ident"
	"github.com/roach88/sirsim/internal/scenario"
	"github.com/roach88/sirsim/internal/sir"
	"github.com/roach88/sirsim/internal/store"
	"github.com/roach88/sirsim/internal/sweep"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	Workers        int
	OutDir         string
	NoCSV          bool
	Terminals      []string
	Lang           string
	IncludeInitial bool
	Database       string

	// IDGenerator allows overriding run IDs (for testing).
	IDGenerator ident.RunIDGenerator
}

// SweepEntry summarizes one scenario of a sweep.
type SweepEntry struct {
	Name  string   `json:"name"`
	RunID string   `json:"run_id,omitempty"`
	Peak  sir.Step `json:"peak"`
	Final sir.Step `json:"final"`
	Files []string `json:"files"`
}

// SweepResult holds the overall sweep result.
type SweepResult struct {
	Scenarios []SweepEntry `json:"scenarios"`
	Total     int          `json:"total"`
}

// String renders one line per scenario.
func (r SweepResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Swept %d scenario(s)\n", r.Total)
	for _, e := range r.Scenarios {
		fmt.Fprintf(&b, "✓ %s: peak day %d (%s infected), final R=%s\n",
			e.Name, e.Peak.Day, export.FormatFloat(e.Peak.Infected), export.FormatFloat(e.Final.Removed))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return newSweepCommand(&SweepOptions{RootOptions: rootOpts})
}

func newSweepCommand(opts *SweepOptions) *cobra.Command {
	cfg := opts.Config

	cmd := &cobra.Command{
		Use:   "sweep <scenarios-dir>",
		Short: "Run every CUE scenario in a directory",
		Long: `Load the CUE scenarios in a directory and run them concurrently.

Each scenario writes <out-dir>/<name>.csv and one chart per terminal.
Scenarios share nothing, so results do not depend on --workers.

Exit codes:
  0 - All scenarios ran
  1 - A scenario violated conservation
  2 - Command error (invalid scenarios, IO, etc.)

Examples:
  sirsim sweep ./scenarios
  sirsim sweep ./scenarios --out-dir results --workers 4 --terminals svg
  sirsim sweep ./scenarios --db runs.db --format json`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, args[0], cmd)
		},
	}
	cmd.SetFlagErrorFunc(flagError)

	defaultTerminals := cfg.Terminals
	if defaultTerminals == nil {
		defaultTerminals = []string{"png"}
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", cfg.Workers, "concurrent runs (0 = one per CPU)")
	cmd.Flags().StringVarP(&opts.OutDir, "out-dir", "o", "sweep-out", "directory for per-scenario outputs")
	cmd.Flags().BoolVarP(&opts.NoCSV, "no-csv", "C", false, "do not write CSV files")
	cmd.Flags().StringSliceVar(&opts.Terminals, "terminals", defaultTerminals, "chart formats to write")
	cmd.Flags().StringVar(&opts.Lang, "lang", cfg.Lang, "chart label language (en, sv)")
	cmd.Flags().BoolVar(&opts.IncludeInitial, "include-initial", false, "include the day 0 snapshot in outputs")
	cmd.Flags().StringVar(&opts.Database, "db", cfg.DB, "save every run to this SQLite database")

	return cmd
}

func runSweep(opts *SweepOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	if opts.Workers < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "--workers must be >= 0", nil)
	}
	if err := chart.ValidateFormats(opts.Terminals); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err.Error(), nil)
	}

	loadResult, loadErrors := scenario.Load(dir, scenario.LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, msg := loadErrorCode(loadErrors[0])
		return formatter.Fail(ExitCommandError, code, msg, nil)
	}
	logger.Debug("scenarios loaded", "dir", dir, "files", loadResult.FileCount, "scenarios", len(loadResult.Scenarios))

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeIO, "failed to create output directory", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	files := map[string][]string{}

	outcomes, err := sweep.Run(ctx, loadResult.Scenarios, sweep.Options{
		Workers: opts.Workers,
		Logger:  logger,
		Each: func(_ context.Context, o sweep.Outcome) error {
			written, err := writeOutcome(opts, o)
			if err != nil {
				return err
			}
			mu.Lock()
			files[o.Scenario.Name] = written
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		if sir.IsInvariantError(err) {
			return formatter.Fail(ExitFailure, ErrCodeInvariant, "sweep failed", err)
		}
		return formatter.Fail(ExitCommandError, ErrCodeIO, "sweep failed", err)
	}

	result := SweepResult{Scenarios: make([]SweepEntry, 0, len(outcomes)), Total: len(outcomes)}
	for _, o := range outcomes {
		result.Scenarios = append(result.Scenarios, SweepEntry{
			Name:  o.Scenario.Name,
			Peak:  o.Peak,
			Final: o.Final,
			Files: files[o.Scenario.Name],
		})
	}

	if opts.Database != "" {
		if err := saveSweep(ctx, opts, outcomes, result.Scenarios); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to save runs", err)
		}
		logger.Info("sweep saved", "db", opts.Database, "runs", len(outcomes))
	}

	return formatter.Success(result)
}

func outcomeSteps(o sweep.Outcome, includeInitial bool) []sir.Step {
	if !includeInitial {
		return o.Steps
	}
	return append([]sir.Step{o.Initial}, o.Steps...)
}

func writeOutcome(opts *SweepOptions, o sweep.Outcome) ([]string, error) {
	base := filepath.Join(opts.OutDir, o.Scenario.Name)
	steps := outcomeSteps(o, opts.IncludeInitial)

	var written []string
	if !opts.NoCSV {
		path, err := export.WriteCSVFile(base, steps)
		if err != nil {
			return nil, err
		}
		written = append(written, path)
	}

	title := o.Scenario.Description
	if title == "" {
		title = o.Scenario.Name
	}
	paths, err := chart.Render(steps, base, opts.Terminals, chart.Options{Lang: opts.Lang, Title: title})
	if err != nil {
		return nil, err
	}
	return append(written, paths...), nil
}

func saveSweep(ctx context.Context, opts *SweepOptions, outcomes []sweep.Outcome, entries []SweepEntry) error {
	gen := opts.IDGenerator
	if gen == nil {
		gen = ident.UUIDv7Generator{}
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	for i, o := range outcomes {
		fp, err := ident.Fingerprint(o.Scenario.Name, o.Params, o.Initial, o.Scenario.DayCount())
		if err != nil {
			return fmt.Errorf("scenario %s: %w", o.Scenario.Name, err)
		}
		run := store.Run{
			ID:             gen.Generate(),
			Name:           o.Scenario.Name,
			Fingerprint:    fp,
			Params:         o.Params,
			Initial:        o.Initial,
			Days:           o.Scenario.DayCount(),
			IncludeInitial: opts.IncludeInitial,
		}
		if _, err := st.WriteRun(ctx, run, outcomeSteps(o, opts.IncludeInitial)); err != nil {
			return fmt.Errorf("scenario %s: %w", o.Scenario.Name, err)
		}
		entries[i].RunID = run.ID
	}
	return nil
}

// loadErrorCode extracts the stable code from a scenario load error.
func loadErrorCode(err error) (string, string) {
	var loadErr *scenario.LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Pos.IsValid() {
			return loadErr.Code, fmt.Sprintf("%s:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Message)
		}
		return loadErr.Code, loadErr.Message
	}
	return scenario.ErrCodeGeneric, err.Error()
}
