package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sirsim/internal/chart"
	"github.com/roach88/sirsim/internal/export"
	"github.com/roach88/sirsim/internal/ident"
	"github.com/roach88/sirsim/internal/sir"
	"github.com/roach88/sirsim/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	Beta        float64
	Gamma       float64
	TotalPop    float64
	Susceptible float64
	Infected    float64
	Days        int

	Output         string
	CSV            bool
	NoCSV          bool
	Terminals      []string
	Lang           string
	Title          string
	IncludeInitial bool

	Database string
	Name     string

	// IDGenerator allows overriding run IDs (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator ident.RunIDGenerator
}

// RunSummary is the result printed after a run.
type RunSummary struct {
	RunID       string     `json:"run_id,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Params      sir.Params `json:"params"`
	Days        int        `json:"days"`
	Snapshots   int        `json:"snapshots"`
	Peak        *sir.Step  `json:"peak,omitempty"`
	Final       sir.Step   `json:"final"`
	Files       []string   `json:"files"`
}

// String renders the human-readable summary.
func (s RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Simulated %d days (beta=%g gamma=%g N=%g)\n", s.Days, s.Params.Beta, s.Params.Gamma, s.Params.TotalPop)
	if s.Peak != nil {
		fmt.Fprintf(&b, "Peak:  day %d, %s infected\n", s.Peak.Day, export.FormatFloat(s.Peak.Infected))
	}
	fmt.Fprintf(&b, "Final: day %d, S=%s I=%s R=%s\n", s.Final.Day,
		export.FormatFloat(s.Final.Susceptible),
		export.FormatFloat(s.Final.Infected),
		export.FormatFloat(s.Final.Removed))
	for _, f := range s.Files {
		fmt.Fprintf(&b, "Wrote %s\n", f)
	}
	if s.RunID != "" {
		fmt.Fprintf(&b, "Saved run %s\n", s.RunID)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cfg := opts.Config

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one epidemic",
		Long: `Simulate one SIR epidemic and write its trajectory.

Give the population either as the total (--total-pop, S0 = N - I0) or as
the susceptible count (--susceptible, N = S0 + I0). The trajectory starts
at day 1 unless --include-initial is set.

Outputs are <output>.csv and one <output>.<terminal> chart per terminal.

Examples:
  sirsim run -b 0.5 -g 0.1 -n 1000 -i 1
  sirsim run -b 0.3 -g 0.1 -s 999 -i 1 -t 160 -o out/flu --terminals png,svg
  sirsim run -b 0.5 -g 0.1 -n 1000 -i 1 --no-csv --terminals "" --db runs.db`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, cmd)
		},
	}
	cmd.SetFlagErrorFunc(flagError)

	defaultTerminals := cfg.Terminals
	if defaultTerminals == nil {
		defaultTerminals = []string{"png"}
	}
	defaultOutput := cfg.Output
	if defaultOutput == "" {
		defaultOutput = "sir-out"
	}

	cmd.Flags().Float64VarP(&opts.Beta, "beta", "b", 0, "rate of infection (required)")
	cmd.Flags().Float64VarP(&opts.Gamma, "gamma", "g", 0, "rate of recovery/removal (required)")
	cmd.Flags().Float64VarP(&opts.TotalPop, "total-pop", "n", 0, "total population N (exclusive with --susceptible)")
	cmd.Flags().Float64VarP(&opts.Susceptible, "susceptible", "s", 0, "initial susceptible S0 (exclusive with --total-pop)")
	cmd.Flags().Float64VarP(&opts.Infected, "infected", "i", 0, "initial infected I0 (required)")
	cmd.Flags().IntVarP(&opts.Days, "day-count", "t", 100, "number of days to simulate")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", defaultOutput, "output path without extension")
	cmd.Flags().BoolVarP(&opts.CSV, "csv", "c", true, "write <output>.csv")
	cmd.Flags().BoolVarP(&opts.NoCSV, "no-csv", "C", false, "do not write <output>.csv")
	cmd.Flags().StringSliceVar(&opts.Terminals, "terminals", defaultTerminals, "chart formats to write ("+strings.Join(chart.Formats, ", ")+")")
	cmd.Flags().StringVar(&opts.Lang, "lang", cfg.Lang, "chart label language (en, sv)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "chart title")
	cmd.Flags().BoolVar(&opts.IncludeInitial, "include-initial", false, "include the day 0 snapshot in outputs")
	cmd.Flags().StringVar(&opts.Database, "db", cfg.DB, "save the run to this SQLite database")
	cmd.Flags().StringVar(&opts.Name, "name", "run", "name recorded with the saved run")

	return cmd
}

// validate checks flag combinations cobra cannot express with exit code 2.
func (o *RunOptions) validate(cmd *cobra.Command) error {
	flags := cmd.Flags()
	for _, name := range []string{"beta", "gamma", "infected"} {
		if !flags.Changed(name) {
			return fmt.Errorf("--%s is required", name)
		}
	}

	totalSet, susceptibleSet := flags.Changed("total-pop"), flags.Changed("susceptible")
	switch {
	case totalSet && susceptibleSet:
		return errors.New("--total-pop and --susceptible are mutually exclusive")
	case !totalSet && !susceptibleSet:
		return errors.New("one of --total-pop or --susceptible is required")
	}

	if flags.Changed("csv") && flags.Changed("no-csv") {
		return errors.New("--csv and --no-csv are mutually exclusive")
	}

	return chart.ValidateFormats(o.Terminals)
}

func (o *RunOptions) writeCSV() bool {
	return o.CSV && !o.NoCSV
}

func (o *RunOptions) iterator(cmd *cobra.Command) *sir.Iterator {
	if cmd.Flags().Changed("susceptible") {
		return sir.FromSusceptible(o.Beta, o.Gamma, o.Susceptible, o.Infected, o.Days)
	}
	return sir.FromTotalPop(o.Beta, o.Gamma, o.TotalPop, o.Infected, o.Days)
}

func runSimulation(opts *RunOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	if err := opts.validate(cmd); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err.Error(), nil)
	}

	it := opts.iterator(cmd)
	logger.Debug("simulation starting",
		"beta", opts.Beta, "gamma", opts.Gamma,
		"total_pop", it.Params().TotalPop, "infected", opts.Infected, "days", opts.Days)

	var (
		steps []sir.Step
		err   error
	)
	if opts.IncludeInitial {
		steps, err = sir.Trajectory(it)
	} else {
		steps, err = sir.Collect(it)
	}
	if err != nil {
		var ie *sir.InvariantError
		if errors.As(err, &ie) {
			logger.Error("conservation violated", "day", ie.Day, "error", err)
		}
		return formatter.Fail(ExitFailure, ErrCodeInvariant, "simulation failed", err)
	}

	summary := RunSummary{
		Params:    it.Params(),
		Days:      it.Days(),
		Snapshots: len(steps),
		Final:     it.Step(),
		Files:     []string{},
	}
	if peak, ok := sir.Peak(steps); ok {
		summary.Peak = &peak
	}

	if opts.writeCSV() {
		path, err := export.WriteCSVFile(opts.Output, steps)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeIO, "failed to write CSV", err)
		}
		logger.Debug("csv written", "path", path)
		summary.Files = append(summary.Files, path)
	}

	paths, err := chart.Render(steps, opts.Output, opts.Terminals, chart.Options{Lang: opts.Lang, Title: opts.Title})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeIO, "failed to render chart", err)
	}
	for _, p := range paths {
		logger.Debug("chart written", "path", p)
	}
	summary.Files = append(summary.Files, paths...)

	if opts.Database != "" {
		run, err := saveRun(cmd.Context(), opts, it, steps, logger)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to save run", err)
		}
		summary.RunID = run.ID
		summary.Fingerprint = run.Fingerprint
	}

	return formatter.Success(summary)
}

func saveRun(ctx context.Context, opts *RunOptions, it *sir.Iterator, steps []sir.Step, logger *slog.Logger) (store.Run, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	fp, err := ident.FingerprintOf(opts.Name, it)
	if err != nil {
		return store.Run{}, err
	}

	gen := opts.IDGenerator
	if gen == nil {
		gen = ident.UUIDv7Generator{}
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return store.Run{}, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	run := store.Run{
		ID:             gen.Generate(),
		Name:           opts.Name,
		Fingerprint:    fp,
		Params:         it.Params(),
		Initial:        it.Initial(),
		Days:           it.Days(),
		IncludeInitial: opts.IncludeInitial,
	}
	if _, err := st.WriteRun(ctx, run, steps); err != nil {
		return store.Run{}, err
	}
	logger.Info("run saved", "run_id", run.ID, "db", opts.Database, "snapshots", len(steps))
	return run, nil
}

// noArgs and exactArgs report positional-argument mistakes as command errors.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

// flagError reports flag parse errors as command errors.
func flagError(cmd *cobra.Command, err error) error {
	return WrapExitError(ExitCommandError, "invalid flags", err)
}
