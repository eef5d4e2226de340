package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sirsim/internal/export"
	"github.com/roach88/sirsim/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id|fingerprint>",
		Short: "Print a saved run's trajectory",
		Long: `Print the stored trajectory of a run in the same CSV format that run
writes, or as JSON lines with --format json.

The argument is a run ID or a fingerprint. A fingerprint selects the
earliest run saved with it.

Examples:
  sirsim show 01920000-0000-7000-8000-000000000001 --db runs.db
  sirsim show 3f2a... --db runs.db --format json`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}
	cmd.SetFlagErrorFunc(flagError)

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Config.DB, "SQLite database path (required)")

	return cmd
}

func runShow(opts *ShowOptions, ref string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	if opts.Database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "--db is required", nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		run, err = st.FindByFingerprint(ctx, ref)
	}
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", ref), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
	}

	steps, err := st.ReadSteps(ctx, run.ID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read steps", err)
	}
	formatter.VerboseLog("run %s (%s): %d snapshot(s)", run.ID, run.Name, len(steps))

	format := "csv"
	if formatter.Format == "json" {
		format = "jsonl"
	}
	if err := export.Write(format, formatter.Writer, steps); err != nil {
		return WrapExitError(ExitCommandError, "failed to write steps", err)
	}
	return nil
}
