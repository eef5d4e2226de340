package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/sirsim/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Database string
	Name     string
}

// RunListing is the list command's result.
type RunListing struct {
	Runs []store.Run `json:"runs"`
}

// String renders the runs as an aligned table.
func (l RunListing) String() string {
	if len(l.Runs) == 0 {
		return "No runs found"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tNAME\tBETA\tGAMMA\tN\tDAYS")
	for _, r := range l.Runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%g\t%g\t%d\n",
			r.Seq, r.ID, r.Name, r.Params.Beta, r.Params.Gamma, r.Params.TotalPop, r.Days)
	}
	tw.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved runs",
		Long: `List the runs saved in a SQLite database, oldest first.

Examples:
  sirsim list --db runs.db
  sirsim list --db runs.db --name flu --format json`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}
	cmd.SetFlagErrorFunc(flagError)

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Config.DB, "SQLite database path (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "only list runs with this name")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "--db is required", nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(commandContext(cmd), opts.Name)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}
	if runs == nil {
		runs = []store.Run{}
	}

	return formatter.Success(RunListing{Runs: runs})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
