package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sirsim/internal/export"
	"github.com/roach88/sirsim/internal/harness"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Filter string
	Update bool
}

// CheckResult holds the outcome of one check file.
type CheckResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "mismatch", "updated"
	Errors []string `json:"errors,omitempty"`
}

// CheckRun holds the outcome of all checks in a directory.
type CheckRun struct {
	Results []CheckResult `json:"results"`
	Passed  int           `json:"passed"`
	Failed  int           `json:"failed"`
	Total   int           `json:"total"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <checks-dir>",
		Short: "Run YAML check files against the engine",
		Long: `Run the YAML check files in a directory.

Each check names a parameter set and assertions over its trajectory. When
<checks-dir>/golden/<file>.golden exists, the CSV rendering must also match
it byte for byte. --update rewrites the golden files instead.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed
  2 - Command error (directory missing, bad filter)

Examples:
  sirsim check ./testdata/checks
  sirsim check ./testdata/checks --filter "flu*"
  sirsim check ./testdata/checks --update`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(opts, args[0], cmd)
		},
	}
	cmd.SetFlagErrorFunc(flagError)

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run check files whose name matches this glob")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files from the current output")

	return cmd
}

func runChecks(opts *CheckOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	info, err := os.Stat(dir)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("checks directory not found: %s", dir), nil)
	}
	if !info.IsDir() {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("not a directory: %s", dir), nil)
	}

	files, err := harness.FindChecks(dir, opts.Filter)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "failed to list checks", err)
	}
	if len(files) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no check files found in %s", dir), nil)
	}

	h := harness.New(logger)
	run := CheckRun{Results: make([]CheckResult, 0, len(files))}

	for _, file := range files {
		cr := runCheckFile(h, opts, dir, file)
		if cr.Pass {
			run.Passed++
		} else {
			run.Failed++
		}
		run.Results = append(run.Results, cr)
		formatter.VerboseLog("check %s: pass=%v", cr.Name, cr.Pass)
	}
	run.Total = len(run.Results)

	if formatter.Format == "json" {
		if err := formatter.Success(run); err != nil {
			return err
		}
	} else {
		printCheckRun(formatter, run)
	}

	if run.Failed > 0 {
		return reportedError(ExitFailure, fmt.Sprintf("%d of %d check(s) failed", run.Failed, run.Total))
	}
	return nil
}

func runCheckFile(h *harness.Harness, opts *CheckOptions, dir, file string) CheckResult {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	cr := CheckResult{Name: base, File: file}

	result, err := h.RunFile(file)
	if err != nil {
		cr.Errors = []string{err.Error()}
		return cr
	}
	cr.Name = result.Name
	cr.Pass = result.Pass
	cr.Errors = result.Errors

	var csv bytes.Buffer
	if err := export.WriteCSV(&csv, result.Steps); err != nil {
		cr.Pass = false
		cr.Errors = append(cr.Errors, err.Error())
		return cr
	}

	goldenPath := filepath.Join(dir, "golden", base+".golden")
	if opts.Update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err == nil {
			err = os.WriteFile(goldenPath, csv.Bytes(), 0644)
		}
		if err != nil {
			cr.Pass = false
			cr.Errors = append(cr.Errors, fmt.Sprintf("failed to update golden file: %v", err))
			return cr
		}
		cr.Golden = "updated"
		return cr
	}

	want, err := os.ReadFile(goldenPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No golden file for this check.
	case err != nil:
		cr.Pass = false
		cr.Errors = append(cr.Errors, fmt.Sprintf("failed to read golden file: %v", err))
	case bytes.Equal(want, csv.Bytes()):
		cr.Golden = "match"
	default:
		cr.Pass = false
		cr.Golden = "mismatch"
		cr.Errors = append(cr.Errors, fmt.Sprintf("output differs from %s (rerun with --update to accept)", goldenPath))
	}
	return cr
}

func printCheckRun(formatter *OutputFormatter, run CheckRun) {
	for _, r := range run.Results {
		if r.Pass {
			fmt.Fprintf(formatter.Writer, "✓ %s\n", r.Name)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✗ %s\n", r.Name)
		for _, e := range r.Errors {
			for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
				fmt.Fprintf(formatter.Writer, "    %s\n", line)
			}
		}
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "%d passed, %d failed, %d total\n", run.Passed, run.Failed, run.Total)
}
