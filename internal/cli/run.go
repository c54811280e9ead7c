package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pumped-fn/dataflow/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Check  bool // compare traces with golden files
	Update bool // rewrite golden files
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run scenarios and print their traces",
		Long: `Run one or more scenario files and print each trace.

With --check every trace is compared with <golden-dir>/<name>.golden;
--update rewrites those files instead.

Exit codes:
  0 - All scenarios passed
  1 - A scenario failed or differs from its golden file
  2 - Command error

Examples:
  dataflowctl run scenarios/merge.yaml
  dataflowctl run scenarios/*.yaml --check
  dataflowctl run scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "compare traces with golden files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.MarkFlagsMutuallyExclusive("check", "update")

	return cmd
}

func runScenarios(opts *RunOptions, files []string, w io.Writer) error {
	failed := 0
	var results []*harness.Result

	for _, file := range files {
		result, err := runFile(opts, file)
		if err != nil {
			return err
		}
		results = append(results, result)
		if !result.Pass {
			failed++
		}

		if opts.Format == "text" {
			if err := harness.FormatText(w, result); err != nil {
				return err
			}
			fmt.Fprintln(w)
		}
	}

	if opts.Format == "json" {
		if err := writeJSON(w, results); err != nil {
			return err
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", failed, len(files)))
	}
	return nil
}

func runFile(opts *RunOptions, file string) (*harness.Result, error) {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, file, err)
	}

	result, err := harness.Run(scenario, harness.WithLogger(opts.Logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, scenario.Name, err)
	}

	switch {
	case opts.Update:
		if err := writeGolden(opts.Config.Trace.GoldenDir, result); err != nil {
			return nil, WrapExitError(ExitCommandError, "update golden", err)
		}
		opts.Logger.Info("golden updated", "scenario", scenario.Name)
	case opts.Check:
		msg, err := compareGolden(opts.Config.Trace.GoldenDir, result)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "check golden", err)
		}
		if msg != "" {
			result.Pass = false
			result.Errors = append(result.Errors, msg)
		}
	}
	return result, nil
}

func goldenPath(dir, name string) string {
	return filepath.Join(dir, name+".golden")
}

func writeGolden(dir string, result *harness.Result) error {
	data, err := harness.MarshalSnapshot(result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(goldenPath(dir, result.Scenario), data, 0o644)
}

// compareGolden returns a mismatch message, or "" when the trace matches
func compareGolden(dir string, result *harness.Result) (string, error) {
	want, err := os.ReadFile(goldenPath(dir, result.Scenario))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Sprintf("no golden file for %s in %s", result.Scenario, dir), nil
	}
	if err != nil {
		return "", err
	}

	got, err := harness.MarshalSnapshot(result)
	if err != nil {
		return "", err
	}
	if !bytes.Equal(want, got) {
		return fmt.Sprintf("trace differs from %s", goldenPath(dir, result.Scenario)), nil
	}
	return "", nil
}
