package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pumped-fn/dataflow/internal/harness"
)

// ValidationResult reports one scenario file.
type ValidationResult struct {
	File  string `json:"file"`
	Name  string `json:"name,omitempty"`
	Steps int    `json:"steps"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate <scenario.yaml>...",
		Short:         "Check scenario files without running them",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]ValidationResult, 0, len(args))
			invalid := 0
			for _, file := range args {
				r := ValidationResult{File: file}
				s, err := harness.LoadScenario(file)
				if err != nil {
					r.Error = err.Error()
					invalid++
				} else {
					r.Name, r.Steps = s.Name, len(s.Steps)
				}
				results = append(results, r)
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				if err := writeJSON(w, results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.Error != "" {
						fmt.Fprintf(w, "✗ %s\n  %s\n", r.File, r.Error)
						continue
					}
					fmt.Fprintf(w, "✓ %s (%s, %d steps)\n", r.File, r.Name, r.Steps)
				}
			}

			if invalid > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d invalid scenario(s)", invalid))
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
