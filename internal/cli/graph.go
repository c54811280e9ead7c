package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pumped-fn/dataflow/internal/harness"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <scenario.yaml>",
		Short: "Print the connection trees left by a scenario",
		Long: `Run a scenario and draw every connection's membership tree as it stands
after the last step. Nodes list cached types in brackets and bridged types
in angle brackets.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := harness.LoadScenario(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, args[0], err)
			}
			result, err := harness.Run(scenario, harness.WithLogger(rootOpts.Logger))
			if err != nil {
				return WrapExitError(ExitCommandError, scenario.Name, err)
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(w, result.Graphs)
			}
			for _, name := range result.GraphNames() {
				fmt.Fprintf(w, "%s:\n%s\n", name, result.Graphs[name])
			}
			return nil
		},
	}
	return cmd
}
