package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/pumped-fn/dataflow/config"
	"github.com/pumped-fn/dataflow/logging"
)

// RootOptions holds global flags and the state resolved from them before
// any subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"; empty uses the configured trace format
	ConfigPath string
	EnvFile    string

	Config config.Config
	Logger logging.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.TraceText, config.TraceJSON}

// NewRootCommand creates the root command for dataflowctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dataflowctl",
		Short: "Run and inspect dataflow scenarios",
		Long: `dataflowctl replays YAML scenarios against the dataflow graph: typed
publishes, subscriptions, connections and scope lifetimes. It prints the
resulting trace and can check it against golden files.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log graph activity at debug level")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "TOML configuration file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading DATAFLOW_* variables")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewGraphCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// resolve loads configuration and builds the logger
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if o.Format != "" && !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	var envFiles []string
	if o.EnvFile != "" {
		envFiles = append(envFiles, o.EnvFile)
	}
	cfg, err := config.Load(o.ConfigPath, envFiles...)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}
	o.Config = cfg

	if o.Format == "" {
		o.Format = cfg.Trace.Format
	}

	logCfg := cfg.Logging()
	if o.Verbose {
		logCfg.Level = logging.LevelDebug
	}
	o.Logger = logging.NewZerolog(cmd.ErrOrStderr(), logCfg)
	return nil
}
