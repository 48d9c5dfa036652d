package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pqlc/cmd/pqlc/internal/cli/commands"
	"github.com/leapstack-labs/pqlc/cmd/pqlc/internal/cli/config"
)

var (
	cfgFile    string
	targetFlag string
	outputFlag string
	verbose    bool
)

// Version is set at build time; defaults to the library's own Version.
var Version = "0.1.0"

// NewRootCmd builds the pqlc command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pqlc",
		Short: "pqlc - pipelined query language compiler",
		Long: `pqlc parses, resolves, and lowers PQL projects to the relational IR
(RQ) consumed by a SQL generation backend. This driver stops at RQ: it
does not execute queries or talk to a database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			cmd.SetContext(config.WithContext(cmd.Context(), cfg))

			if cfg.Verbose {
				if f := config.GetConfigFileUsed(); f != "" {
					fmt.Fprintf(os.Stderr, "using config file: %s\n", f)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./pqlc.yaml)")
	root.PersistentFlags().StringVarP(&targetFlag, "target", "t", "", "target dialect hint (e.g. sql.duckdb)")
	root.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "dump format (yaml|json)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(commands.NewVersionCommand(Version))
	root.AddCommand(commands.NewCompileCommand())
	root.AddCommand(commands.NewFormatCommand())

	return root
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
