package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pqlc/pkg/compiler"
)

// NewVersionCommand reports the CLI build version alongside the compiler
// library's own PQL-support version, mirroring the teacher's
// cmd/leapsql version command.
func NewVersionCommand(cliVersion string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pqlc v%s (compiler v%s)\n", cliVersion, compiler.Version)
		},
	}
}
