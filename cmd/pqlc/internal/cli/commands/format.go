package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pqlc/pkg/compiler"
)

// NewFormatCommand parses a PQL project and prints it back as source
// text (spec §6.1's `pl_to_source`), the formatting-only counterpart to
// `compile` — useful for checking that astexpand's desugaring round-trips
// cleanly through the unparser during development.
func NewFormatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "format <file...>",
		Short: "Parse a PQL project and print it back as source text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := loadSources(args)
			if err != nil {
				return err
			}
			pr, err := compiler.Parse(sources)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), compiler.PLToSource(pr))
			return nil
		},
	}
}
