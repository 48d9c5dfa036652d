package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/pqlc/cmd/pqlc/internal/cli/config"
	"github.com/leapstack-labs/pqlc/pkg/compiler"
	"github.com/leapstack-labs/pqlc/pkg/decl"
)

// NewCompileCommand parses, resolves, and lowers a PQL project to RQ,
// dumping the result as YAML or JSON — the CLI-level equivalent of
// pkg/compiler.ResolveAndLower, mirroring cmd/leapsql's `run` command's
// shape (load project -> run pipeline -> render) without an execution
// backend behind it.
func NewCompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <file...>",
		Short: "Compile a PQL project to the relational IR (RQ)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig(cmd.Context())
			log := config.GetLogger(cmd.Context())

			sources, err := loadSources(args)
			if err != nil {
				return err
			}

			log.Debug("parsing project", "files", len(sources))
			pr, err := compiler.Parse(sources)
			if err != nil {
				return err
			}

			ir, err := compiler.ResolveAndLower(pr, []string{decl.NsMain})
			if err != nil {
				return err
			}
			if cfg.Target != "" {
				ir.Def.Target = cfg.Target
			}

			out := cfg.Output
			if out == "" {
				out = config.DefaultOutput
			}
			switch out {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ir)
			case "yaml":
				data, err := yaml.Marshal(ir)
				if err != nil {
					return fmt.Errorf("pqlc: marshalling RQ: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			default:
				return fmt.Errorf("pqlc: unknown output format %q (want yaml or json)", out)
			}
		},
	}
	return cmd
}
