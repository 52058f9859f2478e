package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/hdmboot/modkit"
)

func newHealthCommand(modulesRoot *string, newLogger func() modkit.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Initialize modules and print health snapshots as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := discover(cmd, *modulesRoot, newLogger())
			if err != nil {
				return err
			}
			if err := manager.InitializeModules(cmd.Context()); err != nil {
				return err
			}

			health := manager.ModulesHealth(cmd.Context())
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(health)
		},
	}
}
