package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hdmboot/modkit"
)

func newGraphCommand(modulesRoot *string, newLogger func() modkit.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print module dependency edges and initialization order",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := discover(cmd, *modulesRoot, newLogger())
			if err != nil {
				return err
			}

			modules := manager.AllModules()
			names := make([]string, 0, len(modules))
			for name := range modules {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				aware, ok := modules[name].(modkit.DependencyAware)
				if !ok || len(aware.Dependencies()) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n", name)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n",
					name, strings.Join(aware.Dependencies(), ", "))
			}

			// InitializeModules both validates the graph and yields the real
			// order; modkit init hooks are absent here so it only flips
			// bookkeeping.
			if err := manager.InitializeModules(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\ninitialization order: %s\n",
				strings.Join(manager.InitializedModules(), " -> "))
			return nil
		},
	}
}
