package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hdmboot/modkit"
)

func newListCommand(modulesRoot *string, newLogger func() modkit.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered modules",
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

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tKIND\tDEPENDENCIES\tDESCRIPTION")
			for _, name := range names {
				gm, ok := modules[name].(*modkit.GenericModule)
				if !ok {
					fmt.Fprintf(w, "%s\t-\t-\t-\t-\n", name)
					continue
				}
				kind := "legacy"
				if gm.Manifest() != nil {
					kind = "manifest"
				}
				deps := strings.Join(gm.Dependencies(), ",")
				if deps == "" {
					deps = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					gm.Name(), gm.Version(), kind, deps, gm.Description())
			}
			if err := w.Flush(); err != nil {
				return err
			}

			stats := manager.Statistics()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d modules (%d manifest, %d legacy)\n",
				stats.TotalModules, stats.ManifestModules, stats.LegacyModules)
			return nil
		},
	}
}
