package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hdmboot/modkit"
)

var errValidationFailed = errors.New("validation failed")

func newValidateCommand(modulesRoot *string, newLogger func() modkit.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate module manifests and configurations",
		Long: `Validate discovers all modules under the modules root and reports
manifest and configuration problems. The exit code is non-zero when any
registered module fails validation or the dependency graph cannot be
ordered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := discover(cmd, *modulesRoot, newLogger())
			if err != nil {
				return err
			}

			failed := false
			modules := manager.AllModules()
			names := make([]string, 0, len(modules))
			for name := range modules {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				validator, ok := modules[name].(modkit.ConfigValidator)
				if !ok {
					continue
				}
				if errs := validator.ValidateConfig(); len(errs) > 0 {
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "%s: INVALID\n", name)
					for _, msg := range errs {
						fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", msg)
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name)
				}
			}

			// Surface graph-level problems (cycles, missing deps) by
			// attempting a full initialization order.
			if err := manager.InitializeModules(cmd.Context()); err != nil {
				failed = true
				fmt.Fprintf(cmd.OutOrStdout(), "dependency graph: %v\n", err)
			}

			if failed {
				return errValidationFailed
			}
			return nil
		},
	}
}
