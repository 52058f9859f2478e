// Package cmd implements the modkit CLI for inspecting a modules tree:
// listing discovered modules, validating manifests and configurations,
// printing the dependency graph, and reporting module health.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hdmboot/modkit"
)

// NewRootCommand builds the modkit root command with all subcommands
// attached.
func NewRootCommand() *cobra.Command {
	var modulesRoot string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "modkit",
		Short: "Inspect a modkit modules tree",
		Long: `modkit discovers module directories under a modules root, validates
their manifests and configurations, and reports dependency order and
health without running the embedding application.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&modulesRoot, "modules-root", "m", "./modules",
		"directory containing module directories")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	newLogger := func() modkit.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		return modkit.NewSlogLogger(slog.New(handler))
	}

	rootCmd.AddCommand(
		newListCommand(&modulesRoot, newLogger),
		newValidateCommand(&modulesRoot, newLogger),
		newGraphCommand(&modulesRoot, newLogger),
		newHealthCommand(&modulesRoot, newLogger),
	)

	return rootCmd
}

// discover builds a manager over the modules root and runs discovery.
func discover(cmd *cobra.Command, modulesRoot string, logger modkit.Logger) (*modkit.ModuleManager, error) {
	manager := modkit.NewModuleManager(modulesRoot, modkit.NewHookRegistry(), logger)
	if err := manager.DiscoverModules(cmd.Context()); err != nil {
		return nil, err
	}
	return manager, nil
}
