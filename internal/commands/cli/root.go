// Package cli provides the CLI command structure for go_dcc.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dccforge/go_dcc/internal/config"
	"github.com/dccforge/go_dcc/internal/logging"
)

var cfgFile string

// NewRootCommand creates and returns the root command with all subcommands.
func NewRootCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   "go_dcc",
		Short: "Command execution framework for content creation pipelines",
		Long: `A command execution and undo framework for content creation pipelines.
Commands are versioned plugins resolved by ID, executed with validated
arguments and full undo/redo history, inside a host application or standalone.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Initialize configuration before running any command.
			if err := config.Initialize(); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// Bind flags to config so CLI overrides win over the file.
			flags := cmd.Root().PersistentFlags()
			if err := config.BindFlags(map[string]*pflag.Flag{
				"log.level":      flags.Lookup("log-level"),
				"log.format":     flags.Lookup("log-format"),
				"host.name":      flags.Lookup("host"),
				"commands.paths": flags.Lookup("command-path"),
			}); err != nil {
				return err
			}

			cfg := config.Get()
			logging.Init(cfg.Log.Level, cfg.Log.Format)

			return nil
		},
	}

	// Add persistent flags that affect all commands.
	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default is $HOME/.go_dcc/config.yaml)")

	// Add global flags that can override config file settings.
	rootCmd.PersistentFlags().
		String("log-level", "info", "logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "logging format (human, json)")
	rootCmd.PersistentFlags().String("host", "standalone", "host application to run inside")
	rootCmd.PersistentFlags().
		StringSlice("command-path", nil, "path to a command plugin directory or .wasm file")

	// Register all commands.
	if err := RegisterCommands(rootCmd); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	return rootCmd, nil
}
