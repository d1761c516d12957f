// Package cli provides centralized command registration.
package cli

import (
	"github.com/spf13/cobra"
)

// RegisterCommands registers all root commands.
func RegisterCommands(root *cobra.Command) error {
	root.AddCommand(NewRunCommand())
	root.AddCommand(NewListCommand())
	root.AddCommand(NewInfoCommand())
	root.AddCommand(NewServeCommand())
	root.AddCommand(NewShellCommand())

	return nil
}
