package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dccforge/go_dcc/internal/logging"
)

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <command-id>",
		Short: "Show detailed information about a command",
		Long:  `Show the description, versions and argument schema of a registered command.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	logging.Disable()

	env, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()

	id := args[0]
	help := env.runner.CommandHelp(id)
	if help == "" {
		return fmt.Errorf("no command found with id %q", id)
	}

	fmt.Fprint(cmd.OutOrStdout(), help)
	if versions := env.manager.Registry().Versions(id); len(versions) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Versions: %s\n", strings.Join(versions, ", "))
	}

	return nil
}
