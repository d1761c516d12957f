package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dccforge/go_dcc/internal/logging"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered command plugins",
		Long:  `List all registered command plugins with their version and description.`,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	// Disable logging for CLI commands that print to stdout.
	logging.Disable()

	env, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()

	// Create tabwriter for aligned output.
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "Command\tVersion\tDescription")
	_, _ = fmt.Fprintln(w, "-------\t-------\t-----------")

	for _, reg := range env.manager.Registry().All() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", reg.ID, reg.Version, reg.Description)
	}

	return w.Flush()
}
