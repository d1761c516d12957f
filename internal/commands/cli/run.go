package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command-id>",
		Short: "Execute a registered command",
		Long: `Execute a registered command by ID with the given arguments.
Arguments are passed as repeated --arg key=value pairs; values parse as
JSON when possible and fall back to plain strings.`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}

	cmd.Flags().StringArray("arg", nil, "command argument as key=value")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	pairs, err := cmd.Flags().GetStringArray("arg")
	if err != nil {
		return err
	}
	kwargs, err := parseArgs(pairs)
	if err != nil {
		return err
	}

	env, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()

	result, err := env.runner.Run(cmd.Context(), args[0], kwargs)
	if err != nil {
		return err
	}
	if result != nil {
		fmt.Fprintln(cmd.OutOrStdout(), formatResult(result))
	}

	return nil
}

// parseArgs turns repeated key=value pairs into a keyword argument map.
// Values parse as JSON when possible so numbers and booleans keep their
// type on the way into the command schema.
func parseArgs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	kwargs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		kwargs[key] = value
	}

	return kwargs, nil
}

func formatResult(result any) string {
	switch v := result.(type) {
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(encoded)
	}
}
