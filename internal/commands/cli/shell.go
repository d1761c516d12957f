package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dccforge/go_dcc/internal/logging"
)

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive command shell",
		Long: `Start an interactive shell to run commands with undo/redo history.

Shell syntax:
  run <command-id> [key=value ...]
  undo | redo | list | flush
  help <command-id>
  quit`,
		RunE: runShell,
	}
}

func runShell(cmd *cobra.Command, _ []string) error {
	// The TUI owns the terminal; keep log output away from it.
	logging.Disable()

	env, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()

	model := newShellModel(cmd.Context(), env)
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("shell failed: %w", err)
	}

	return nil
}

// maxShellLines bounds the scrollback kept in the model.
const maxShellLines = 200

type shellModel struct {
	//nolint:containedctx // Context is stored intentionally, bubbletea updates carry no context.
	ctx   context.Context
	env   *environment
	input string
	lines []string
	done  bool
}

func newShellModel(ctx context.Context, env *environment) shellModel {
	return shellModel{
		ctx: ctx,
		env: env,
		lines: []string{
			"go_dcc interactive shell. Type 'help' for the syntax, 'quit' to leave.",
		},
	}
}

func (m shellModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.done = true

			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input)
			m.input = ""
			if line == "" {
				return m, nil
			}
			m.echo("> " + line)
			if line == "quit" || line == "exit" {
				m.done = true

				return m, tea.Quit
			}
			m.execute(line)
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case "space":
			m.input += " "
		default:
			if len(msg.String()) == 1 {
				m.input += msg.String()
			}
		}
	}

	return m, nil
}

func (m shellModel) View() string {
	if m.done {
		return "bye\n"
	}

	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n(%d undo / %d redo) > %s",
		m.env.runner.UndoAvailable(),
		m.env.runner.RedoAvailable(),
		m.input,
	)

	return b.String()
}

func (m *shellModel) echo(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxShellLines {
		m.lines = m.lines[len(m.lines)-maxShellLines:]
	}
}

// execute interprets one shell line against the runner.
func (m *shellModel) execute(line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "run":
		if len(fields) < 2 {
			m.echo("usage: run <command-id> [key=value ...]")
			return
		}
		kwargs, err := parseArgs(fields[2:])
		if err != nil {
			m.echo("error: " + err.Error())
			return
		}
		result, err := m.env.runner.Run(m.ctx, fields[1], kwargs)
		if err != nil {
			m.echo("error: " + err.Error())
			return
		}
		if result != nil {
			m.echo(formatResult(result))
		} else {
			m.echo("ok")
		}

	case "undo":
		if err := m.env.runner.UndoLast(m.ctx); err != nil {
			m.echo("error: " + err.Error())
			return
		}
		m.echo("undone")

	case "redo":
		result, err := m.env.runner.RedoLast(m.ctx)
		if err != nil {
			m.echo("error: " + err.Error())
			return
		}
		if result != nil {
			m.echo(formatResult(result))
		} else {
			m.echo("redone")
		}

	case "list":
		for _, id := range m.env.runner.CommandIDs() {
			m.echo("  " + id)
		}

	case "help":
		if len(fields) < 2 {
			m.echo("usage: help <command-id>")
			return
		}
		help := m.env.runner.CommandHelp(fields[1])
		if help == "" {
			m.echo("no command found with id " + fields[1])
			return
		}
		for _, line := range strings.Split(strings.TrimRight(help, "\n"), "\n") {
			m.echo(line)
		}

	case "flush":
		if err := m.env.runner.Flush(); err != nil {
			m.echo("error: " + err.Error())
			return
		}
		m.echo("history flushed")

	default:
		m.echo("unknown shell command " + fields[0])
	}
}
