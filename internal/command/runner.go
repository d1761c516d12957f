package command

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dccforge/go_dcc/internal/host"
	"github.com/dccforge/go_dcc/internal/logging"
)

// DefaultUndoLimit bounds the undo/redo history when no limit is configured.
const DefaultUndoLimit = 100

// execution binds one command instance to the arguments, statistics and
// result of a single run. Entries on the undo/redo stacks are executions.
type execution struct {
	cmd    Command
	args   *Arguments
	stats  *Stats
	result any
}

// Options configures a Runner.
type Options struct {
	// UndoLimit bounds both history stacks. Zero means DefaultUndoLimit.
	UndoLimit int
}

// Runner resolves, validates, executes and bookkeeps command invocations
// for one host. Execution is strictly sequential: Run, UndoLast and
// RedoLast are mutually exclusive.
type Runner struct {
	host    host.Host
	catalog Catalog
	exec    func(ctx context.Context, e *execution) (any, error)
	bridge  *Bridge

	mu        sync.Mutex
	undoStack []*execution
	redoStack []*execution
	undoLimit int
}

// NewRunner returns a runner for the given host. Hosts reporting native
// undo support get the chunked, bridge-driven execution path; all others
// execute commands directly.
func NewRunner(h host.Host, catalog Catalog, opts Options) (*Runner, error) {
	limit := opts.UndoLimit
	if limit <= 0 {
		limit = DefaultUndoLimit
	}
	r := &Runner{host: h, catalog: catalog, undoLimit: limit}
	if h.SupportsNativeUndo() {
		r.bridge = &Bridge{}
		if err := h.InstallCommand(BridgeCommandName, r.bridgeHandler); err != nil {
			return nil, fmt.Errorf("installing bridge command: %w", err)
		}
		r.exec = r.execNative
	} else {
		r.exec = r.execDirect
	}

	return r, nil
}

// Host returns the host this runner executes inside.
func (r *Runner) Host() host.Host { return r.host }

// Run executes the command registered under id with the given arguments.
//
// Disabled commands, cancellation during argument resolution and the
// warning gate all return (nil, nil). Every other failure propagates to
// the caller after the statistics are finished and the failure is logged.
func (r *Runner) Run(ctx context.Context, id string, kwargs map[string]any) (any, error) {
	factory, ok := r.catalog.Find(id)
	if !ok {
		return nil, &UnknownCommandError{ID: id, Registered: r.catalog.CommandIDs()}
	}

	cmd := factory()
	e := &execution{cmd: cmd, stats: NewStats(cmd, r.host.Name())}
	attachStats(cmd, e.stats)

	var runErr error
	defer func() {
		trace := ""
		if runErr != nil && !IsCancel(runErr) {
			trace = runErr.Error()
		}
		e.stats.Finish(trace)
	}()

	if !cmd.Enabled() {
		return nil, nil
	}

	args := NewArguments(cmd.Schema())
	if err := args.Merge(kwargs); err != nil {
		runErr = err
		return nil, runErr
	}
	if err := cmd.Resolve(args); err != nil {
		if IsCancel(err) {
			// Nothing has executed yet, cancellation is not a failure.
			return nil, nil
		}
		runErr = err
		return nil, runErr
	}
	if warning := cmd.Warning(); warning != "" {
		log.Warn().
			Str("event", "command_warning").
			Str("command", id).
			Msg(warning)

		return nil, nil
	}
	e.args = args

	result, err := r.exec(ctx, e)
	if err == nil && cmd.Status() == StatusError {
		err = &ExecutionError{CommandID: id, Msg: errorMessage(cmd)}
	}
	if err != nil {
		runErr = err
		if !IsCancel(err) {
			log.Error().
				Str("event", "command_failed").
				Str("command", id).
				Str("execution_id", e.stats.ExecutionID).
				Err(err).
				Msg("command execution failed")
		}

		return nil, runErr
	}

	if cmd.Undoable() {
		r.pushUndo(e)
	}
	logging.LogExecution(id, e.stats.ExecutionID, e.stats.Duration, cmd.Undoable())

	return result, nil
}

// UndoLast reverses the most recent undoable execution and moves it to the
// redo stack. On native-undo hosts the matching chunk is popped from the
// host queue as well. Returns ErrNothingToUndo when the history is empty.
func (r *Runner) UndoLast(ctx context.Context) error {
	r.mu.Lock()
	if len(r.undoStack) == 0 {
		r.mu.Unlock()
		return ErrNothingToUndo
	}
	e := r.undoStack[len(r.undoStack)-1]
	r.undoStack = r.undoStack[:len(r.undoStack)-1]
	r.mu.Unlock()

	if err := e.cmd.Undo(ctx); err != nil {
		// Keep the entry so the caller can retry or inspect.
		r.mu.Lock()
		r.undoStack = append(r.undoStack, e)
		r.mu.Unlock()

		return err
	}

	r.mu.Lock()
	r.redoStack = append(r.redoStack, e)
	r.mu.Unlock()

	if r.host.SupportsNativeUndo() {
		// The chunk recorded for this execution must leave the native queue
		// with it. The in-process undo has already taken effect, so the
		// entry stays on the redo stack even when the pop fails.
		if err := r.host.PopUndo(); err != nil {
			return err
		}
	}
	logging.LogUndo("command_undone", e.cmd.ID())

	return nil
}

// RedoLast re-executes the most recently undone command and moves it back
// to the undo stack, returning its result. Returns ErrNothingToRedo when
// the redo stack is empty.
func (r *Runner) RedoLast(ctx context.Context) (any, error) {
	r.mu.Lock()
	if len(r.redoStack) == 0 {
		r.mu.Unlock()
		return nil, ErrNothingToRedo
	}
	e := r.redoStack[len(r.redoStack)-1]
	r.redoStack = r.redoStack[:len(r.redoStack)-1]
	r.mu.Unlock()

	e.stats = NewStats(e.cmd, r.host.Name())
	attachStats(e.cmd, e.stats)

	var runErr error
	defer func() {
		trace := ""
		if runErr != nil && !IsCancel(runErr) {
			trace = runErr.Error()
		}
		e.stats.Finish(trace)
	}()

	result, err := r.exec(ctx, e)
	if err != nil {
		// The entry is dropped from both stacks, matching forward
		// execution: a failed command never owns history entries.
		runErr = err

		return nil, runErr
	}

	if e.cmd.Undoable() {
		r.pushUndo(e)
	}
	logging.LogUndo("command_redone", e.cmd.ID())

	return result, nil
}

// CommandIDs returns the IDs of every registered command, sorted.
func (r *Runner) CommandIDs() []string {
	return r.catalog.CommandIDs()
}

// FindCommand returns the factory registered under id, or nil.
func (r *Runner) FindCommand(id string) Factory {
	factory, ok := r.catalog.Find(id)
	if !ok {
		return nil
	}

	return factory
}

// CommandHelp formats help text for the command registered under id,
// derived from its description and argument schema. Returns "" when the
// command is unknown.
func (r *Runner) CommandHelp(id string) string {
	factory, ok := r.catalog.Find(id)
	if !ok {
		return ""
	}

	cmd := factory()
	var b strings.Builder
	fmt.Fprintf(&b, "Command: %s\n", cmd.ID())
	if desc := cmd.Description(); desc != "" {
		fmt.Fprintf(&b, "%s\n", desc)
	}
	schema := cmd.Schema()
	if len(schema) > 0 {
		b.WriteString("Arguments:\n")
		for _, spec := range schema {
			fmt.Fprintf(&b, "  %s (default: %v)\n", spec.Name, spec.Default)
		}
	}

	return b.String()
}

// Flush clears the undo/redo history. On native-undo hosts the host undo
// queue is cleared as well so the two never diverge.
func (r *Runner) Flush() error {
	r.mu.Lock()
	r.undoStack = nil
	r.redoStack = nil
	r.mu.Unlock()

	if r.host.SupportsNativeUndo() {
		return r.host.FlushUndo()
	}

	return nil
}

// UndoAvailable returns the number of executions on the undo stack.
func (r *Runner) UndoAvailable() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.undoStack)
}

// RedoAvailable returns the number of executions on the redo stack.
func (r *Runner) RedoAvailable() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.redoStack)
}

// Cancel returns a CancelError for callers aborting on behalf of a command.
func (r *Runner) Cancel(msg string) error {
	return &CancelError{Msg: msg}
}

func (r *Runner) execDirect(ctx context.Context, e *execution) (any, error) {
	result, err := e.cmd.Do(ctx, e.args)
	if err != nil {
		return nil, err
	}
	e.result = result

	return result, nil
}

func (r *Runner) pushUndo(e *execution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.undoStack = append(r.undoStack, e)
	if len(r.undoStack) > r.undoLimit {
		excess := len(r.undoStack) - r.undoLimit
		r.undoStack = r.undoStack[excess:]
	}
}

func (r *Runner) popRedo() *execution {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.redoStack) == 0 {
		return nil
	}
	e := r.redoStack[len(r.redoStack)-1]
	r.redoStack = r.redoStack[:len(r.redoStack)-1]

	return e
}

// attachStats hands the execution statistics to commands that keep a
// reference through the Base embedding.
func attachStats(cmd Command, s *Stats) {
	type holder interface{ AttachStats(*Stats) }
	if h, ok := cmd.(holder); ok {
		h.AttachStats(s)
	}
}

// errorMessage extracts the Fail message when the concrete command exposes
// one through the Base embedding.
func errorMessage(cmd Command) string {
	type failer interface{ ErrorMessage() string }
	if f, ok := cmd.(failer); ok {
		return f.ErrorMessage()
	}

	return ""
}
