// Package command implements the command execution and undo framework.
//
// A command is a single, identified, parameterized, potentially undoable
// unit of work. Commands are registered as plugins, resolved by string ID,
// instantiated fresh for every run, and executed through a Runner that
// maintains bounded undo/redo history and per-execution statistics. Hosts
// with a native undo queue get a specialized execution path that keeps the
// in-process history synchronized with native undo chunks.
package command

import "context"

// Status is the result flag a command can set without returning an error,
// mirroring host systems that report failure through status codes.
type Status int

const (
	// StatusSuccess is the default command status.
	StatusSuccess Status = iota
	// StatusError marks the execution as failed even when Do returned nil.
	StatusError
)

// Command is the contract every executable command satisfies. Concrete
// commands embed Base for the optional parts and implement ID and Do.
type Command interface {
	// ID returns the globally unique command identifier, e.g. "scene.renameNode".
	ID() string

	// Description returns human-readable help text for the command.
	Description() string

	// Enabled gates execution. Disabled commands are a silent no-op.
	Enabled() bool

	// Undoable declares whether the command participates in undo/redo.
	Undoable() bool

	// UseUndoChunk declares whether a native-undo host should wrap the
	// execution in an undo chunk. Only consulted for undoable commands.
	UseUndoChunk() bool

	// Schema declares the command arguments. Every argument must carry a
	// default value; the schema is validated at registration time.
	Schema() []ArgSpec

	// Resolve validates or remaps arguments before execution. Returning a
	// CancelError aborts the run silently; any other error propagates.
	Resolve(args *Arguments) error

	// Do performs the command effect and returns its result.
	Do(ctx context.Context, args *Arguments) (any, error)

	// Undo reverses the effect of Do. Only called for undoable commands.
	Undo(ctx context.Context) error

	// Status returns the command result flag set during Do.
	Status() Status

	// Warning returns the warning message set during Resolve, if any. A
	// non-empty warning aborts the run without executing Do.
	Warning() string
}

// Base provides the optional parts of the Command contract with their
// default behavior. Embed it and implement ID and Do.
type Base struct {
	warning  string
	status   Status
	errorMsg string
	stats    *Stats
}

func (b *Base) Description() string { return "" }

func (b *Base) Enabled() bool { return true }

func (b *Base) Undoable() bool { return false }

func (b *Base) UseUndoChunk() bool { return true }

func (b *Base) Schema() []ArgSpec { return nil }

func (b *Base) Resolve(*Arguments) error { return nil }

func (b *Base) Undo(context.Context) error { return nil }

func (b *Base) Status() Status { return b.status }

func (b *Base) Warning() string { return b.warning }

// DisplayWarning records a warning message. Set during Resolve, it makes
// the runner abort the run and surface the message instead of executing.
func (b *Base) DisplayWarning(msg string) {
	b.warning = msg
}

// Fail flags the execution as failed without returning an error from Do.
// The runner converts the flag into an ExecutionError.
func (b *Base) Fail(msg string) {
	b.status = StatusError
	b.errorMsg = msg
}

// ErrorMessage returns the message recorded by Fail.
func (b *Base) ErrorMessage() string { return b.errorMsg }

// AttachStats hands the command the statistics of its current execution.
// The runner calls it once per run, before anything else can fail.
func (b *Base) AttachStats(s *Stats) { b.stats = s }

// Stats returns the statistics of the command's most recent execution, or
// nil when the command never ran.
func (b *Base) Stats() *Stats { return b.stats }

// Cancel returns a CancelError to abort the current run.
func (b *Base) Cancel(msg string) error {
	return &CancelError{Msg: msg}
}

// Factory produces a fresh command instance for a single execution.
// Instances are never reused across distinct argument sets.
type Factory func() Command

// Catalog is the command lookup surface the runner depends on. The plugin
// manager implements it.
type Catalog interface {
	// Find returns the factory registered under the given ID.
	Find(id string) (Factory, bool)

	// CommandIDs returns all registered command IDs, sorted.
	CommandIDs() []string
}
