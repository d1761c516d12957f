package command

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrRunnerNotInitialized is returned by Execute before InitRunner.
	ErrRunnerNotInitialized = errors.New("command runner not initialized")
)

// CancelError signals an expected, user- or command-initiated abort. It is
// never treated as a failure: the runner swallows it before execution starts
// and propagates it untouched once execution is underway.
type CancelError struct {
	Msg string
}

func (e *CancelError) Error() string {
	if e.Msg == "" {
		return "command cancelled"
	}

	return "command cancelled: " + e.Msg
}

// Cancel returns a CancelError carrying the given message. Commands return
// it from Resolve or Do to abort execution.
func Cancel(msg string) error {
	return &CancelError{Msg: msg}
}

// IsCancel reports whether err is (or wraps) a CancelError.
func IsCancel(err error) bool {
	var cancel *CancelError

	return errors.As(err, &cancel)
}

// ExecutionError is raised by the runner when a command signals failure
// through its status flag without returning an error, so callers have a
// uniform type to catch regardless of how the host reported the failure.
type ExecutionError struct {
	CommandID string
	Msg       string
}

func (e *ExecutionError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("command %q reported an execution failure", e.CommandID)
	}

	return fmt.Sprintf("command %q failed: %s", e.CommandID, e.Msg)
}

// UnknownCommandError is returned when no command is registered under the
// requested ID. The message lists every registered ID.
type UnknownCommandError struct {
	ID         string
	Registered []string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf(
		"no command found with id %q, registered commands: [%s]",
		e.ID,
		strings.Join(e.Registered, ", "),
	)
}

// ContractError signals a structural violation of the command contract,
// such as an argument schema entry without a default value. These are
// programming errors, surfaced at registration time and never retried.
type ContractError struct {
	CommandID string
	Msg       string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("command %q violates the command contract: %s", e.CommandID, e.Msg)
}
