// Package statuscodes defines the wire status codes of the command service
// using a structured type. StatusCode holds the two-character code and a
// human-readable description.
package statuscodes

// Predefined status code instances.
var (
	OK             = StatusCode{"00", "No error"}
	UnknownCommand = StatusCode{"01", "No command registered under the requested ID"}
	InvalidRequest = StatusCode{"02", "Malformed request or unknown operation"}
	InvalidArgs    = StatusCode{"03", "Arguments rejected by the command schema"}
	ExecFailed     = StatusCode{"04", "Command execution failed"}
	NothingToUndo  = StatusCode{"05", "Undo history is empty"}
	NothingToRedo  = StatusCode{"06", "Redo history is empty"}
	Internal       = StatusCode{"99", "Internal service error"}
)

// StatusCode pairs a two-character wire code with its description.
type StatusCode struct {
	Code        string
	Description string
}

// CodeOnly returns just the two-character code.
func (c StatusCode) CodeOnly() string { return c.Code }

func (c StatusCode) String() string {
	return c.Code + ": " + c.Description
}
