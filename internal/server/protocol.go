package server

// Request is one newline-framed JSON message from a client.
type Request struct {
	// Op selects the operation: run, undo, redo, flush, list or help.
	Op string `json:"op"`

	// Command is the command ID for run and help operations.
	Command string `json:"command,omitempty"`

	// Args carries the command arguments for run operations.
	Args map[string]any `json:"args,omitempty"`
}

// Response is the newline-framed JSON reply to a Request.
type Response struct {
	// Status is the two-character status code; "00" is success.
	Status string `json:"status"`

	// Description is the human-readable meaning of the status code.
	Description string `json:"description"`

	// Result carries the operation result on success.
	Result any `json:"result,omitempty"`

	// Error carries the failure detail when the status is not "00".
	Error string `json:"error,omitempty"`
}

// Operations a Request can carry.
const (
	OpRun   = "run"
	OpUndo  = "undo"
	OpRedo  = "redo"
	OpFlush = "flush"
	OpList  = "list"
	OpHelp  = "help"
)
