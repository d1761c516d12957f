// Package cmdwasm provides helper functions for WASM command plugins.
package cmdwasm

import "encoding/json"

// PackResult combines a pointer and a length into a single uint64 result.
func PackResult(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}

// UnpackInput splits the packed ptr<<32|len argument Execute receives.
func UnpackInput(combined uint64) (uint32, uint32) {
	return uint32(combined >> 32), uint32(combined)
}

// WriteString copies a string into guest memory and returns the packed
// result. Metadata exports (CommandID, CommandVersion, Description,
// Schema) are one call each.
func WriteString(s string) uint64 {
	data := []byte(s)
	ptr := Alloc(uint32(len(data)))
	WriteBytes(ptr, data)

	return PackResult(ptr, uint32(len(data)))
}

// ReadArguments decodes the JSON argument map Execute receives.
func ReadArguments(ptr, length uint32) (map[string]any, error) {
	args := make(map[string]any)
	if length == 0 {
		return args, nil
	}
	if err := json.Unmarshal(ReadBytes(ptr, length), &args); err != nil {
		return nil, err
	}

	return args, nil
}

// envelope is the JSON response shape the host expects from Execute and
// Undo.
type envelope struct {
	Result any    `json:"result"`
	Error  string `json:"error"`
}

// WriteResult encodes a success envelope into guest memory and returns the
// packed result.
func WriteResult(result any) uint64 {
	data, err := json.Marshal(envelope{Result: result})
	if err != nil {
		return WriteError("failed to encode result: " + err.Error())
	}
	ptr := Alloc(uint32(len(data)))
	WriteBytes(ptr, data)

	return PackResult(ptr, uint32(len(data)))
}

// WriteError encodes a failure envelope into guest memory and returns the
// packed result.
func WriteError(msg string) uint64 {
	data, err := json.Marshal(envelope{Error: msg})
	if err != nil {
		// Fall back to a minimal hand-built envelope.
		data = []byte(`{"result":null,"error":"internal plugin error"}`)
	}
	ptr := Alloc(uint32(len(data)))
	WriteBytes(ptr, data)

	return PackResult(ptr, uint32(len(data)))
}
