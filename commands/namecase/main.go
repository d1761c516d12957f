// Command namecase is an example WASM command plugin: it case-folds a
// string and remembers the previous result so the operation can be undone.
//
// Build with: GOOS=wasip1 GOARCH=wasm go build -o namecase.wasm ./commands/namecase
package main

import (
	"strings"

	"github.com/dccforge/go_dcc/pkg/cmdwasm"
)

// lastInput holds the previous value so Undo can report what it reverted.
var lastInput string

//export Alloc
func Alloc(size uint32) uint32 {
	return cmdwasm.Alloc(size)
}

//export Free
func Free(ptr uint32) {
	cmdwasm.Free(ptr)
}

//export CommandID
func CommandID() uint64 {
	return cmdwasm.WriteString("text.namecase")
}

//export CommandVersion
func CommandVersion() uint64 {
	return cmdwasm.WriteString("1.2.0")
}

//export Description
func Description() uint64 {
	return cmdwasm.WriteString("Case-fold a string to upper, lower or title case.")
}

//export Schema
func Schema() uint64 {
	return cmdwasm.WriteString(
		`[{"name":"text","default":""},{"name":"mode","default":"title"}]`,
	)
}

//export Undoable
func Undoable() uint32 {
	return 1
}

//export Execute
func Execute(packed uint64) uint64 {
	cmdwasm.ResetAllocator()

	ptr, length := cmdwasm.UnpackInput(packed)
	args, err := cmdwasm.ReadArguments(ptr, length)
	if err != nil {
		return cmdwasm.WriteError("invalid arguments: " + err.Error())
	}

	text, _ := args["text"].(string)
	mode, _ := args["mode"].(string)

	var out string
	switch mode {
	case "upper":
		out = strings.ToUpper(text)
	case "lower":
		out = strings.ToLower(text)
	case "title":
		out = titleCase(text)
	default:
		return cmdwasm.WriteError("unknown mode " + mode)
	}

	lastInput = text
	cmdwasm.LogToHost("namecase executed: " + mode)

	return cmdwasm.WriteResult(out)
}

//export Undo
func Undo(packed uint64) uint64 {
	cmdwasm.ResetAllocator()
	_ = packed

	reverted := lastInput
	lastInput = ""

	return cmdwasm.WriteResult(reverted)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}

	return strings.Join(words, " ")
}

func main() {}
