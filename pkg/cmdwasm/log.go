package cmdwasm

// LogToHost forwards a debug message to the embedding runtime through the
// env module's log_debug import, where the command discovery source routes
// it into the structured log under the plugin's name.
//
//go:wasm-module env
//export log_debug
func LogToHost(string) {}
