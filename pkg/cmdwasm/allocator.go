// Package cmdwasm provides helper functions for WASM command plugins.
//
// A command plugin is a WebAssembly module exporting Alloc, Free,
// CommandID, CommandVersion and Execute, plus optionally Description,
// Schema, Undoable and Undo. String results cross the boundary as packed
// ptr<<32|len values pointing into the module's linear memory.
package cmdwasm

var nextPtr uint32

// ResetAllocator resets the allocator to the initial memory offset. Call
// it at the top of Execute so each invocation starts from a clean heap.
func ResetAllocator() {
	nextPtr = 8
}

// Alloc allocates n bytes with 8-byte alignment and returns the starting
// pointer.
func Alloc(n uint32) uint32 {
	if nextPtr == 0 {
		nextPtr = 8
	}
	ptr := nextPtr
	padding := (8 - n%8) % 8
	nextPtr += n + padding

	return ptr
}

// Free releases the memory at ptr.
// Currently a no-op.
func Free(ptr uint32) {
	_ = ptr
}
