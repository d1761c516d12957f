package cmdwasm

import "unsafe"

// ReadBytes returns the length bytes of module linear memory starting at
// ptr. The slice aliases guest memory; it stays valid only until the
// allocator is reset.
//
//nolint:gosec,govet // ptr is a linear-memory offset handed out by Alloc, the conversion is required at the module boundary.
func ReadBytes(ptr, length uint32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
}

// WriteBytes copies data into module linear memory at ptr. The destination
// must have been allocated with at least len(data) bytes.
func WriteBytes(ptr uint32, data []byte) {
	copy(ReadBytes(ptr, uint32(len(data))), data)
}
