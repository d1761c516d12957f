package command

import (
	"errors"
	"sync"
)

// Bridge errors.
var (
	// ErrBridgeBusy is returned when a claim is attempted while another
	// execution holds the slot. Nested native invocation is unsupported and
	// must fail loudly rather than corrupt the slot.
	ErrBridgeBusy = errors.New("another command execution is already in flight")

	// ErrBridgeEmpty is returned when the native side invokes the bridge
	// with no execution claimed.
	ErrBridgeEmpty = errors.New("no command execution in flight")
)

// Bridge is the single-slot handoff between the runner and a host whose
// native command invocation cannot carry objects across the call boundary.
// The runner claims the slot with the in-flight execution, asks the host to
// invoke the bridge command by name, and the bridge handler recovers the
// live execution from the slot. One execution may be in flight at a time.
type Bridge struct {
	mu      sync.Mutex
	current *execution
}

// Claim publishes the execution to the slot. Fails with ErrBridgeBusy when
// another execution is already claimed.
func (b *Bridge) Claim(e *execution) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil {
		return ErrBridgeBusy
	}
	b.current = e

	return nil
}

// Release clears the slot. Safe to call when nothing is claimed.
func (b *Bridge) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
}

// Current returns the claimed execution, or ErrBridgeEmpty.
func (b *Bridge) Current() (*execution, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil, ErrBridgeEmpty
	}

	return b.current, nil
}
