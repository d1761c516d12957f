// Package host abstracts the surrounding content-creation application.
//
// The command framework talks to the host through a small capability
// surface: undo chunk boundaries, the native undo queue, and the ability to
// install and invoke named native commands. Hosts without a native undo
// system (batch mode, tests, standalone tools) use the Null implementation.
package host

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Handler is a callback installed into a host as a native command.
type Handler func(ctx context.Context) (any, error)

// Host is the capability surface a runner needs from the application it
// runs inside.
type Host interface {
	// Name returns the host application name, e.g. "maya" or "standalone".
	Name() string

	// SupportsNativeUndo reports whether the host keeps its own undo queue
	// that the runner must stay synchronized with.
	SupportsNativeUndo() bool

	// OpenUndoChunk opens a named grouping boundary in the host undo queue.
	OpenUndoChunk(name string) error

	// CloseUndoChunk closes the boundary opened with the same name. Open and
	// close calls must always be paired, even on failure.
	CloseUndoChunk(name string) error

	// PopUndo removes the most recent chunk from the host undo queue,
	// matching an in-process undo of the execution that recorded it.
	PopUndo() error

	// FlushUndo clears the host native undo queue.
	FlushUndo() error

	// IsRedoReplay reports whether the host is currently replaying a redo
	// from its native undo queue.
	IsRedoReplay() bool

	// InstallCommand registers a named native command. Installing the same
	// name twice is a no-op.
	InstallCommand(name string, handler Handler) error

	// Invoke executes a previously installed native command by name.
	Invoke(ctx context.Context, name string) (any, error)
}

// Null is a host without a native undo system. It still supports installed
// commands so the same runner wiring works everywhere.
type Null struct {
	name string

	mu       sync.Mutex
	commands map[string]Handler
}

// NewNull returns a host with the given name and no native undo support.
func NewNull(name string) *Null {
	return &Null{name: name, commands: make(map[string]Handler)}
}

func (h *Null) Name() string { return h.name }

func (h *Null) SupportsNativeUndo() bool { return false }

func (h *Null) OpenUndoChunk(string) error { return nil }

func (h *Null) CloseUndoChunk(string) error { return nil }

func (h *Null) PopUndo() error { return nil }

func (h *Null) FlushUndo() error { return nil }

func (h *Null) IsRedoReplay() bool { return false }

func (h *Null) InstallCommand(name string, handler Handler) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.commands[name]; ok {
		return nil
	}
	h.commands[name] = handler

	return nil
}

func (h *Null) Invoke(ctx context.Context, name string) (any, error) {
	h.mu.Lock()
	handler, ok := h.commands[name]
	h.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("host %q has no command %q installed", h.name, name)
	}

	return handler(ctx)
}

var (
	registryMu sync.Mutex
	registry   = map[string]func() Host{}
)

// RegisterHost registers a host constructor under a name. Later
// registrations with the same name replace earlier ones.
func RegisterHost(name string, constructor func() Host) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = constructor
}

// New returns the host registered under name, falling back to a Null host
// when the name is unknown.
func New(name string) Host {
	registryMu.Lock()
	constructor, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return NewNull(name)
	}

	return constructor()
}

// Names returns the registered host names in sorted order.
func Names() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
