// Package plugins implements the versioned plugin registry and the
// discovery manager that feeds the command framework.
//
// A plugin is any identified unit of extension; commands are one kind of
// plugin. Plugins are registered under an (id, version) pair, discovered
// from sources (compiled-in Go registrations or out-of-tree WASM modules),
// and loaded on demand with their dependency chain.
package plugins

import (
	"github.com/dccforge/go_dcc/internal/command"
)

// Plugin is the minimal contract a loaded plugin instance satisfies.
type Plugin interface {
	// ID returns the plugin identifier, e.g. "scene.renameNode".
	ID() string
}

// Shutdowner is implemented by plugins that hold resources to release on
// unload.
type Shutdowner interface {
	Shutdown() error
}

// CommandProvider is a plugin that contributes executable commands. The
// manager exposes the factories of every loaded provider to the runner.
type CommandProvider interface {
	Plugin

	// Commands returns the command factories keyed by command ID.
	Commands() map[string]command.Factory
}

// Registration describes a plugin known to the registry: identity,
// version, dependency list, and the constructor producing instances.
type Registration struct {
	ID           string
	Version      string
	Description  string
	Dependencies []string
	New          func() Plugin
}

// commandPlugin wraps a single command factory as a loadable plugin. It is
// what discovery sources produce for command-shaped plugins.
type commandPlugin struct {
	id      string
	factory command.Factory
}

func (p *commandPlugin) ID() string { return p.id }

func (p *commandPlugin) Commands() map[string]command.Factory {
	return map[string]command.Factory{p.id: p.factory}
}

// CommandRegistration builds a Registration for a single command factory.
func CommandRegistration(
	id, version, description string,
	factory command.Factory,
) Registration {
	return Registration{
		ID:          id,
		Version:     version,
		Description: description,
		New: func() Plugin {
			return &commandPlugin{id: id, factory: factory}
		},
	}
}
