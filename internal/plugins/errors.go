package plugins

import "fmt"

// DependencyError is returned by Load when a plugin names a dependency
// that is not registered.
type DependencyError struct {
	PluginID   string
	Dependency string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf(
		"plugin %q depends on %q, which is not registered",
		e.PluginID, e.Dependency,
	)
}

// LoadError wraps a failure while loading a plugin from a source.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading plugins from %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
