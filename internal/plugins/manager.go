package plugins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dccforge/go_dcc/internal/command"
)

// DefaultPathsEnv is the environment variable holding extra plugin search
// paths, separated by the OS path-list separator.
const DefaultPathsEnv = "TP_DCC_COMMAND_PATHS"

// LoadCallback fires after a plugin instance is constructed and cached.
type LoadCallback func(p Plugin)

// Manager owns the registry, the discovery sources and the loaded plugin
// instances. It implements command.Catalog: the commands of every loaded
// CommandProvider are visible to the runner.
type Manager struct {
	//nolint:containedctx // Context is stored intentionally for WASM source construction.
	ctx      context.Context
	registry *Registry

	mu        sync.RWMutex
	sources   []Source
	seenPaths map[string]struct{}
	loaded    map[string]Plugin
	commands  map[string]command.Factory
	onLoad    []LoadCallback
}

// NewManager returns a manager with an empty registry.
func NewManager(ctx context.Context) *Manager {
	return &Manager{
		ctx:       ctx,
		registry:  NewRegistry(),
		seenPaths: make(map[string]struct{}),
		loaded:    make(map[string]Plugin),
		commands:  make(map[string]command.Factory),
	}
}

// Registry exposes the underlying registration index.
func (m *Manager) Registry() *Registry { return m.registry }

// OnLoad registers a callback fired for every plugin instance the manager
// constructs.
func (m *Manager) OnLoad(cb LoadCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLoad = append(m.onLoad, cb)
}

// Register validates and indexes a registration. Command providers are
// probed once so contract violations (missing factories, schema entries
// without defaults) surface at registration time rather than on first run.
// Registrations without a constructor are warned and skipped.
func (m *Manager) Register(reg Registration) error {
	if reg.New == nil {
		log.Warn().
			Str("event", "plugin_register_skipped").
			Str("plugin", reg.ID).
			Msg("registration has no constructor")

		return nil
	}
	if reg.ID != "" {
		probe := reg.New()
		if provider, ok := probe.(CommandProvider); ok {
			for id, factory := range provider.Commands() {
				if factory == nil {
					return &command.ContractError{CommandID: id, Msg: "nil command factory"}
				}
				cmd := factory()
				if err := command.ValidateSchema(id, cmd.Schema()); err != nil {
					return err
				}
			}
		}
	}
	m.registry.Register(reg)

	return nil
}

// RegisterSource registers a discovery source, registers everything it
// discovers, and loads the discovered command plugins so they are
// immediately runnable.
func (m *Manager) RegisterSource(src Source) error {
	m.mu.Lock()
	m.sources = append(m.sources, src)
	m.mu.Unlock()

	regs, err := src.Discover()
	if err != nil {
		return err
	}
	for _, reg := range regs {
		if err := m.Register(reg); err != nil {
			log.Warn().
				Str("event", "plugin_register_failed").
				Str("source", src.Name()).
				Str("plugin", reg.ID).
				Err(err).
				Msg("skipping discovered plugin")

			continue
		}
		if _, err := m.Load(reg.ID); err != nil {
			log.Warn().
				Str("event", "plugin_load_failed").
				Str("source", src.Name()).
				Str("plugin", reg.ID).
				Err(err).
				Msg("discovered plugin failed to load")
		}
	}

	return nil
}

// RegisterPath registers the plugins found at a filesystem path: a
// directory is walked for .wasm command modules, a file is loaded on its
// own. Paths are deduplicated by canonical form; repeated registrations
// are a no-op. Unreadable or unsupported paths are warned and skipped,
// never an error.
func (m *Manager) RegisterPath(path string) error {
	canonical, err := filepath.Abs(path)
	if err != nil {
		canonical = path
	}
	if resolved, err := filepath.EvalSymlinks(canonical); err == nil {
		canonical = resolved
	}

	m.mu.Lock()
	if _, seen := m.seenPaths[canonical]; seen {
		m.mu.Unlock()
		return nil
	}
	m.seenPaths[canonical] = struct{}{}
	m.mu.Unlock()

	info, err := os.Stat(canonical)
	if err != nil {
		log.Warn().
			Str("event", "plugin_path_skipped").
			Str("path", path).
			Err(err).
			Msg("unreadable plugin path, skipping")

		return nil
	}
	if !info.IsDir() && filepath.Ext(canonical) != ".wasm" {
		log.Warn().
			Str("event", "plugin_path_skipped").
			Str("path", path).
			Msg("unsupported plugin path, expected a directory or .wasm file")

		return nil
	}

	return m.RegisterSource(NewWASMSource(m.ctx, canonical))
}

// RegisterPaths registers each path in order. Individual failures are
// logged and skipped so one bad path cannot block the rest.
func (m *Manager) RegisterPaths(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := m.RegisterPath(path); err != nil {
			log.Warn().
				Str("event", "plugin_path_failed").
				Str("path", path).
				Err(err).
				Msg("failed to register plugin path")
		}
	}
}

// RegisterEnvironmentPaths reads extra search paths from the named
// environment variable, split on the OS path-list separator. An empty
// name reads DefaultPathsEnv.
func (m *Manager) RegisterEnvironmentPaths(envVar string) {
	if envVar == "" {
		envVar = DefaultPathsEnv
	}
	value := os.Getenv(envVar)
	if value == "" {
		return
	}
	m.RegisterPaths(strings.Split(value, string(os.PathListSeparator)))
}

// Load constructs and caches the instance of the highest-versioned
// registration of id, loading its dependency chain first. Loading an
// already loaded plugin returns the cached instance.
func (m *Manager) Load(id string) (Plugin, error) {
	return m.load(id, make(map[string]struct{}))
}

// LoadVersion is Load pinned to an exact registered version.
func (m *Manager) LoadVersion(id, version string) (Plugin, error) {
	m.mu.RLock()
	cached, ok := m.loaded[id]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	reg, ok := m.registry.GetVersion(id, version)
	if !ok {
		return nil, &command.UnknownCommandError{ID: id, Registered: m.registry.IDs()}
	}

	return m.instantiate(reg, make(map[string]struct{}))
}

func (m *Manager) load(id string, visiting map[string]struct{}) (Plugin, error) {
	m.mu.RLock()
	cached, ok := m.loaded[id]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	reg, ok := m.registry.Get(id)
	if !ok {
		return nil, &command.UnknownCommandError{ID: id, Registered: m.registry.IDs()}
	}

	return m.instantiate(reg, visiting)
}

func (m *Manager) instantiate(reg Registration, visiting map[string]struct{}) (Plugin, error) {
	if reg.New == nil {
		return nil, fmt.Errorf("plugin %q has no constructor", reg.ID)
	}

	visiting[reg.ID] = struct{}{}
	for _, dep := range reg.Dependencies {
		if _, cycling := visiting[dep]; cycling {
			continue
		}
		if _, ok := m.registry.Get(dep); !ok {
			return nil, &DependencyError{PluginID: reg.ID, Dependency: dep}
		}
		if _, err := m.load(dep, visiting); err != nil {
			return nil, err
		}
	}

	instance := reg.New()

	m.mu.Lock()
	m.loaded[reg.ID] = instance
	if provider, ok := instance.(CommandProvider); ok {
		for id, factory := range provider.Commands() {
			if factory == nil {
				continue
			}
			m.commands[id] = factory
		}
	}
	callbacks := make([]LoadCallback, len(m.onLoad))
	copy(callbacks, m.onLoad)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(instance)
	}
	log.Debug().
		Str("event", "plugin_loaded").
		Str("plugin", reg.ID).
		Str("version", reg.Version).
		Msg("plugin loaded")

	return instance, nil
}

// Unload drops the cached instance of id, removes its commands from the
// catalog and calls Shutdown when the instance implements it. Unloading
// an unloaded plugin is a no-op.
func (m *Manager) Unload(id string) error {
	m.mu.Lock()
	instance, ok := m.loaded[id]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.loaded, id)
	if provider, isProvider := instance.(CommandProvider); isProvider {
		for cmdID := range provider.Commands() {
			delete(m.commands, cmdID)
		}
	}
	m.mu.Unlock()

	if closer, isCloser := instance.(Shutdowner); isCloser {
		if err := closer.Shutdown(); err != nil {
			return err
		}
	}
	log.Debug().
		Str("event", "plugin_unloaded").
		Str("plugin", id).
		Msg("plugin unloaded")

	return nil
}

// Loaded reports whether the plugin is currently instantiated.
func (m *Manager) Loaded(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.loaded[id]

	return ok
}

// Find returns the command factory registered under id. Part of the
// command.Catalog contract.
func (m *Manager) Find(id string) (command.Factory, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	factory, ok := m.commands[id]

	return factory, ok
}

// CommandIDs returns the IDs of every loaded command, sorted. Part of the
// command.Catalog contract.
func (m *Manager) CommandIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.commands))
	for id := range m.commands {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Close unloads every loaded plugin and shuts down closable sources.
func (m *Manager) Close() error {
	m.mu.RLock()
	ids := make([]string, 0, len(m.loaded))
	for id := range m.loaded {
		ids = append(ids, id)
	}
	sources := make([]Source, len(m.sources))
	copy(sources, m.sources)
	m.mu.RUnlock()

	var firstErr error
	for _, id := range ids {
		if err := m.Unload(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, src := range sources {
		if closer, ok := src.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
