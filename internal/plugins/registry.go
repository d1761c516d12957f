package plugins

import (
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
)

// DefaultVersion is assumed for registrations that declare no version.
const DefaultVersion = "0.1.0"

// Registry indexes plugin registrations by (id, version). Versions are
// semantic; lookups without an explicit version resolve to the highest
// registered one.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]map[string]Registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]map[string]Registration)}
}

// Register adds a registration to the index. An empty ID is a warned
// no-op, an unparseable version is warned and skipped, and a duplicate
// (id, version) overwrites the previous entry with a warning.
func (r *Registry) Register(reg Registration) {
	if reg.ID == "" {
		log.Warn().
			Str("event", "plugin_register_skipped").
			Msg("skipping plugin registration with empty ID")

		return
	}
	if reg.Version == "" {
		reg.Version = DefaultVersion
	}
	if _, err := semver.NewVersion(reg.Version); err != nil {
		log.Warn().
			Str("event", "plugin_register_skipped").
			Str("plugin", reg.ID).
			Str("version", reg.Version).
			Err(err).
			Msg("skipping plugin registration with unparseable version")

		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	versions, ok := r.entries[reg.ID]
	if !ok {
		versions = make(map[string]Registration)
		r.entries[reg.ID] = versions
	}
	if _, exists := versions[reg.Version]; exists {
		log.Warn().
			Str("event", "plugin_overwritten").
			Str("plugin", reg.ID).
			Str("version", reg.Version).
			Msg("plugin already registered under this version, overwriting")
	}
	versions[reg.Version] = reg
}

// Get returns the highest-versioned registration for id.
func (r *Registry) Get(id string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions, ok := r.entries[id]
	if !ok || len(versions) == 0 {
		return Registration{}, false
	}

	var best Registration
	var bestVersion *semver.Version
	for raw, reg := range versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if bestVersion == nil || v.GreaterThan(bestVersion) {
			bestVersion = v
			best = reg
		}
	}
	if bestVersion == nil {
		return Registration{}, false
	}

	return best, true
}

// GetVersion returns the registration under an exact (id, version) pair.
func (r *Registry) GetVersion(id, version string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions, ok := r.entries[id]
	if !ok {
		return Registration{}, false
	}
	reg, ok := versions[version]

	return reg, ok
}

// IDs returns all registered plugin IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Versions returns the registered versions of id, sorted ascending.
func (r *Registry) Versions(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	raw := r.entries[id]
	parsed := make([]*semver.Version, 0, len(raw))
	for s := range raw {
		if v, err := semver.NewVersion(s); err == nil {
			parsed = append(parsed, v)
		}
	}
	sort.Sort(semver.Collection(parsed))
	out := make([]string, 0, len(parsed))
	for _, v := range parsed {
		out = append(out, v.Original())
	}

	return out
}

// All returns the highest-versioned registration of every plugin, sorted
// by ID.
func (r *Registry) All() []Registration {
	ids := r.IDs()
	out := make([]Registration, 0, len(ids))
	for _, id := range ids {
		if reg, ok := r.Get(id); ok {
			out = append(out, reg)
		}
	}

	return out
}
