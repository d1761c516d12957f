// Package scene implements the in-memory node graph the built-in commands
// operate on. It is deliberately small: named nodes with typed attributes,
// every mutation returning enough prior state for the caller to reverse it.
package scene

import (
	"fmt"
	"sort"
	"sync"
)

// Scene is a flat collection of named nodes. Safe for concurrent use.
type Scene struct {
	mu    sync.Mutex
	nodes map[string]map[string]any
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{nodes: make(map[string]map[string]any)}
}

// CreateNode adds a node with the given attributes. Fails when the name is
// empty or already taken.
func (s *Scene) CreateNode(name string, attrs map[string]any) error {
	if name == "" {
		return fmt.Errorf("node name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[name]; exists {
		return fmt.Errorf("node %q already exists", name)
	}
	node := make(map[string]any, len(attrs))
	for k, v := range attrs {
		node[k] = v
	}
	s.nodes[name] = node

	return nil
}

// DeleteNode removes a node and returns its attributes so the deletion can
// be undone.
func (s *Scene) DeleteNode(name string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, exists := s.nodes[name]
	if !exists {
		return nil, fmt.Errorf("node %q does not exist", name)
	}
	delete(s.nodes, name)

	return node, nil
}

// RenameNode changes a node's name. Fails when the source is missing or
// the target name is taken.
func (s *Scene) RenameNode(from, to string) error {
	if to == "" {
		return fmt.Errorf("node name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	node, exists := s.nodes[from]
	if !exists {
		return fmt.Errorf("node %q does not exist", from)
	}
	if _, taken := s.nodes[to]; taken {
		return fmt.Errorf("node %q already exists", to)
	}
	delete(s.nodes, from)
	s.nodes[to] = node

	return nil
}

// SetAttribute sets one attribute on a node, returning the prior value and
// whether the attribute previously existed.
func (s *Scene) SetAttribute(node, attr string, value any) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs, exists := s.nodes[node]
	if !exists {
		return nil, false, fmt.Errorf("node %q does not exist", node)
	}
	prior, had := attrs[attr]
	attrs[attr] = value

	return prior, had, nil
}

// UnsetAttribute removes an attribute from a node. Missing attributes are
// a no-op.
func (s *Scene) UnsetAttribute(node, attr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs, exists := s.nodes[node]
	if !exists {
		return fmt.Errorf("node %q does not exist", node)
	}
	delete(attrs, attr)

	return nil
}

// Attribute returns one attribute value of a node.
func (s *Scene) Attribute(node, attr string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs, exists := s.nodes[node]
	if !exists {
		return nil, false
	}
	value, ok := attrs[attr]

	return value, ok
}

// Exists reports whether a node is present.
func (s *Scene) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[name]

	return ok
}

// Names returns all node names, sorted.
func (s *Scene) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Len returns the number of nodes.
func (s *Scene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.nodes)
}
