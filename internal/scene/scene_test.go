package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneCreateDelete(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.CreateNode("cube1", map[string]any{"type": "mesh"}))
	assert.True(t, s.Exists("cube1"))
	assert.Equal(t, 1, s.Len())

	// Duplicate and empty names are rejected.
	require.Error(t, s.CreateNode("cube1", nil))
	require.Error(t, s.CreateNode("", nil))

	attrs, err := s.DeleteNode("cube1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "mesh"}, attrs)
	assert.False(t, s.Exists("cube1"))

	_, err = s.DeleteNode("cube1")
	require.Error(t, err)
}

func TestSceneRename(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.CreateNode("old", map[string]any{"type": "light"}))
	require.NoError(t, s.CreateNode("taken", nil))

	require.Error(t, s.RenameNode("missing", "x"))
	require.Error(t, s.RenameNode("old", "taken"))
	require.Error(t, s.RenameNode("old", ""))

	require.NoError(t, s.RenameNode("old", "new"))
	assert.False(t, s.Exists("old"))
	value, ok := s.Attribute("new", "type")
	require.True(t, ok)
	assert.Equal(t, "light", value)
}

func TestSceneAttributes(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.CreateNode("node", nil))

	prior, had, err := s.SetAttribute("node", "visible", true)
	require.NoError(t, err)
	assert.False(t, had)
	assert.Nil(t, prior)

	prior, had, err = s.SetAttribute("node", "visible", false)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, true, prior)

	require.NoError(t, s.UnsetAttribute("node", "visible"))
	_, ok := s.Attribute("node", "visible")
	assert.False(t, ok)

	_, _, err = s.SetAttribute("missing", "a", 1)
	require.Error(t, err)
}

func TestSceneNamesSorted(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.CreateNode("c", nil))
	require.NoError(t, s.CreateNode("a", nil))
	require.NoError(t, s.CreateNode("b", nil))

	assert.Equal(t, []string{"a", "b", "c"}, s.Names())
}
