package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reg(id, version string) Registration {
	return Registration{
		ID:      id,
		Version: version,
		New:     func() Plugin { return &commandPlugin{id: id} },
	}
}

func TestRegistryVersionResolution(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(reg("demo.tool", "1.0.0"))
	r.Register(reg("demo.tool", "1.2.0"))
	r.Register(reg("demo.tool", "0.9.0"))

	got, ok := r.Get("demo.tool")
	require.True(t, ok)
	assert.Equal(t, "1.2.0", got.Version)

	exact, ok := r.GetVersion("demo.tool", "0.9.0")
	require.True(t, ok)
	assert.Equal(t, "0.9.0", exact.Version)

	_, ok = r.GetVersion("demo.tool", "3.0.0")
	assert.False(t, ok)

	assert.Equal(t, []string{"0.9.0", "1.0.0", "1.2.0"}, r.Versions("demo.tool"))
}

func TestRegistryDuplicateOverwrites(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	first := reg("demo.dup", "1.0.0")
	first.Description = "first"
	second := reg("demo.dup", "1.0.0")
	second.Description = "second"

	r.Register(first)
	r.Register(second)

	got, ok := r.Get("demo.dup")
	require.True(t, ok)
	assert.Equal(t, "second", got.Description)
	assert.Len(t, r.Versions("demo.dup"), 1)
}

func TestRegistryRejectsBadEntries(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	// Empty ID is a warned no-op.
	r.Register(reg("", "1.0.0"))
	assert.Empty(t, r.IDs())

	// Unparseable versions are warned and skipped.
	r.Register(reg("demo.bad", "not-a-version"))
	_, ok := r.Get("demo.bad")
	assert.False(t, ok)
}

func TestRegistryDefaultVersion(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(reg("demo.plain", ""))

	got, ok := r.Get("demo.plain")
	require.True(t, ok)
	assert.Equal(t, DefaultVersion, got.Version)
}

func TestRegistryIDsAndAll(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(reg("b.tool", "1.0.0"))
	r.Register(reg("a.tool", "1.0.0"))
	r.Register(reg("a.tool", "2.0.0"))

	assert.Equal(t, []string{"a.tool", "b.tool"}, r.IDs())

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a.tool", all[0].ID)
	assert.Equal(t, "2.0.0", all[0].Version)
}
