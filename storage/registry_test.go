package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/storage-router/interfaces"
)

func TestRegistryRegisterIdempotent(t *testing.T) {
	registry := NewDriverRegistry(testLogger())

	first := &nameOnlyDriver{name: "dup"}
	second := &nameOnlyDriver{name: "dup"}

	require.NoError(t, registry.Register(first))
	require.NoError(t, registry.Register(second))

	drivers := registry.List()
	require.Len(t, drivers, 1)

	// First registration wins.
	assert.Same(t, interfaces.StorageDriver(first), drivers[0])
}

func TestRegistryPreservesOrder(t *testing.T) {
	registry := NewDriverRegistry(testLogger())

	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, registry.Register(&nameOnlyDriver{name: name}))
	}

	var names []string
	for _, d := range registry.List() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestRegistryFind(t *testing.T) {
	registry := NewDriverRegistry(testLogger())
	require.NoError(t, registry.Register(&nameOnlyDriver{name: "x"}))

	assert.NotNil(t, registry.Find("x"))
	assert.Nil(t, registry.Find("y"))
}

func TestRegistrySelected(t *testing.T) {
	registry := NewDriverRegistry(testLogger())
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, registry.Register(&nameOnlyDriver{name: name}))
	}

	// Whitelist order wins over registration order; unknown names drop out.
	var names []string
	for _, d := range registry.selected([]string{"c", "nope", "a"}) {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"c", "a"}, names)

	// Nil selects everything; an empty whitelist selects nothing.
	assert.Len(t, registry.selected(nil), 3)
	assert.Empty(t, registry.selected([]string{}))
}

func TestRegistryDriversForURL(t *testing.T) {
	registry := NewDriverRegistry(testLogger())

	claiming := &mockDriver{name: "claiming"}
	claiming.On("HandlesURL", "mock://x").Return(true)

	declining := &mockDriver{name: "declining"}
	declining.On("HandlesURL", "mock://x").Return(false)

	// No URL capability at all: skipped, not treated as non-matching.
	require.NoError(t, registry.Register(&nameOnlyDriver{name: "inert"}))
	require.NoError(t, registry.Register(claiming))
	require.NoError(t, registry.Register(declining))

	matched := registry.DriversForURL("mock://x")
	require.Len(t, matched, 1)
	assert.Equal(t, "claiming", matched[0].Name())
}

func TestRegistryCapabilities(t *testing.T) {
	caps := capabilities(&nameOnlyDriver{name: "inert"})
	for method, present := range caps {
		assert.False(t, present, method)
	}

	caps = capabilities(&mockDriver{name: "full"})
	for method, present := range caps {
		assert.True(t, present, method)
	}
}
