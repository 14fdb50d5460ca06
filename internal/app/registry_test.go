package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdapterRegistry_RegistersAllBuiltins(t *testing.T) {
	registry, err := NewAdapterRegistry()
	require.NoError(t, err)

	names := make([]string, 0)
	for _, d := range registry.List() {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"hetzner", "talos", "cilium"}, names)
}

func TestBuiltinScriptSources_CoversEveryAdapter(t *testing.T) {
	sources := builtinScriptSources()
	assert.Len(t, sources, 3)
	for _, name := range []string{"hetzner", "talos", "cilium"} {
		_, ok := sources[name]
		assert.True(t, ok, "missing script source for %s", name)
	}
}
