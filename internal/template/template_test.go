package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderGoTemplate_Basic(t *testing.T) {
	env := New()
	out, err := env.RenderGoTemplate("hetzner", "hello {{ .Name | upper }}", map[string]any{"Name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello WORLD", out)
}

func TestRenderGoTemplate_MissingKeyErrors(t *testing.T) {
	env := New()
	_, err := env.RenderGoTemplate("talos", "{{ .Missing }}", map[string]any{})
	assert.Error(t, err)
}

func TestNamespace_PerAdapterIsolation(t *testing.T) {
	env := New()
	require.NoError(t, env.LoadTemplate("hetzner", "greeting", "hi {{ .Name }}"))
	require.NoError(t, env.LoadTemplate("talos", "greeting", "bonjour {{ .Name }}"))

	out1, err := env.RenderNamed("hetzner", "greeting", map[string]any{"Name": "a"})
	require.NoError(t, err)
	assert.Equal(t, "hi a", out1)

	out2, err := env.RenderNamed("talos", "greeting", map[string]any{"Name": "a"})
	require.NoError(t, err)
	assert.Equal(t, "bonjour a", out2)
}
