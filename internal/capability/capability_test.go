package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinRegistryComplete(t *testing.T) {
	r := NewBuiltinRegistry()
	for _, id := range AllIDs() {
		_, ok := r.Lookup(id)
		assert.Truef(t, ok, "capability %s shipped without a schema", id)
	}
}

func TestValidate_MissingRequiredField(t *testing.T) {
	r := NewBuiltinRegistry()
	violations := r.Validate(KubernetesAPI, map[string]any{"endpoint": "https://10.0.0.1:6443"})
	require.Len(t, violations, 1)
	assert.Equal(t, "/kubeconfig", violations[0].Pointer)
}

func TestValidate_TypeMismatch(t *testing.T) {
	r := NewBuiltinRegistry()
	violations := r.Validate(CNIArtifacts, map[string]any{
		"pod_cidr": 12345,
		"plugin":   "cilium",
	})
	require.Len(t, violations, 1)
	assert.Equal(t, "/pod_cidr", violations[0].Pointer)
	assert.Equal(t, "string", violations[0].Expected)
}

func TestValidate_Valid(t *testing.T) {
	r := NewBuiltinRegistry()
	violations := r.Validate(CloudInfrastructure, map[string]any{
		"provider": "hetzner",
		"node_ids": []any{"node-1", "node-2"},
	})
	assert.Empty(t, violations)
}

func TestValidate_UnknownCapability(t *testing.T) {
	r := NewRegistry()
	violations := r.Validate(ID("not-a-real-capability"), map[string]any{})
	require.Len(t, violations, 1)
	assert.Equal(t, "/", violations[0].Pointer)
}

func TestValidateYAML(t *testing.T) {
	r := NewBuiltinRegistry()
	raw := []byte("provider: hetzner\nnode_ids:\n  - node-1\n")
	violations, err := r.ValidateYAML(CloudInfrastructure, raw)
	require.NoError(t, err)
	assert.Empty(t, violations)
}
