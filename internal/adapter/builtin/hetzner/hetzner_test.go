package hetzner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arun4infra/zerotouch-engine/internal/capability"
)

type fakeSnapshot struct{}

func (fakeSnapshot) GetCapability(id capability.ID) (map[string]any, bool) { return nil, false }
func (fakeSnapshot) GetConfig(name string) (map[string]any, bool)         { return nil, false }

func TestRender_EmitsCloudInfrastructure(t *testing.T) {
	a := New()
	out, err := a.Render(context.Background(), fakeSnapshot{}, map[string]any{
		"region":      "fsn1",
		"server_type": "cx22",
		"node_count":  float64(3),
	})
	require.NoError(t, err)

	payload, ok := out.CapabilityData[capability.CloudInfrastructure]
	require.True(t, ok)
	assert.Equal(t, "fsn1", payload["region"])
	assert.Contains(t, out.Manifests, "manifests/machine-pool.yaml")
}

func TestMetadata_DeclaresProvides(t *testing.T) {
	a := New()
	meta := a.Metadata()
	assert.Equal(t, Name, meta.Name)
	assert.Contains(t, meta.Provides, capability.CloudInfrastructure)
	assert.Empty(t, meta.Requires)
}

func TestTree_ContainsDeclaredStageScripts(t *testing.T) {
	a := New()
	tree := a.Tree()
	for _, stage := range []string{
		"pre-work/check-credentials.sh",
		"bootstrap/provision-servers.sh",
		"validation/check-servers-reachable.sh",
	} {
		_, err := tree.Open(stage)
		require.NoError(t, err, "stage script %s must exist in the embedded tree", stage)
	}
}
