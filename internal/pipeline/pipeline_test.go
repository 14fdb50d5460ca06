package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/capability"
)

type fakeAdapter struct {
	name       string
	preWork    []adapter.StageSpec
	bootstrap  []adapter.StageSpec
	postWork   []adapter.StageSpec
	validation []adapter.StageSpec
}

func (f fakeAdapter) Metadata() adapter.Descriptor { return adapter.Descriptor{Name: f.name} }
func (f fakeAdapter) InputSchema() capability.Schema { return capability.Schema{} }
func (f fakeAdapter) Render(ctx context.Context, snap adapter.Snapshot, cfg map[string]any) (adapter.Output, error) {
	return adapter.Output{}, nil
}
func (f fakeAdapter) PreWorkStages() []adapter.StageSpec    { return f.preWork }
func (f fakeAdapter) BootstrapStages() []adapter.StageSpec  { return f.bootstrap }
func (f fakeAdapter) PostWorkStages() []adapter.StageSpec   { return f.postWork }
func (f fakeAdapter) ValidationStages() []adapter.StageSpec { return f.validation }

func TestGenerate_BucketOrdering(t *testing.T) {
	a := fakeAdapter{
		name:       "hetzner",
		preWork:    []adapter.StageSpec{{Name: "hetzner-pre"}},
		bootstrap:  []adapter.StageSpec{{Name: "hetzner-boot"}},
		postWork:   []adapter.StageSpec{{Name: "hetzner-post"}},
		validation: []adapter.StageSpec{{Name: "hetzner-validate"}},
	}
	b := fakeAdapter{
		name:       "talos",
		preWork:    []adapter.StageSpec{{Name: "talos-pre"}},
		bootstrap:  []adapter.StageSpec{{Name: "talos-boot"}},
		postWork:   []adapter.StageSpec{{Name: "talos-post"}},
		validation: []adapter.StageSpec{{Name: "talos-validate"}},
	}

	adapters := map[string]adapter.Adapter{"hetzner": a, "talos": b}
	doc, err := Generate([]string{"hetzner", "talos"}, adapters)
	require.NoError(t, err)

	var names []string
	for _, s := range doc.Stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"hetzner-pre", "talos-pre",
		"hetzner-boot", "talos-boot",
		"hetzner-post", "talos-post",
		"hetzner-validate", "talos-validate",
	}, names)
}

func TestGenerate_ValidationForcesSingleAttempt(t *testing.T) {
	a := fakeAdapter{
		name:       "hetzner",
		validation: []adapter.StageSpec{{Name: "check", CacheKey: "should-be-cleared", Retry: adapter.RetryPolicy{MaxAttempts: 5}}},
	}
	doc, err := Generate([]string{"hetzner"}, map[string]adapter.Adapter{"hetzner": a})
	require.NoError(t, err)
	require.Len(t, doc.Stages, 1)
	assert.Equal(t, "", doc.Stages[0].CacheKey)
	assert.Equal(t, 1, doc.Stages[0].Retry.MaxAttempts)
}

func TestMarshalUnmarshal_RoundTrips(t *testing.T) {
	a := fakeAdapter{
		name: "hetzner",
		bootstrap: []adapter.StageSpec{{
			Name:        "hetzner-provision-servers",
			Script:      adapter.ScriptRef{PackagePath: "hetzner", Resource: "bootstrap/provision-servers.sh", Context: map[string]any{"region": "fsn1"}},
			Description: "Create servers",
			CacheKey:    "hetzner-provision-servers",
			Barrier:     adapter.BarrierLocal,
			Retry:       adapter.RetryPolicy{MaxAttempts: 3, BaseBackoff: "5s"},
		}},
	}
	doc, err := Generate([]string{"hetzner"}, map[string]adapter.Adapter{"hetzner": a})
	require.NoError(t, err)

	data, err := doc.MarshalYAML()
	require.NoError(t, err)

	roundTripped, err := UnmarshalDocument(data)
	require.NoError(t, err)
	require.Len(t, roundTripped.Stages, 1)

	got := roundTripped.Stages[0]
	assert.Equal(t, "hetzner-provision-servers", got.Name)
	assert.Equal(t, "hetzner", got.Adapter)
	assert.Equal(t, BucketBootstrap, got.Bucket)
	assert.Equal(t, "bootstrap/provision-servers.sh", got.Script.Resource)
	assert.Equal(t, "fsn1", got.Script.Context["region"])
	assert.Equal(t, adapter.BarrierLocal, got.Barrier)
	assert.Equal(t, 3, got.Retry.MaxAttempts)
}

func TestGenerate_StageNameCollision(t *testing.T) {
	a := fakeAdapter{name: "hetzner", preWork: []adapter.StageSpec{{Name: "dup"}}}
	b := fakeAdapter{name: "talos", preWork: []adapter.StageSpec{{Name: "dup"}}}
	_, err := Generate([]string{"hetzner", "talos"}, map[string]adapter.Adapter{"hetzner": a, "talos": b})
	require.Error(t, err)
}
