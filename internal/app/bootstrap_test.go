package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/bootstrap"
	"github.com/arun4infra/zerotouch-engine/internal/capability"
	"github.com/arun4infra/zerotouch-engine/internal/metrics"
	"github.com/arun4infra/zerotouch-engine/internal/pipeline"
)

func TestSeedBootstrapContext_OneAppendPerAdapter(t *testing.T) {
	registry, err := NewAdapterRegistry()
	require.NoError(t, err)

	doc := pipeline.Document{Stages: []pipeline.Stage{
		{Name: "hetzner-provision-servers", Adapter: "hetzner", Script: adapter.ScriptRef{Context: map[string]any{"region": "fsn1"}}},
		{Name: "hetzner-check-servers-reachable", Adapter: "hetzner", Script: adapter.ScriptRef{Context: map[string]any{"region": "fsn1"}}},
		{Name: "talos-apply-machine-configs", Adapter: "talos", Script: adapter.ScriptRef{Context: map[string]any{"cluster_name": "edge"}}},
	}}

	pctx, err := seedBootstrapContext(doc, registry)
	require.NoError(t, err)

	snap := pctx.Snapshot()
	infra, ok := snap.GetCapability(capability.CloudInfrastructure)
	require.True(t, ok)
	assert.Equal(t, "fsn1", infra["region"])

	_, ok = snap.GetCapability(capability.KubernetesAPI)
	require.True(t, ok)
}

func TestSeedBootstrapContext_UnknownAdapterFails(t *testing.T) {
	registry, err := NewAdapterRegistry()
	require.NoError(t, err)

	doc := pipeline.Document{Stages: []pipeline.Stage{
		{Name: "ghost-stage", Adapter: "ghost"},
	}}

	_, err = seedBootstrapContext(doc, registry)
	require.Error(t, err)
}

func TestWrapWithMetrics_ObservesRunningToTerminalDuration(t *testing.T) {
	rec := metrics.NewRecorder()
	var seen []bootstrap.StageResult
	wrapped := wrapWithMetrics(rec, func(r bootstrap.StageResult) { seen = append(seen, r) })

	wrapped(bootstrap.StageResult{StageName: "hetzner-provision-servers", State: bootstrap.StateRunning, Attempt: 1})
	time.Sleep(time.Millisecond)
	wrapped(bootstrap.StageResult{StageName: "hetzner-provision-servers", State: bootstrap.StateSucceeded, Attempt: 1})

	require.Len(t, seen, 2)
	assert.Equal(t, bootstrap.StateSucceeded, seen[1].State)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, rec.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `stage="hetzner-provision-servers"`)
	assert.Contains(t, string(data), `outcome="succeeded"`)
}

func TestOutcomeOf_MapsKnownStates(t *testing.T) {
	assert.Equal(t, "succeeded", outcomeOf(bootstrap.StateSucceeded))
	assert.Equal(t, "failed", outcomeOf(bootstrap.StateFailedFatal))
	assert.Equal(t, "cached", outcomeOf(bootstrap.StateSkippedCached))
	assert.Equal(t, "unknown", outcomeOf(bootstrap.StateWaitingBarrier))
}
