package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/capability"
	"github.com/arun4infra/zerotouch-engine/internal/pipeline"
	"github.com/arun4infra/zerotouch-engine/internal/workspace"
)

type alwaysReadyProber struct{}

func (alwaysReadyProber) Probe(ctx context.Context, kind adapter.BarrierKind, snap adapter.Snapshot, rescueHost string) (bool, error) {
	return true, nil
}

type fakeSnapshot struct{}

func (fakeSnapshot) GetCapability(id capability.ID) (map[string]any, bool) { return nil, false }
func (fakeSnapshot) GetConfig(name string) (map[string]any, bool)         { return nil, false }

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o700))
}

func newTestExecutor(t *testing.T, stages []pipeline.Stage) (*Executor, *workspace.Workspace) {
	t.Helper()
	ws, err := workspace.New(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	cache, err := LoadCache(ws.StageCachePath())
	require.NoError(t, err)

	manifest := make(map[string]string)
	scriptDir := t.TempDir()
	for _, s := range stages {
		manifest[s.Name] = filepath.Join(scriptDir, s.Name+".sh")
	}

	return &Executor{
		Doc:       pipeline.Document{Stages: stages},
		Manifest:  manifest,
		Workspace: ws,
		Cache:     cache,
		Prober:    alwaysReadyProber{},
		Snapshot:  func() adapter.Snapshot { return fakeSnapshot{} },
	}, ws
}

func TestExecutor_SuccessfulStageIsCached(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "install", CacheKey: "install-v1", Barrier: adapter.BarrierLocal, Retry: adapter.RetryPolicy{MaxAttempts: 1, BaseBackoff: "1ms"}},
	}
	exec, ws := newTestExecutor(t, stages)
	writeScript(t, exec.Manifest["install"], "exit 0\n")

	require.NoError(t, exec.Run(context.Background()))

	_, ok := exec.Cache.Get("install-v1")
	assert.True(t, ok)

	runCount := 0
	exec.OnTransition = func(r StageResult) {
		if r.StageName == "install" && r.State == StateSkippedCached {
			runCount++
		}
	}
	require.NoError(t, exec.Run(context.Background()))
	assert.Equal(t, 1, runCount, "second run should skip the cached stage")
	_ = ws
}

func TestExecutor_RetriesThenSucceeds(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "flaky", CacheKey: "flaky-v1", Barrier: adapter.BarrierLocal, Retry: adapter.RetryPolicy{MaxAttempts: 3, BaseBackoff: "1ms"}},
	}
	exec, _ := newTestExecutor(t, stages)

	marker := filepath.Join(t.TempDir(), "attempts")
	writeScript(t, exec.Manifest["flaky"], `
count=0
if [ -f `+marker+` ]; then count=$(cat `+marker+`); fi
count=$((count+1))
echo $count > `+marker+`
if [ "$count" -lt 2 ]; then exit 1; fi
exit 0
`)

	require.NoError(t, exec.Run(context.Background()))
	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "2\n", string(data))
}

func TestExecutor_FatalAfterExhaustingRetries(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "broken", CacheKey: "broken-v1", Barrier: adapter.BarrierLocal, Retry: adapter.RetryPolicy{MaxAttempts: 2, BaseBackoff: "1ms"}},
	}
	exec, _ := newTestExecutor(t, stages)
	writeScript(t, exec.Manifest["broken"], "exit 1\n")

	err := exec.Run(context.Background())
	require.Error(t, err)
	_, ok := exec.Cache.Get("broken-v1")
	assert.False(t, ok, "a fatal stage must not be recorded as cached-success")
}

func TestExecutor_ValidationStagesNeverCache(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "check", Bucket: pipeline.BucketValidation, CacheKey: "", Barrier: adapter.BarrierLocal, Retry: adapter.RetryPolicy{MaxAttempts: 1, BaseBackoff: "1ms"}},
	}
	exec, _ := newTestExecutor(t, stages)
	writeScript(t, exec.Manifest["check"], "exit 0\n")

	require.NoError(t, exec.Run(context.Background()))
	_, ok := exec.Cache.Get("")
	assert.False(t, ok)
}
