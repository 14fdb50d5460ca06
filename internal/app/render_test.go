package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullPlatformYAML = `version: "1"
platform:
  organization: acme
  app_name: edge-cluster
adapters:
  hetzner:
    hcloud_token: test-token
    region: fsn1
    server_type: cx22
    node_count: 3
  talos:
    cluster_name: edge
    kubernetes_version: v1.31.0
  cilium:
    cluster_pool_cidr: 10.42.0.0/16
`

func writePlatformConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "platform.yaml"), []byte(body), 0o640))
}

func TestRenderPlatform_FullPipeline(t *testing.T) {
	dir := t.TempDir()
	writePlatformConfig(t, dir, fullPlatformYAML)

	cfg := &Config{PlatformDir: dir}
	result, err := RenderPlatform(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"hetzner", "talos", "cilium"}, result.Plan)
	assert.NotEmpty(t, result.Lock.PlatformHash)
	assert.NotEmpty(t, result.Lock.ArtifactsHash)
	assert.Equal(t, EngineVersion, result.Lock.EngineVersion)

	assert.FileExists(t, cfg.LockPath())
	assert.FileExists(t, cfg.PipelinePath())

	pipelineData, err := os.ReadFile(cfg.PipelinePath())
	require.NoError(t, err)
	assert.Contains(t, string(pipelineData), "cluster_pool_cidr")
}

func TestRenderPlatform_PartialRenderRestrictsPlan(t *testing.T) {
	dir := t.TempDir()
	writePlatformConfig(t, dir, fullPlatformYAML)

	cfg := &Config{PlatformDir: dir, Partial: []string{"hetzner"}}
	result, err := RenderPlatform(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"hetzner"}, result.Plan)
	assert.Equal(t, []string{"hetzner"}, result.Lock.PartialOf)
}

func TestRenderPlatform_InvalidConfigFailsBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	writePlatformConfig(t, dir, `version: "1"
platform:
  organization: acme
  app_name: edge-cluster
adapters:
  hetzner:
    region: fsn1
`)

	cfg := &Config{PlatformDir: dir}
	_, err := RenderPlatform(context.Background(), cfg)
	require.Error(t, err)
	assert.NoFileExists(t, cfg.LockPath())
}

func TestRenderPlatform_RerenderSwapsCleanly(t *testing.T) {
	dir := t.TempDir()
	writePlatformConfig(t, dir, fullPlatformYAML)
	cfg := &Config{PlatformDir: dir}

	_, err := RenderPlatform(context.Background(), cfg)
	require.NoError(t, err)

	_, err = RenderPlatform(context.Background(), cfg)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".render-new-")
		assert.NotEqual(t, "generated.old", e.Name())
	}
}
