package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitPlatform_WritesScaffoldWithRequiredFieldsCommented(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{PlatformDir: dir}

	require.NoError(t, InitPlatform(cfg, "acme", "edge-cluster", []string{"hetzner", "talos"}))

	data, err := os.ReadFile(cfg.PlatformConfigPath())
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "organization: \"acme\"")
	assert.Contains(t, content, "hcloud_token: # string, required")
	assert.Contains(t, content, "server_type: # string, optional")
	assert.Contains(t, content, "cluster_name: # string, required")
}

func TestInitPlatform_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{PlatformDir: dir}
	require.NoError(t, InitPlatform(cfg, "acme", "edge", []string{"hetzner"}))

	err := InitPlatform(cfg, "acme", "edge", []string{"hetzner"})
	require.Error(t, err)
}

func TestInitPlatform_UnknownAdapterFails(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{PlatformDir: dir}
	err := InitPlatform(cfg, "acme", "edge", []string{"not-a-real-adapter"})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "platform.yaml"))
}
