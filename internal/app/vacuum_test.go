package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVacuumWorkspaces_LeavesFreshWorkspaceAlone(t *testing.T) {
	root := t.TempDir()
	wsPath := filepath.Join(root, "ztc-secure-fresh")
	require.NoError(t, os.MkdirAll(wsPath, 0o700))

	cfg := &Config{TempRoot: root}
	results, err := VacuumWorkspaces(cfg)
	require.NoError(t, err)

	for _, r := range results {
		assert.False(t, r.Removed)
	}
	assert.DirExists(t, wsPath)
}

func TestVacuumWorkspaces_IgnoresNonSecureDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "unrelated-dir"), 0o700))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "unrelated-dir"), old, old))

	cfg := &Config{TempRoot: root}
	results, err := VacuumWorkspaces(cfg)
	require.NoError(t, err)
	assert.Empty(t, results)
}
