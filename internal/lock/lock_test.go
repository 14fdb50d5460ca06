package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o640))
	}
}

func TestArtifactsHash_Stable(t *testing.T) {
	root1 := t.TempDir()
	root2 := t.TempDir()

	files := map[string]string{
		"foundation/hetzner/a.yaml": "apiVersion: v1\n",
		"platform/talos/b.yaml":     "kind: Node\n",
	}
	writeTree(t, root1, files)
	writeTree(t, root2, files)

	h1, err := ArtifactsHash(root1)
	require.NoError(t, err)
	h2, err := ArtifactsHash(root2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestArtifactsHash_DetectsChange(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.yaml": "apiVersion: v1\n"})

	before, err := ArtifactsHash(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.yaml"), []byte("apiVersion: v1\n\n"), 0o640))

	after, err := ArtifactsHash(root)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestPlatformHash_OrderIndependent(t *testing.T) {
	cfg1 := map[string]any{"b": 1, "a": 2}
	cfg2 := map[string]any{"a": 2, "b": 1}

	h1, err := PlatformHash(cfg1)
	require.NoError(t, err)
	h2, err := PlatformHash(cfg2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestValidate_EngineVersionTooNew(t *testing.T) {
	recorded := Lock{EngineVersion: "v2.0.0", PlatformHash: "x", ArtifactsHash: "y"}
	_, err := Validate(recorded, "v1.5.0", map[string]any{}, t.TempDir())
	require.Error(t, err)
}

func TestValidate_DriftDetection(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.yaml": "x"})

	cfg := map[string]any{"organization": "acme"}
	ph, err := PlatformHash(cfg)
	require.NoError(t, err)
	ah, err := ArtifactsHash(root)
	require.NoError(t, err)

	recorded := Lock{EngineVersion: "v1.0.0", PlatformHash: ph, ArtifactsHash: ah}

	kind, err := Validate(recorded, "v1.0.0", cfg, root)
	require.NoError(t, err)
	assert.Equal(t, DriftNone, kind)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.yaml"), []byte("y"), 0o640))
	kind, err = Validate(recorded, "v1.0.0", cfg, root)
	require.Error(t, err)
	assert.Equal(t, DriftArtifactsModified, kind)

	kind, err = Validate(recorded, "v1.0.0", map[string]any{"organization": "other"}, root)
	require.Error(t, err)
	assert.Equal(t, DriftPlatformModified, kind)
}

func TestWriteRead_RoundTrip(t *testing.T) {
	l := Lock{EngineVersion: "v1.0.0", PlatformHash: "p", ArtifactsHash: "a", GeneratedAt: "2026-01-01T00:00:00Z"}
	path := filepath.Join(t.TempDir(), "lock.json")
	require.NoError(t, Write(l, path))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, l, got)
}
