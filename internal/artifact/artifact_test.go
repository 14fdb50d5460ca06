package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

func TestWriteAdapterOutput_Basic(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	err := w.WriteAdapterOutput("hetzner", adapter.PhaseFoundation, map[string][]byte{
		"secret.yaml": []byte("apiVersion: v1\nkind: Secret\n"),
	})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "generated", "foundation", "hetzner", "secret.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "kind: Secret")
}

func TestWriteAdapterOutput_DuplicateWrite(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	require.NoError(t, w.WriteAdapterOutput("hetzner", adapter.PhaseFoundation, map[string][]byte{
		"a.yaml": []byte("x"),
	}))
	err := w.WriteAdapterOutput("hetzner", adapter.PhaseFoundation, map[string][]byte{
		"a.yaml": []byte("y"),
	})
	require.Error(t, err)
	var zerr *ztcerr.Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, ztcerr.PathViolation, zerr.Kind)
}

func TestWriteAdapterOutput_PathEscape(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	err := w.WriteAdapterOutput("hetzner", adapter.PhaseFoundation, map[string][]byte{
		"../../etc/passwd": []byte("x"),
	})
	require.Error(t, err)
	var zerr *ztcerr.Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, ztcerr.PathViolation, zerr.Kind)
}

func TestWriteAdapterOutput_AbsolutePath(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	err := w.WriteAdapterOutput("hetzner", adapter.PhaseFoundation, map[string][]byte{
		"/etc/passwd": []byte("x"),
	})
	require.Error(t, err)
}
