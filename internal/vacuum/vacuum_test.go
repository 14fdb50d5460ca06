package vacuum

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_RemovesOldOrphan(t *testing.T) {
	root := t.TempDir()
	orphan := filepath.Join(root, "ztc-secure-aaaa")
	require.NoError(t, os.MkdirAll(orphan, 0o700))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(orphan, old, old))

	results, err := Scan(root, 0, time.Now())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Removed)
	assert.NoDirExists(t, orphan)
}

func TestScan_ExemptsFreshWorkspace(t *testing.T) {
	root := t.TempDir()
	fresh := filepath.Join(root, "ztc-secure-bbbb")
	require.NoError(t, os.MkdirAll(fresh, 0o700))

	results, err := Scan(root, DefaultAgeThreshold, time.Now())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.DirExists(t, fresh)
}

func TestScan_SkipsLiveOwner(t *testing.T) {
	root := t.TempDir()
	alive := filepath.Join(root, "ztc-secure-cccc")
	require.NoError(t, os.MkdirAll(alive, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(alive, ".executor.lock"), []byte(strconv.Itoa(os.Getpid())), 0o600))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(alive, old, old))

	results, err := Scan(root, 0, time.Now())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Removed)
	assert.DirExists(t, alive)
}
