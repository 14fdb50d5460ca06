package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

// CacheEntry records one previously completed stage, keyed by the stage's
// cache_key, persisted with a write-temp-then-rename discipline so a crash
// mid-write never truncates the existing cache.
type CacheEntry struct {
	CompletedAt time.Time `json:"completed_at"`
	ExitCode    int       `json:"exit_code"`
}

// Cache is the executor's sole-writer stage cache,
// "<workspace>/stage-cache.json".
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]CacheEntry
}

// LoadCache reads an existing cache file, or returns an empty cache if
// none exists yet (first run).
func LoadCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: make(map[string]CacheEntry)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "reading stage cache")
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "parsing stage cache")
	}
	return c, nil
}

// Get returns the recorded entry for cacheKey, if any.
func (c *Cache) Get(cacheKey string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey]
	return e, ok
}

// RecordSuccess writes a success entry and persists the cache atomically
// (write to a temp file, then rename), so a crash mid-write never
// truncates the existing cache.
func (c *Cache) RecordSuccess(cacheKey string, completedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey] = CacheEntry{CompletedAt: completedAt, ExitCode: 0}
	return c.persistLocked()
}

func (c *Cache) persistLocked() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "marshaling stage cache")
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "writing temp stage cache")
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "renaming stage cache into place")
	}
	return nil
}

// Clear removes every entry, used by `bootstrap --skip-cache`.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]CacheEntry)
	return c.persistLocked()
}

// AcquireWorkspaceLock creates an exclusive lock file so no two executors
// run against the same workspace concurrently. Returns a release func.
func AcquireWorkspaceLock(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, ztcerr.New(ztcerr.ConfigInvalid,
				"another bootstrap executor is already running against this workspace").
				WithRemediation("wait for the other run to finish, or remove " + path + " if it crashed without cleaning up")
		}
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "acquiring workspace lock")
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()
	return func() { os.Remove(path) }, nil
}
