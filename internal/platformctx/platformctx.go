// Package platformctx implements the context and snapshot contract (C4):
// a mutable store owned by the render pipeline, and the immutable snapshot
// view handed to each adapter's render call.
package platformctx

import (
	"sync"

	"github.com/arun4infra/zerotouch-engine/internal/capability"
)

// Context accumulates validated adapter outputs as the render pipeline
// walks the resolved plan. Adapters never see *Context directly — only the
// Snapshot captured immediately before their own render call.
type Context struct {
	mu sync.RWMutex

	// capabilities maps a provided capability to the payload its provider
	// emitted. Populated strictly in plan order by the render pipeline.
	capabilities map[capability.ID]map[string]any

	// config holds each adapter's validated configuration, available to
	// every adapter from the start of the render (config is known before
	// any adapter runs; only capability data accrues incrementally).
	config map[string]map[string]any
}

// New returns an empty Context seeded with the platform's validated
// per-adapter configuration.
func New(config map[string]map[string]any) *Context {
	cfgCopy := make(map[string]map[string]any, len(config))
	for k, v := range config {
		cfgCopy[k] = v
	}
	return &Context{
		capabilities: make(map[capability.ID]map[string]any),
		config:       cfgCopy,
	}
}

// Append records a provider's validated capability payload. Callers must
// call this only with already-schema-validated payloads, in plan order.
func (c *Context) Append(id capability.ID, payload map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capabilities[id] = payload
}

// Snapshot captures the current state as an immutable view. Because the
// returned Snapshot copies the capability map (not the nested payloads,
// which the contract treats as already-immutable validated data), later
// calls to Append do not affect a previously captured Snapshot.
func (c *Context) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	caps := make(map[capability.ID]map[string]any, len(c.capabilities))
	for k, v := range c.capabilities {
		caps[k] = v
	}
	return &Snapshot{capabilities: caps, config: c.config}
}

// Snapshot is an immutable view of capability data produced by adapters
// preceding the observer, plus the full validated platform config.
type Snapshot struct {
	capabilities map[capability.ID]map[string]any
	config       map[string]map[string]any
}

// GetCapability returns the validated payload from the unique provider
// that precedes the caller in the plan, or ok=false if no provider has run
// yet (or ever will, in a partial render).
func (s *Snapshot) GetCapability(id capability.ID) (map[string]any, bool) {
	v, ok := s.capabilities[id]
	return v, ok
}

// GetConfig returns the raw validated config for the named adapter.
func (s *Snapshot) GetConfig(adapterName string) (map[string]any, bool) {
	v, ok := s.config[adapterName]
	return v, ok
}
