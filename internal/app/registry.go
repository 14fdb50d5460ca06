package app

import (
	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/adapter/builtin/cilium"
	"github.com/arun4infra/zerotouch-engine/internal/adapter/builtin/hetzner"
	"github.com/arun4infra/zerotouch-engine/internal/adapter/builtin/talos"
	"github.com/arun4infra/zerotouch-engine/internal/capability"
	"github.com/arun4infra/zerotouch-engine/internal/extractor"
)

// BuiltinAdapters returns every adapter compiled into the engine binary, in
// a fixed order. Adding an adapter to ZTC means adding it here.
func BuiltinAdapters() []adapter.Adapter {
	return []adapter.Adapter{
		hetzner.New(),
		talos.New(),
		cilium.New(),
	}
}

// NewAdapterRegistry builds the process's adapter registry from the
// compiled-in set.
func NewAdapterRegistry() (*adapter.Registry, error) {
	r := adapter.NewRegistry()
	for _, a := range BuiltinAdapters() {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewCapabilityRegistry builds the process's capability schema registry.
func NewCapabilityRegistry() *capability.Registry {
	return capability.NewBuiltinRegistry()
}

// scriptSourceOf asserts that an adapter also exposes its embedded script
// tree; every builtin adapter does, since Tree() is how the extractor
// copies its scripts into a bootstrap workspace.
func scriptSourceOf(a adapter.Adapter) extractor.ScriptSource {
	src, ok := a.(extractor.ScriptSource)
	if !ok {
		panic("adapter " + a.Metadata().Name + " does not expose a script tree")
	}
	return src
}

// builtinScriptSources maps every compiled-in adapter's name to its script
// source, for the extractor.
func builtinScriptSources() map[string]extractor.ScriptSource {
	return extractor.AllAdapterSources(BuiltinAdapters(), scriptSourceOf)
}
