// Package adapter implements the adapter registry (C2): discovery of
// embedded adapters, descriptor metadata, and the render contract each
// adapter implements.
package adapter

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/arun4infra/zerotouch-engine/internal/capability"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

// Phase is the coarse-grained, totally ordered execution bucket an adapter
// belongs to.
type Phase int

const (
	PhaseFoundation Phase = iota
	PhaseNetworking
	PhasePlatform
	PhaseServices
)

func (p Phase) String() string {
	switch p {
	case PhaseFoundation:
		return "foundation"
	case PhaseNetworking:
		return "networking"
	case PhasePlatform:
		return "platform"
	case PhaseServices:
		return "services"
	default:
		return "unknown"
	}
}

// ParsePhase maps the config-file phase name to a Phase.
func ParsePhase(s string) (Phase, bool) {
	switch s {
	case "foundation":
		return PhaseFoundation, true
	case "networking":
		return PhaseNetworking, true
	case "platform":
		return PhasePlatform, true
	case "services":
		return PhaseServices, true
	default:
		return 0, false
	}
}

// ScriptRef is a logical identity for a lifecycle script: the embedded
// package path it lives under, the resource name within that tree, and the
// context payload handed to it at execution time.
type ScriptRef struct {
	PackagePath string
	Resource    string
	Context     map[string]any
}

// BarrierKind names a bootstrap-stage precondition.
type BarrierKind string

const (
	BarrierLocal             BarrierKind = "local"
	BarrierRescueReady       BarrierKind = "rescue-ready"
	BarrierClusterInstalled  BarrierKind = "cluster-installed"
	BarrierClusterAccessible BarrierKind = "cluster-accessible"
	BarrierCNIReady          BarrierKind = "cni-ready"
	BarrierGitOpsReady       BarrierKind = "gitops-ready"
	BarrierNone              BarrierKind = "none"
)

// RetryPolicy bounds the retry behavior of a stage.
type RetryPolicy struct {
	MaxAttempts  int
	BaseBackoff  string // Go duration string, e.g. "5s"
}

// StageSpec is one adapter-declared lifecycle stage, later aggregated into
// the pipeline document by C8.
type StageSpec struct {
	Name        string
	Script      ScriptRef
	Description string
	CacheKey    string // empty means "always run" (validation stages)
	Barrier     BarrierKind
	Retry       RetryPolicy
}

// Descriptor is immutable adapter metadata loaded from an embedded
// manifest.
type Descriptor struct {
	Name              string
	DisplayName       string
	Version           string
	SupportedVersions []string
	Phase             Phase
	SelectionGroup    string
	Provides          []capability.ID
	Requires          []capability.ID
}

// Output is what render() produces for one adapter. Lifecycle stages are
// not part of Output: they are static, declared by the adapter's four
// lifecycle accessors below, and available without invoking render — the
// pipeline generator, script extractor, and `eject` all need them before
// (or without) a full render.
type Output struct {
	Manifests      map[string][]byte
	CapabilityData map[capability.ID]map[string]any
}

// Snapshot is the read-only view of prior adapter outputs handed to
// render(). Defined here (rather than imported from platformctx) to avoid
// a dependency cycle; platformctx.Snapshot implements this interface.
type Snapshot interface {
	GetCapability(id capability.ID) (map[string]any, bool)
	GetConfig(adapterName string) (map[string]any, bool)
}

// Adapter is the fixed capability set every embedded adapter implements,
// replacing the source ecosystem's duck-typed plugin dispatch with a
// closed, statically registered variant.
type Adapter interface {
	Metadata() Descriptor
	InputSchema() capability.Schema
	Render(ctx context.Context, snap Snapshot, cfg map[string]any) (Output, error)
	PreWorkStages() []StageSpec
	BootstrapStages() []StageSpec
	PostWorkStages() []StageSpec
	ValidationStages() []StageSpec
}

// Registry holds every adapter compiled into the binary.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter, failing with DuplicateAdapter if the name is
// already taken, and with PathViolation if the adapter exposes its script
// tree (a Tree() fs.FS method) and any of its script references names a
// resource missing from that tree. Adapters without a Tree method are
// registered without this check.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := a.Metadata().Name
	if _, exists := r.adapters[name]; exists {
		return ztcerr.New(ztcerr.DuplicateAdapter, fmt.Sprintf("adapter %q already registered", name))
	}
	if src, ok := a.(interface{ Tree() fs.FS }); ok {
		tree := src.Tree()
		for _, ref := range AllScripts(a) {
			if _, err := fs.Stat(tree, ref.Resource); err != nil {
				return ztcerr.Wrap(ztcerr.PathViolation, err,
					fmt.Sprintf("adapter %q references missing script resource %q", name, ref.Resource))
			}
		}
	}
	r.adapters[name] = a
	return nil
}

// Get returns the named adapter.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, ztcerr.New(ztcerr.AdapterNotFound, fmt.Sprintf("adapter %q is not registered", name))
	}
	return a, nil
}

// List returns every registered adapter's descriptor, sorted by name.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a.Metadata())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Select returns the Adapter values for the given names, in the order
// given, failing with AdapterNotFound on the first miss.
func (r *Registry) Select(names []string) ([]Adapter, error) {
	out := make([]Adapter, 0, len(names))
	for _, n := range names {
		a, err := r.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// AllStages returns every stage an adapter declares across all four
// lifecycle buckets, in bucket order (pre-work, bootstrap, post-work,
// validation). Used by the script extractor (C12) to know what to copy,
// by registry load-time validation to know what must resolve, and by
// `eject`/`validate` flows that need the pipeline shape without a full
// render.
func AllStages(a Adapter) []StageSpec {
	var out []StageSpec
	out = append(out, a.PreWorkStages()...)
	out = append(out, a.BootstrapStages()...)
	out = append(out, a.PostWorkStages()...)
	out = append(out, a.ValidationStages()...)
	return out
}

// AllScripts returns just the script references of AllStages, for callers
// that only care about what must be extracted.
func AllScripts(a Adapter) []ScriptRef {
	stages := AllStages(a)
	out := make([]ScriptRef, 0, len(stages))
	for _, s := range stages {
		out = append(out, s.Script)
	}
	return out
}
