// Package render implements the adapter execution host (C6): drives each
// adapter's render contract in resolved plan order, validates its output
// against the capability schema and path policy, and forwards manifests
// and capability data downstream.
package render

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/artifact"
	"github.com/arun4infra/zerotouch-engine/internal/capability"
	"github.com/arun4infra/zerotouch-engine/internal/platformctx"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
	"github.com/arun4infra/zerotouch-engine/pkg/logging"
)

// DefaultRenderTimeout bounds a single adapter's Render call.
const DefaultRenderTimeout = 60 * time.Second

// Host drives the resolved plan through each adapter's render contract.
type Host struct {
	Adapters    map[string]adapter.Adapter
	Capabilities *capability.Registry
	Writer      *artifact.Writer
	Context     *platformctx.Context
	Timeout     time.Duration
}

// NewHost returns a Host with DefaultRenderTimeout unless overridden.
func NewHost(adapters map[string]adapter.Adapter, caps *capability.Registry, w *artifact.Writer, ctx *platformctx.Context) *Host {
	return &Host{Adapters: adapters, Capabilities: caps, Writer: w, Context: ctx, Timeout: DefaultRenderTimeout}
}

// Run renders every adapter named in planOrder, in order, returning the
// accumulated per-adapter outputs. A render failure for any adapter is
// fatal for the whole plan: the caller's workspace (not the live tree) is
// left holding whatever was written so far, and the atomic swap never runs.
func (h *Host) Run(ctx context.Context, planOrder []string) (map[string]adapter.Output, error) {
	results := make(map[string]adapter.Output, len(planOrder))

	for _, name := range planOrder {
		a, ok := h.Adapters[name]
		if !ok {
			return nil, ztcerr.New(ztcerr.AdapterNotFound, "adapter "+name+" is in the resolved plan but not registered")
		}

		out, err := h.renderOne(ctx, name, a)
		if err != nil {
			return nil, err
		}
		results[name] = out
	}

	return results, nil
}

func (h *Host) renderOne(ctx context.Context, name string, a adapter.Adapter) (adapter.Output, error) {
	snap := h.Context.Snapshot()

	cfg, _ := snap.GetConfig(name)

	renderCtx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	logging.Info("render", "rendering adapter %s", name)

	out, err := a.Render(renderCtx, snap, cfg)
	if err != nil {
		if renderCtx.Err() == context.DeadlineExceeded {
			return adapter.Output{}, ztcerr.New(ztcerr.RenderFailure, "adapter "+name+" did not complete render within "+h.Timeout.String()).
				WithDetail("adapter", name)
		}
		return adapter.Output{}, ztcerr.Wrap(ztcerr.RenderFailure, err, "adapter "+name+" render failed").
			WithDetail("adapter", name)
	}

	if err := h.validateOutput(name, a.Metadata(), out); err != nil {
		return adapter.Output{}, err
	}

	for id, payload := range out.CapabilityData {
		h.Context.Append(id, payload)
	}

	if err := h.Writer.WriteAdapterOutput(name, a.Metadata().Phase, out.Manifests); err != nil {
		return adapter.Output{}, err
	}

	logging.Audit(logging.AuditEvent{Action: "adapter_render", Outcome: "success", Target: name})

	return out, nil
}

// validateOutput checks that an adapter only emitted capability data it
// declared in Provides, that each payload passes its capability schema,
// and that every manifest path is relative and normalized.
func (h *Host) validateOutput(name string, meta adapter.Descriptor, out adapter.Output) error {
	provided := make(map[capability.ID]bool, len(meta.Provides))
	for _, id := range meta.Provides {
		provided[id] = true
	}

	for id, payload := range out.CapabilityData {
		if !provided[id] {
			return ztcerr.New(ztcerr.OutputSchemaViolation, "adapter "+name+" emitted undeclared capability "+string(id)).
				WithDetail("adapter", name).WithDetail("capability", string(id))
		}
		violations := h.Capabilities.Validate(id, payload)
		if len(violations) > 0 {
			return ztcerr.New(ztcerr.OutputSchemaViolation, "adapter "+name+" capability "+string(id)+" failed schema validation").
				WithDetail("adapter", name).
				WithDetail("capability", string(id)).
				WithDetail("violations", violations)
		}
	}

	for relPath, content := range out.Manifests {
		if err := validateManifestPath(name, relPath); err != nil {
			return err
		}
		if err := sanityCheckManifest(name, relPath, content); err != nil {
			return err
		}
	}

	return nil
}

func validateManifestPath(adapterName, relPath string) error {
	if filepath.IsAbs(relPath) {
		return ztcerr.New(ztcerr.PathViolation, "manifest path must be relative: "+relPath).
			WithDetail("adapter", adapterName).WithDetail("path", relPath)
	}
	cleaned := filepath.Clean(relPath)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return ztcerr.New(ztcerr.PathViolation, "manifest path escapes its adapter directory: "+relPath).
			WithDetail("adapter", adapterName).WithDetail("path", relPath)
	}
	return nil
}

// sanityCheckManifest parses YAML manifests into unstructured.Unstructured
// to confirm apiVersion/kind are present and the document round-trips,
// without requiring a live cluster. Non-YAML/JSON manifests (scripts,
// plain text config) are skipped; only files with a ".yaml"/".yml" suffix
// are treated as Kubernetes objects, whatever directory they are in.
func sanityCheckManifest(adapterName, relPath string, content []byte) error {
	if !strings.HasSuffix(relPath, ".yaml") && !strings.HasSuffix(relPath, ".yml") {
		return nil
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil
	}

	for _, doc := range splitYAMLDocuments(content) {
		if strings.TrimSpace(doc) == "" {
			continue
		}
		var raw map[string]any
		if err := yaml.Unmarshal([]byte(doc), &raw); err != nil {
			return ztcerr.Wrap(ztcerr.OutputSchemaViolation, err, "adapter "+adapterName+" emitted invalid YAML at "+relPath).
				WithDetail("adapter", adapterName).WithDetail("path", relPath)
		}
		if raw == nil {
			continue
		}
		u := unstructured.Unstructured{Object: raw}
		if u.GetAPIVersion() == "" || u.GetKind() == "" {
			return ztcerr.New(ztcerr.OutputSchemaViolation, "adapter "+adapterName+" emitted a manifest missing apiVersion/kind at "+relPath).
				WithDetail("adapter", adapterName).WithDetail("path", relPath)
		}
	}
	return nil
}

func splitYAMLDocuments(content []byte) []string {
	return strings.Split(string(content), "\n---\n")
}
