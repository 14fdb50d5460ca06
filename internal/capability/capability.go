// Package capability implements the capability registry and schema
// validation described as C1: a closed set of identifiers, each paired
// with a schema, shipped and validated at build/load time.
package capability

import (
	"fmt"
	"sort"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

// ID is a capability identifier, e.g. "cloud-infrastructure", "kubernetes-api".
type ID string

// Field describes one required or optional key in a capability's payload
// schema. Nested fields are not modeled beyond one level deep; capability
// payloads in ztc are flat records by convention.
type Field struct {
	Name     string
	Required bool
	Type     string // "string", "number", "bool", "array", "object"
}

// Schema is the validation contract for a capability's payload.
type Schema struct {
	Capability ID
	Fields     []Field
}

// Violation is one structured validation failure.
type Violation struct {
	Pointer  string // e.g. "/kubeconfig"
	Expected string
	Actual   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", v.Pointer, v.Expected, v.Actual)
}

// Registry is the process-global, read-only-after-load set of capability
// schemas. Mirrors the sync.RWMutex-guarded map pattern used for
// capability definitions in a sync.RWMutex-guarded registry.
type Registry struct {
	mu      sync.RWMutex
	schemas map[ID]Schema
}

// NewRegistry returns an empty registry. Use Register to populate it,
// typically from a fixed in-binary table assembled at init time so that a
// capability shipped without a schema is a build-time failure rather than
// a runtime surprise.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[ID]Schema)}
}

// Register adds a schema for a capability. Re-registering the same ID
// overwrites the previous schema; callers assemble the registry once at
// startup from a fixed table.
func (r *Registry) Register(s Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[s.Capability] = s
}

// Lookup returns the schema for a capability, or ok=false if none is
// registered.
func (r *Registry) Lookup(id ID) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[id]
	return s, ok
}

// Known returns every registered capability ID, sorted.
func (r *Registry) Known() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.schemas))
	for id := range r.schemas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate checks a payload (as decoded YAML/JSON, i.e. map[string]any)
// against the capability's schema, returning structured violations.
// Validate itself never errors for an unknown capability; callers of the
// render pipeline are expected to have already rejected adapters that
// provide/require unknown capabilities at load time (AdapterNotFound /
// ConfigInvalid), so an unknown ID here is reported as a single violation
// rather than panicking.
func (r *Registry) Validate(id ID, payload map[string]any) []Violation {
	schema, ok := r.Lookup(id)
	if !ok {
		return []Violation{{Pointer: "/", Expected: fmt.Sprintf("known capability %q", id), Actual: "unregistered capability"}}
	}

	var violations []Violation
	for _, f := range schema.Fields {
		v, present := payload[f.Name]
		if !present {
			if f.Required {
				violations = append(violations, Violation{
					Pointer:  "/" + f.Name,
					Expected: fmt.Sprintf("required field of type %s", f.Type),
					Actual:   "missing",
				})
			}
			continue
		}
		if !typeMatches(f.Type, v) {
			violations = append(violations, Violation{
				Pointer:  "/" + f.Name,
				Expected: f.Type,
				Actual:   fmt.Sprintf("%T", v),
			})
		}
	}
	return violations
}

// ValidateYAML decodes a YAML payload via sigs.k8s.io/yaml (YAML -> JSON)
// before validating, so that capability payloads authored as YAML and
// capability payloads built in Go share one validation path.
func (r *Registry) ValidateYAML(id ID, raw []byte) ([]Violation, error) {
	var payload map[string]any
	if err := yaml.Unmarshal(raw, &payload); err != nil {
		return nil, ztcerr.Wrap(ztcerr.OutputSchemaViolation, err, "capability payload is not valid YAML")
	}
	return r.Validate(id, payload), nil
}

func typeMatches(t string, v any) bool {
	switch t {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case "bool":
		_, ok := v.(bool)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}
