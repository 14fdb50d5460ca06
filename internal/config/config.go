// Package config loads and validates the platform.yaml file: the
// top-level version, platform metadata, and the ordered map of adapter
// name to that adapter's opaque, adapter-schema-validated configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/pkg/logging"
)

// Platform holds the `platform:` block of platform.yaml.
type Platform struct {
	Organization string `yaml:"organization"`
	AppName      string `yaml:"app_name"`
}

// File is the decoded shape of platform.yaml before per-adapter schema
// validation. AdapterOrder preserves the on-disk key order, since the
// resolver's lexicographic tie-break only applies within a phase and plan
// order should otherwise be stable and traceable to the authored file.
type File struct {
	Version      string
	Platform     Platform
	Adapters     map[string]map[string]any
	AdapterOrder []string
}

// UnmarshalYAML preserves adapter key order from the yaml.Node tree,
// since a plain map[string]any decode would not.
func (f *File) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Version  string    `yaml:"version"`
		Platform Platform  `yaml:"platform"`
		Adapters yaml.Node `yaml:"adapters"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	f.Version = raw.Version
	f.Platform = raw.Platform
	f.Adapters = make(map[string]map[string]any)
	f.AdapterOrder = nil

	if raw.Adapters.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(raw.Adapters.Content); i += 2 {
		key := raw.Adapters.Content[i].Value
		var val map[string]any
		if err := raw.Adapters.Content[i+1].Decode(&val); err != nil {
			return fmt.Errorf("adapter %q: %w", key, err)
		}
		f.Adapters[key] = val
		f.AdapterOrder = append(f.AdapterOrder, key)
	}
	return nil
}

// Load reads and parses platform.yaml at path. Structural YAML errors are
// returned immediately; per-adapter schema validation happens separately
// in Validate so that every adapter's errors are reported together rather
// than one at a time.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading platform config %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing platform config %s: %w", path, err)
	}

	logging.Info("config", "loaded platform config from %s (%d adapters)", path, len(f.AdapterOrder))
	return &f, nil
}

// Validate checks the file's structural fields and, for each adapter
// present in the registry, validates that adapter's config block against
// its InputSchema. Every failure is accumulated rather than returned on
// first error, so a user fixing a multi-adapter config sees every problem
// in one pass.
func Validate(f *File, registry *adapter.Registry) *ValidationErrors {
	errs := &ValidationErrors{}

	if f.Version == "" {
		errs.Add("version", "is required")
	}
	if f.Platform.Organization == "" {
		errs.Add("platform.organization", "is required")
	}
	if f.Platform.AppName == "" {
		errs.Add("platform.app_name", "is required")
	}

	for _, name := range f.AdapterOrder {
		a, err := registry.Get(name)
		if err != nil {
			errs.Add("adapters."+name, "no such adapter is registered")
			continue
		}
		schema := a.InputSchema()
		if schema.Capability == "" && len(schema.Fields) == 0 {
			continue
		}
		for _, field := range schema.Fields {
			v, present := f.Adapters[name][field.Name]
			if !present {
				if field.Required {
					errs.Add(fmt.Sprintf("adapters.%s.%s", name, field.Name), "is required")
				}
				continue
			}
			if !typeMatches(field.Type, v) {
				errs.Add(fmt.Sprintf("adapters.%s.%s", name, field.Name), fmt.Sprintf("must be of type %s", field.Type))
			}
		}
	}

	return errs
}
