package pipeline

import (
	"gopkg.in/yaml.v3"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
)

// yamlStage mirrors Stage with yaml tags for the on-disk pipeline.yaml
// document.
type yamlStage struct {
	Name        string            `yaml:"name"`
	Adapter     string            `yaml:"adapter"`
	Bucket      string            `yaml:"phase_bucket"`
	Resource    string            `yaml:"script_resource"`
	PackagePath string            `yaml:"script_package"`
	Context     map[string]any    `yaml:"context,omitempty"`
	Description string            `yaml:"description,omitempty"`
	CacheKey    string            `yaml:"cache_key,omitempty"`
	Barrier     string            `yaml:"barrier"`
	MaxAttempts int               `yaml:"max_attempts"`
	BaseBackoff string            `yaml:"base_backoff,omitempty"`
}

type yamlDocument struct {
	Stages    []yamlStage `yaml:"stages"`
	PartialOf []string    `yaml:"partial_of,omitempty"`
}

// MarshalYAML renders the pipeline document for generated/pipeline.yaml.
func (d Document) MarshalYAML() ([]byte, error) {
	doc := yamlDocument{PartialOf: d.PartialOf}
	for _, s := range d.Stages {
		doc.Stages = append(doc.Stages, yamlStage{
			Name:        s.Name,
			Adapter:     s.Adapter,
			Bucket:      string(s.Bucket),
			Resource:    s.Script.Resource,
			PackagePath: s.Script.PackagePath,
			Context:     s.Script.Context,
			Description: s.Description,
			CacheKey:    s.CacheKey,
			Barrier:     string(s.Barrier),
			MaxAttempts: s.Retry.MaxAttempts,
			BaseBackoff: s.Retry.BaseBackoff,
		})
	}
	return yaml.Marshal(doc)
}

// UnmarshalDocument parses a previously written pipeline.yaml back into a
// Document, for `bootstrap` and `eject` commands that replay or inspect a
// render without re-running it.
func UnmarshalDocument(data []byte) (Document, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}

	out := Document{PartialOf: doc.PartialOf}
	for _, s := range doc.Stages {
		out.Stages = append(out.Stages, Stage{
			Name:        s.Name,
			Adapter:     s.Adapter,
			Bucket:      Bucket(s.Bucket),
			Script: adapter.ScriptRef{
				PackagePath: s.PackagePath,
				Resource:    s.Resource,
				Context:     s.Context,
			},
			Description: s.Description,
			CacheKey:    s.CacheKey,
			Barrier:     adapter.BarrierKind(s.Barrier),
			Retry:       adapter.RetryPolicy{MaxAttempts: s.MaxAttempts, BaseBackoff: s.BaseBackoff},
		})
	}
	return out, nil
}
