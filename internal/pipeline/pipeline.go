// Package pipeline implements the pipeline generator (C8): aggregates
// adapter-declared stages into the linear document the bootstrap executor
// replays.
package pipeline

import (
	"fmt"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

// Bucket names the four lifecycle buckets a stage belongs to.
type Bucket string

const (
	BucketPreWork    Bucket = "pre-work"
	BucketBootstrap  Bucket = "bootstrap"
	BucketPostWork   Bucket = "post-work"
	BucketValidation Bucket = "validation"
)

// Stage is one entry in the emitted pipeline document.
type Stage struct {
	Name        string
	Adapter     string
	Bucket      Bucket
	Script      adapter.ScriptRef
	Description string
	CacheKey    string
	Barrier     adapter.BarrierKind
	Retry       adapter.RetryPolicy
}

// Document is the full linear pipeline, plus bookkeeping about what it
// covers (the full plan, or a --partial subset).
type Document struct {
	Stages    []Stage
	PartialOf []string // nil for a full render
}

// Generate aggregates stages from every adapter in plan order, following
// the four-bucket ordering rule: all pre-work stages first (in plan
// order), then all bootstrap stages, then all post-work stages, then all
// validation stages. Validation stages are forced to CacheKey == "" and
// MaxAttempts == 1 regardless of what the adapter declared, since
// validation always re-runs rather than being treated as cacheable work.
// Stage name collisions across the whole document fail with
// StageNameCollision.
func Generate(planOrder []string, adapters map[string]adapter.Adapter) (Document, error) {
	var doc Document
	seen := make(map[string]bool)

	type bucketSource struct {
		bucket Bucket
		get    func(adapter.Adapter) []adapter.StageSpec
	}
	sources := []bucketSource{
		{BucketPreWork, adapter.Adapter.PreWorkStages},
		{BucketBootstrap, adapter.Adapter.BootstrapStages},
		{BucketPostWork, adapter.Adapter.PostWorkStages},
		{BucketValidation, adapter.Adapter.ValidationStages},
	}

	for _, src := range sources {
		for _, name := range planOrder {
			a := adapters[name]
			for _, s := range src.get(a) {
				if seen[s.Name] {
					return Document{}, ztcerr.New(ztcerr.StageNameCollision,
						fmt.Sprintf("stage name %q is declared more than once", s.Name)).
						WithDetail("stage", s.Name)
				}
				seen[s.Name] = true

				stage := Stage{
					Name:        s.Name,
					Adapter:     name,
					Bucket:      src.bucket,
					Script:      s.Script,
					Description: s.Description,
					CacheKey:    s.CacheKey,
					Barrier:     s.Barrier,
					Retry:       s.Retry,
				}
				if src.bucket == BucketValidation {
					stage.CacheKey = ""
					stage.Retry.MaxAttempts = 1
				}
				doc.Stages = append(doc.Stages, stage)
			}
		}
	}

	return doc, nil
}
