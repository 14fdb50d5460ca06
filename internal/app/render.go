package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/artifact"
	"github.com/arun4infra/zerotouch-engine/internal/capability"
	"github.com/arun4infra/zerotouch-engine/internal/config"
	"github.com/arun4infra/zerotouch-engine/internal/lock"
	"github.com/arun4infra/zerotouch-engine/internal/pipeline"
	"github.com/arun4infra/zerotouch-engine/internal/platformctx"
	"github.com/arun4infra/zerotouch-engine/internal/render"
	"github.com/arun4infra/zerotouch-engine/internal/resolver"
	"github.com/arun4infra/zerotouch-engine/internal/swap"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
	"github.com/arun4infra/zerotouch-engine/pkg/logging"
)

// RenderResult summarizes a completed render for the CLI's output table.
type RenderResult struct {
	Plan []string
	Lock lock.Lock
}

// RenderPlatform loads and validates platform.yaml, resolves the selected
// adapters into an execution plan, drives each adapter's render contract,
// and atomically publishes the resulting tree and lock file. A failure
// before the swap leaves the live tree untouched; the lock file is written
// after the swap.
func RenderPlatform(ctx context.Context, cfg *Config) (*RenderResult, error) {
	f, err := config.Load(cfg.PlatformConfigPath())
	if err != nil {
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "loading platform config")
	}

	adapterRegistry, err := NewAdapterRegistry()
	if err != nil {
		return nil, err
	}

	if verrs := config.Validate(f, adapterRegistry); verrs.HasErrors() {
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, verrs, "platform config failed validation")
	}

	selected := f.AdapterOrder
	if len(cfg.Partial) > 0 {
		selected = cfg.Partial
	}

	adapters, err := adapterRegistry.Select(selected)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]adapter.Adapter, len(adapters))
	descriptors := make([]adapter.Descriptor, 0, len(adapters))
	for _, a := range adapters {
		byName[a.Metadata().Name] = a
		descriptors = append(descriptors, a.Metadata())
	}

	plan, err := resolver.Resolve(descriptors)
	if err != nil {
		return nil, err
	}

	stagingRoot, err := os.MkdirTemp(cfg.PlatformDir, ".render-new-")
	if err != nil {
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "creating render staging directory")
	}
	paths := swap.Paths{
		Live: cfg.GeneratedDir(),
		New:  filepath.Join(stagingRoot, "generated"),
		Old:  filepath.Join(cfg.PlatformDir, "generated.old"),
	}
	cleanupStaging := func() { _ = os.RemoveAll(stagingRoot) }

	if err := swap.CheckSameFilesystem(paths); err != nil {
		cleanupStaging()
		return nil, err
	}

	writer := artifact.NewWriter(stagingRoot)
	pctx := platformctx.New(f.Adapters)
	capReg := NewCapabilityRegistry()
	host := render.NewHost(byName, capReg, writer, pctx)

	if _, err := host.Run(ctx, plan.Order); err != nil {
		cleanupStaging()
		return nil, err
	}

	doc, err := pipeline.Generate(plan.Order, byName)
	if err != nil {
		cleanupStaging()
		return nil, err
	}
	if len(cfg.Partial) > 0 {
		doc.PartialOf = cfg.Partial
	}
	populateStageContexts(&doc, pctx.Snapshot())

	pipelineYAML, err := doc.MarshalYAML()
	if err != nil {
		cleanupStaging()
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "marshaling pipeline document")
	}
	if err := os.WriteFile(filepath.Join(paths.New, "pipeline.yaml"), pipelineYAML, 0o640); err != nil {
		cleanupStaging()
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "writing pipeline document")
	}

	platformHash, err := lock.PlatformHash(f)
	if err != nil {
		cleanupStaging()
		return nil, err
	}
	artifactsHash, err := lock.ArtifactsHash(paths.New)
	if err != nil {
		cleanupStaging()
		return nil, err
	}
	descriptorsByName := make(map[string]adapter.Descriptor, len(byName))
	for name, a := range byName {
		descriptorsByName[name] = a.Metadata()
	}
	l := lock.Build(EngineVersion, platformHash, artifactsHash, plan.Order, descriptorsByName, cfg.Partial)

	if err := swap.Swap(paths); err != nil {
		cleanupStaging()
		return nil, err
	}
	cleanupStaging()

	if err := lock.Write(l, cfg.LockPath()); err != nil {
		return nil, err
	}

	logging.Info("render", "rendered %d adapters, wrote lock to %s", len(plan.Order), cfg.LockPath())
	return &RenderResult{Plan: plan.Order, Lock: l}, nil
}

// populateStageContexts fills every stage's script context with its
// adapter's validated config merged with every capability payload known by
// the end of the render, so a later bootstrap run's scripts can read both
// without re-deriving capability data that only render ever computes.
// Config fields win on key collision with a capability payload field.
func populateStageContexts(doc *pipeline.Document, snap *platformctx.Snapshot) {
	cache := make(map[string]map[string]any, len(doc.Stages))
	for i := range doc.Stages {
		name := doc.Stages[i].Adapter
		ctx, ok := cache[name]
		if !ok {
			ctx = stageContext(name, snap)
			cache[name] = ctx
		}
		doc.Stages[i].Script.Context = ctx
	}
}

func stageContext(adapterName string, snap *platformctx.Snapshot) map[string]any {
	ctx := make(map[string]any)
	for _, id := range capability.AllIDs() {
		if payload, ok := snap.GetCapability(id); ok {
			for k, v := range payload {
				ctx[k] = v
			}
		}
	}
	if cfg, ok := snap.GetConfig(adapterName); ok {
		for k, v := range cfg {
			ctx[k] = v
		}
	}
	return ctx
}
