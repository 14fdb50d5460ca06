package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/bootstrap"
	"github.com/arun4infra/zerotouch-engine/internal/extractor"
	"github.com/arun4infra/zerotouch-engine/internal/metrics"
	"github.com/arun4infra/zerotouch-engine/internal/pipeline"
	"github.com/arun4infra/zerotouch-engine/internal/platformctx"
	"github.com/arun4infra/zerotouch-engine/internal/workspace"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
	"github.com/arun4infra/zerotouch-engine/pkg/logging"
)

// BootstrapResult summarizes a completed bootstrap run.
type BootstrapResult struct {
	StageCount  int
	MetricsPath string
}

// BootstrapPlatform replays the rendered pipeline against real
// infrastructure: it loads pipeline.yaml, extracts every referenced script
// into a fresh secure workspace, and drives the bootstrap executor stage by
// stage, reporting progress through onTransition.
func BootstrapPlatform(ctx context.Context, cfg *Config, onTransition func(bootstrap.StageResult)) (*BootstrapResult, error) {
	data, err := os.ReadFile(cfg.PipelinePath())
	if err != nil {
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "reading rendered pipeline; run `ztc render` first")
	}
	doc, err := pipeline.UnmarshalDocument(data)
	if err != nil {
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "parsing rendered pipeline")
	}

	adapterRegistry, err := NewAdapterRegistry()
	if err != nil {
		return nil, err
	}

	ws, err := workspace.New(cfg.tempRoot(), cfg.Debug)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	manifest, err := extractor.Extract(ws.ScriptsRoot(), doc, builtinScriptSources())
	if err != nil {
		return nil, err
	}

	cache, err := bootstrap.LoadCache(ws.StageCachePath())
	if err != nil {
		return nil, err
	}
	if cfg.SkipCache {
		if err := cache.Clear(); err != nil {
			return nil, err
		}
	}

	pctx, err := seedBootstrapContext(doc, adapterRegistry)
	if err != nil {
		return nil, err
	}

	rec := metrics.NewRecorder()

	exec := &bootstrap.Executor{
		Doc:       doc,
		Manifest:  manifest,
		Workspace: ws,
		Cache:     cache,
		Prober:    bootstrap.NewClusterProber(),
		Snapshot: func() adapter.Snapshot {
			return pctx.Snapshot()
		},
		RescueHost:   cfg.RescueHost,
		OnTransition: wrapWithMetrics(rec, onTransition),
	}

	runErr := exec.Run(ctx)

	metricsPath := filepath.Join(ws.Root, "metrics.prom")
	if err := rec.WriteTextfile(metricsPath); err != nil {
		logging.Warn("bootstrap", "failed to write metrics textfile: %v", err)
	}

	if runErr != nil {
		return nil, runErr
	}

	logging.Audit(logging.AuditEvent{Action: "bootstrap_complete", Outcome: "success", Target: cfg.PlatformDir})
	return &BootstrapResult{StageCount: len(doc.Stages), MetricsPath: metricsPath}, nil
}

// seedBootstrapContext builds a platformctx.Context for barrier probing
// against a pipeline replayed independently of the render that produced it.
// Each builtin adapter provides exactly one capability, so its sole
// Metadata().Provides entry is used as the key for the flattened context
// already baked into its stages at render time.
func seedBootstrapContext(doc pipeline.Document, adapterRegistry *adapter.Registry) (*platformctx.Context, error) {
	pctx := platformctx.New(nil)

	seen := make(map[string]bool)
	for _, stage := range doc.Stages {
		if seen[stage.Adapter] {
			continue
		}
		seen[stage.Adapter] = true

		a, err := adapterRegistry.Get(stage.Adapter)
		if err != nil {
			return nil, err
		}
		meta := a.Metadata()
		if len(meta.Provides) == 0 {
			continue
		}
		pctx.Append(meta.Provides[0], stage.Script.Context)
	}

	return pctx, nil
}

// wrapWithMetrics observes each stage's running-to-terminal elapsed time and
// forwards every transition to the caller's own callback, if any. A stage
// that reaches a terminal state without running first (a cache hit) is
// observed with zero elapsed time.
func wrapWithMetrics(rec *metrics.Recorder, next func(bootstrap.StageResult)) func(bootstrap.StageResult) {
	started := make(map[string]time.Time)

	return func(res bootstrap.StageResult) {
		switch res.State {
		case bootstrap.StateRunning:
			started[res.StageName] = time.Now()
		case bootstrap.StateSucceeded, bootstrap.StateFailedFatal, bootstrap.StateSkippedCached:
			elapsed := 0.0
			if start, ok := started[res.StageName]; ok {
				elapsed = time.Since(start).Seconds()
				delete(started, res.StageName)
			}
			rec.ObserveStage(res.StageName, "", outcomeOf(res.State), elapsed)
		}

		if next != nil {
			next(res)
		}
	}
}

func outcomeOf(s bootstrap.State) string {
	switch s {
	case bootstrap.StateSucceeded:
		return "succeeded"
	case bootstrap.StateFailedFatal:
		return "failed"
	case bootstrap.StateSkippedCached:
		return "cached"
	default:
		return "unknown"
	}
}
