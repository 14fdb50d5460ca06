// Package extractor implements the script extractor (C12): copies every
// embedded script tree referenced by a stage into the workspace, preserving
// the adapter's internal directory layout so scripts can source sibling
// helpers by relative path, and emits a runtime manifest mapping stage
// name to the extracted script's absolute path.
package extractor

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/pipeline"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

// ScriptSource provides the embedded filesystem for one adapter's script
// tree; concrete adapters implement this by wrapping an embed.FS.
type ScriptSource interface {
	// Tree returns the adapter's script tree rooted such that Resource
	// paths used in ScriptRef are relative to this root.
	Tree() fs.FS
}

// Manifest maps a stage name to the absolute path of its extracted script,
// consumed by the bootstrap executor (C13).
type Manifest map[string]string

// Extract copies every script referenced by doc's stages into
// scriptsRoot/<adapter>/..., preserving relative layout, and returns the
// stage-name -> absolute-path manifest. sources maps adapter name to its
// ScriptSource.
func Extract(scriptsRoot string, doc pipeline.Document, sources map[string]ScriptSource) (Manifest, error) {
	manifest := make(Manifest, len(doc.Stages))
	copiedTrees := make(map[string]bool)

	for _, stage := range doc.Stages {
		src, ok := sources[stage.Adapter]
		if !ok {
			return nil, ztcerr.New(ztcerr.AdapterNotFound,
				"no script source registered for adapter "+stage.Adapter)
		}

		destDir := filepath.Join(scriptsRoot, stage.Adapter)
		if !copiedTrees[stage.Adapter] {
			if err := copyTree(src.Tree(), destDir); err != nil {
				return nil, ztcerr.Wrap(ztcerr.ScriptFailed, err, "extracting scripts for adapter "+stage.Adapter)
			}
			copiedTrees[stage.Adapter] = true
		}

		abs := filepath.Join(destDir, stage.Script.Resource)
		if _, err := os.Stat(abs); err != nil {
			return nil, ztcerr.Wrap(ztcerr.AdapterNotFound, err,
				"stage "+stage.Name+" references missing script resource "+stage.Script.Resource)
		}
		manifest[stage.Name] = abs
	}

	return manifest, nil
}

// copyTree copies every regular file in src into dest, preserving the
// relative directory structure, and marks each file executable by the
// owner only (0700).
func copyTree(src fs.FS, dest string) error {
	return fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o700)
		}

		data, err := fs.ReadFile(src, path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o700)
	})
}

// AllAdapterSources is a convenience constructor building a
// name->ScriptSource map from a slice of adapters, keyed by each adapter's
// Metadata().Name and valued by sourceOf applied to that adapter.
func AllAdapterSources(adapters []adapter.Adapter, sourceOf func(adapter.Adapter) ScriptSource) map[string]ScriptSource {
	out := make(map[string]ScriptSource, len(adapters))
	for _, a := range adapters {
		out[a.Metadata().Name] = sourceOf(a)
	}
	return out
}
