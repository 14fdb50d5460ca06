// Package artifact implements the artifact writer (C7): materializes an
// adapter's manifest map to a workspace directory tree under a fixed path
// policy, never touching the live output tree directly.
package artifact

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

// Writer materializes manifests into a workspace root, enforcing the
// generated/<phase>/<adapter>/... path policy and rejecting duplicate
// writes within a single render.
type Writer struct {
	root    string // the workspace's generated.new/ directory
	written map[string]bool
}

// NewWriter returns a Writer rooted at root, which must already exist.
func NewWriter(root string) *Writer {
	return &Writer{root: root, written: make(map[string]bool)}
}

// WriteAdapterOutput writes every manifest produced by one adapter,
// normalizing and validating each relative path before writing.
func (w *Writer) WriteAdapterOutput(adapterName string, phase adapter.Phase, manifests map[string][]byte) error {
	// Deterministic order is not required for correctness here (the hasher
	// re-sorts independently) but keeps failures reproducible.
	relPaths := make([]string, 0, len(manifests))
	for relPath := range manifests {
		relPaths = append(relPaths, relPath)
	}
	sort.Strings(relPaths)
	for _, relPath := range relPaths {
		content := manifests[relPath]
		full, err := w.resolvePath(phase, adapterName, relPath)
		if err != nil {
			return err
		}
		if w.written[full] {
			return ztcerr.New(ztcerr.PathViolation,
				"duplicate write to "+full+" within a single render").
				WithDetail("adapter", adapterName).
				WithDetail("path", full)
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			return ztcerr.Wrap(ztcerr.PathViolation, err, "creating directory for "+full)
		}
		if err := os.WriteFile(full, content, 0o640); err != nil {
			return ztcerr.Wrap(ztcerr.PathViolation, err, "writing "+full)
		}
		w.written[full] = true
	}
	return nil
}

// resolvePath enforces that relPath is relative and normalized (no "..",
// no leading "/") and returns the absolute path under
// generated/<phase>/<adapter>/.
func (w *Writer) resolvePath(phase adapter.Phase, adapterName, relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", ztcerr.New(ztcerr.PathViolation, "manifest path must be relative: "+relPath).
			WithDetail("adapter", adapterName).WithDetail("path", relPath)
	}
	cleaned := filepath.Clean(relPath)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, string(filepath.Separator)+"..") {
		return "", ztcerr.New(ztcerr.PathViolation, "manifest path escapes its adapter directory: "+relPath).
			WithDetail("adapter", adapterName).WithDetail("path", relPath)
	}

	base := filepath.Join(w.root, "generated", phase.String(), adapterName)
	full := filepath.Join(base, cleaned)

	// Belt-and-braces: confirm the resolved path is still under base even
	// after Clean, guarding against exotic inputs filepath.Clean doesn't
	// catch on its own.
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", ztcerr.New(ztcerr.PathViolation, "manifest path escapes its adapter directory: "+relPath).
			WithDetail("adapter", adapterName).WithDetail("path", relPath)
	}
	return full, nil
}

// WrittenPaths returns every absolute path written so far, for the
// hasher's input enumeration.
func (w *Writer) WrittenPaths() []string {
	paths := make([]string, 0, len(w.written))
	for p := range w.written {
		paths = append(paths, p)
	}
	return paths
}
