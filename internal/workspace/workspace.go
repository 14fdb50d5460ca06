// Package workspace implements the secure workspace (C11): a signal-aware
// ephemeral directory with owner-only permissions, used to run a bootstrap
// against.
package workspace

import (
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
	"github.com/arun4infra/zerotouch-engine/pkg/logging"
)

// Workspace is an ephemeral, owner-only-permission directory tree.
type Workspace struct {
	Root  string
	debug bool

	mu        sync.Mutex
	cleaned   bool
	sigCh     chan os.Signal
	stopWatch chan struct{}
}

// New creates a fresh ztc-secure-<uuid> directory under tempRoot with
// 0700 permissions and installs a signal-aware cleanup handler covering
// SIGINT, SIGTERM, and any uncaught error the caller reports via Close.
// debug mode suppresses cleanup so the workspace can be inspected after
// the run.
func New(tempRoot string, debug bool) (*Workspace, error) {
	name := "ztc-secure-" + uuid.NewString()
	root := filepath.Join(tempRoot, name)
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "creating secure workspace")
	}
	// MkdirAll respects umask; force the mode explicitly so a permissive
	// umask can't widen it.
	if err := os.Chmod(root, 0o700); err != nil {
		return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "restricting secure workspace permissions")
	}

	for _, sub := range []string{"ctx", "logs"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o700); err != nil {
			return nil, ztcerr.Wrap(ztcerr.ConfigInvalid, err, "creating workspace subdirectory "+sub)
		}
	}

	w := &Workspace{
		Root:      root,
		debug:     debug,
		sigCh:     make(chan os.Signal, 2),
		stopWatch: make(chan struct{}),
	}

	logging.Audit(logging.AuditEvent{
		Action:    "workspace_create",
		Outcome:   "success",
		SessionID: name,
		Target:    root,
	})

	signal.Notify(w.sigCh, syscall.SIGINT, syscall.SIGTERM)
	go w.watchSignals()

	return w, nil
}

// watchSignals triggers reentrant cleanup exactly once on the first
// SIGINT/SIGTERM; the bootstrap executor is expected to also observe the
// signal itself (via its own signal.Notify registration) to drive stage
// cancellation — this handler's only job is guaranteeing the workspace is
// never left behind even if the rest of the process exits abruptly.
func (w *Workspace) watchSignals() {
	select {
	case <-w.sigCh:
		w.Close()
	case <-w.stopWatch:
	}
}

// CtxPath returns the path a stage's context file should be written to.
func (w *Workspace) CtxPath(stageName string) string {
	return filepath.Join(w.Root, "ctx", stageName+".json")
}

// LogPath returns the path a stage's stdout/stderr log should be streamed
// to.
func (w *Workspace) LogPath(stageName string) string {
	return filepath.Join(w.Root, "logs", stageName+".log")
}

// ScriptsRoot returns the directory extracted scripts are copied into.
func (w *Workspace) ScriptsRoot() string {
	return filepath.Join(w.Root, "scripts")
}

// StageCachePath returns the path to the stage cache file.
func (w *Workspace) StageCachePath() string {
	return filepath.Join(w.Root, "stage-cache.json")
}

// LockFilePath returns the path to the single-executor lock file.
func (w *Workspace) LockFilePath() string {
	return filepath.Join(w.Root, ".executor.lock")
}

// Close tears down the signal watcher and, unless debug mode is set,
// removes the workspace tree. Close is reentrant: calling it more than
// once (e.g. once from a signal handler and once from a deferred cleanup)
// performs the removal only the first time.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cleaned {
		return nil
	}
	w.cleaned = true

	select {
	case <-w.stopWatch:
	default:
		close(w.stopWatch)
	}
	signal.Stop(w.sigCh)

	if w.debug {
		logging.Audit(logging.AuditEvent{Action: "workspace_cleanup", Outcome: "success", Target: w.Root, Details: "preserved (debug mode)"})
		return nil
	}

	if err := os.RemoveAll(w.Root); err != nil {
		logging.Audit(logging.AuditEvent{Action: "workspace_cleanup", Outcome: "failure", Target: w.Root, Error: err.Error()})
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "removing secure workspace")
	}
	logging.Audit(logging.AuditEvent{Action: "workspace_cleanup", Outcome: "success", Target: w.Root})
	return nil
}
