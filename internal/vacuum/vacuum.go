// Package vacuum implements the vacuum component (C14): reclaims orphaned
// ztc-secure-* workspaces left behind by crashed runs.
package vacuum

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arun4infra/zerotouch-engine/pkg/logging"
)

// DefaultAgeThreshold is how old an orphaned workspace must be before
// vacuum considers it eligible for removal.
const DefaultAgeThreshold = 60 * time.Minute

// Result reports one workspace's disposition.
type Result struct {
	Path    string
	Removed bool
	Reason  string
}

// Scan walks tempRoot for ztc-secure-* directories older than
// ageThreshold whose owning process no longer exists, and removes them.
// Workspaces younger than ageThreshold are exempt regardless of owner
// liveness, so a slow-starting fresh run is never mistaken for an orphan.
func Scan(tempRoot string, ageThreshold time.Duration, now time.Time) ([]Result, error) {
	if ageThreshold <= 0 {
		ageThreshold = DefaultAgeThreshold
	}

	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var candidates []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "ztc-secure-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < ageThreshold {
			continue
		}
		candidates = append(candidates, filepath.Join(tempRoot, e.Name()))
	}

	results := make([]Result, len(candidates))
	g := new(errgroup.Group)
	for i, path := range candidates {
		i, path := i, path
		g.Go(func() error {
			results[i] = evaluate(path)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

func evaluate(path string) Result {
	pid, ok := readLockPID(path)
	if ok && processAlive(pid) {
		return Result{Path: path, Removed: false, Reason: "owning process still running"}
	}

	if err := os.RemoveAll(path); err != nil {
		logging.Warn("vacuum", "failed to remove orphaned workspace %s: %v", path, err)
		return Result{Path: path, Removed: false, Reason: err.Error()}
	}

	logging.Audit(logging.AuditEvent{Action: "vacuum_reclaim", Outcome: "success", Target: path})
	return Result{Path: path, Removed: true, Reason: "orphaned past age threshold"}
}

// readLockPID reads the PID recorded by a workspace's executor lock, if
// the lock file is in the "<pid>\n" form the executor writes at
// acquisition. Workspaces without a recognizable PID are treated as
// ownerless, i.e. eligible for removal once past the age threshold.
func readLockPID(workspacePath string) (int, bool) {
	data, err := os.ReadFile(filepath.Join(workspacePath, ".executor.lock"))
	if err != nil {
		return 0, false
	}
	return parsePID(strings.TrimSpace(string(data)))
}
