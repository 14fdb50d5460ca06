// Package swap implements the atomic swap (C10): replacing the live
// output tree with a freshly rendered one via same-filesystem rename, so
// the live path always resolves to exactly one complete tree.
package swap

import (
	"os"
	"path/filepath"

	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
	"github.com/arun4infra/zerotouch-engine/pkg/logging"
)

// Paths bundles the three directory names involved in a swap, all
// siblings under the same parent (and therefore the same filesystem,
// which same-device rename requires).
type Paths struct {
	Live string // e.g. "platform/generated"
	New  string // e.g. "platform/generated.new"
	Old  string // e.g. "platform/generated.old"
}

// CheckSameFilesystem rejects configurations where Live's parent directory
// spans a different device than where New will be created. Atomic swap
// relies on same-filesystem rename, so this is enforced at startup rather
// than discovered mid-swap.
func CheckSameFilesystem(p Paths) error {
	parent := filepath.Dir(p.Live)
	liveDev, err := deviceOf(parent)
	if err != nil {
		// parent may not exist yet on first-ever render; nothing to
		// compare against.
		return nil
	}
	newParent := filepath.Dir(p.New)
	newDev, err := deviceOf(newParent)
	if err != nil {
		return nil
	}
	if liveDev != newDev {
		return ztcerr.New(ztcerr.ConfigInvalid,
			"generated.new and generated must live on the same filesystem for atomic swap").
			WithRemediation("point the output directory at a path on the same device as its parent")
	}
	return nil
}

// Swap performs the three-step rename: generated -> generated.old,
// generated.new -> generated, remove generated.old. If step one succeeds
// but step two fails, it rolls generated.old back to generated so the live
// path never observes a missing tree.
func Swap(p Paths) error {
	liveExists := exists(p.Live)

	if liveExists {
		if err := os.Rename(p.Live, p.Old); err != nil {
			return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "renaming live tree out of the way")
		}
	}

	if err := os.Rename(p.New, p.Live); err != nil {
		if liveExists {
			// Roll back: restore the old tree so the live path is never
			// left pointing at nothing.
			if rerr := os.Rename(p.Old, p.Live); rerr != nil {
				logging.Error("swap", rerr, "failed to roll back after failed swap; live tree may be missing at %s", p.Live)
				return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "swap failed and rollback also failed, manual recovery required")
			}
		}
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "renaming new tree into place")
	}

	if liveExists {
		if err := os.RemoveAll(p.Old); err != nil {
			// The swap itself already succeeded; a leftover generated.old
			// is logged and left in place, not treated as swap failure.
			logging.Warn("swap", "failed to remove old tree %s after successful swap: %v", p.Old, err)
		}
	}

	logging.Audit(logging.AuditEvent{Action: "atomic_swap", Outcome: "success", Target: p.Live})
	return nil
}

// Discard removes a failed render's staging directory, leaving the live
// tree untouched.
func Discard(p Paths) error {
	if err := os.RemoveAll(p.New); err != nil {
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "discarding failed render staging directory")
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
