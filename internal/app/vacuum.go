package app

import (
	"time"

	"github.com/arun4infra/zerotouch-engine/internal/vacuum"
)

// VacuumWorkspaces reclaims orphaned secure workspaces left behind by
// crashed bootstrap runs.
func VacuumWorkspaces(cfg *Config) ([]vacuum.Result, error) {
	return vacuum.Scan(cfg.tempRoot(), vacuum.DefaultAgeThreshold, time.Now())
}
