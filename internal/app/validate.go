package app

import (
	"github.com/arun4infra/zerotouch-engine/internal/config"
	"github.com/arun4infra/zerotouch-engine/internal/lock"
)

// ValidateResult reports whether the live generated tree and platform
// config still match what lock.json recorded at the last render.
type ValidateResult struct {
	Drift lock.DriftKind
	Lock  lock.Lock
}

// ValidatePlatform recomputes the platform and artifacts hashes against the
// live tree and compares them with the recorded lock, without touching
// anything on disk.
func ValidatePlatform(cfg *Config) (*ValidateResult, error) {
	recorded, err := lock.Read(cfg.LockPath())
	if err != nil {
		return nil, err
	}

	f, err := config.Load(cfg.PlatformConfigPath())
	if err != nil {
		return nil, err
	}

	drift, err := lock.Validate(recorded, EngineVersion, f, cfg.GeneratedDir())
	if err != nil {
		return &ValidateResult{Drift: drift, Lock: recorded}, err
	}

	return &ValidateResult{Drift: drift, Lock: recorded}, nil
}
