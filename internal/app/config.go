// Package app wires the fourteen ZTC components together into the
// render/bootstrap/validate/eject/vacuum operations the CLI exposes,
// following giantswarm-muster's internal/app two-phase bootstrap pattern:
// a thin Config the caller populates from flags and environment, and a set
// of operations built from it.
package app

import (
	"os"
	"path/filepath"
)

// EngineVersion is the running binary's version, compared against a lock
// file's recorded engine_version to detect EngineVersionTooNew.
const EngineVersion = "0.1.0"

// Config is the fully-resolved set of inputs shared by every CLI command.
// Commands populate it from flags; operations in this package never read
// os.Args or the environment directly except where documented.
type Config struct {
	// PlatformDir holds platform.yaml, the generated tree, and lock.json.
	PlatformDir string
	// Debug preserves the secure workspace after a bootstrap run instead of
	// cleaning it up, and raises the log level.
	Debug bool
	// Partial restricts a render to the named adapters; empty means every
	// adapter listed in platform.yaml.
	Partial []string
	// Env names the environment a bootstrap run targets (e.g. "production",
	// "staging"); adapters may use it to select among per-environment
	// config blocks in the future, opaque to the engine today.
	Env string
	// SkipCache clears the stage cache before a bootstrap run.
	SkipCache bool
	// RescueHost is the host:port a rescue-ready barrier dials.
	RescueHost string
	// TempRoot is where secure workspaces are created; defaults to the OS
	// temp directory.
	TempRoot string
}

func (c *Config) tempRoot() string {
	if c.TempRoot != "" {
		return c.TempRoot
	}
	return os.TempDir()
}

// PlatformConfigPath returns the path to platform.yaml.
func (c *Config) PlatformConfigPath() string {
	return filepath.Join(c.PlatformDir, "platform.yaml")
}

// GeneratedDir returns the live generated tree's root.
func (c *Config) GeneratedDir() string {
	return filepath.Join(c.PlatformDir, "generated")
}

// LockPath returns the path to the lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.PlatformDir, "lock.json")
}

// PipelinePath returns the path to the rendered pipeline document.
func (c *Config) PipelinePath() string {
	return filepath.Join(c.GeneratedDir(), "pipeline.yaml")
}
