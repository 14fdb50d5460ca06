// Package cmd implements the ztc command-line surface: init, render,
// validate, bootstrap, eject, vacuum, and version, wired against the
// internal/app operations.
package cmd

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
	"github.com/arun4infra/zerotouch-engine/pkg/logging"
)

// Exit codes are part of ztc's stable CLI contract; CI pipelines script
// against these values so they must not be renumbered.
const (
	ExitCodeSuccess            = 0
	ExitCodeConfigError        = 1
	ExitCodeDriftDetected      = 2
	ExitCodeStageFailure       = 3
	ExitCodeMissingDependency  = 4
	ExitCodeCancelled          = 5
)

var (
	platformDir string
	debug       bool
)

var rootCmd = &cobra.Command{
	Use:   "ztc",
	Short: "Compose bare-metal Kubernetes bootstrap from declarative adapters",
	Long: `ztc renders a platform.yaml into an ordered set of lifecycle scripts
and executes them against real infrastructure: provisioning servers,
installing an OS and Kubernetes, and layering CNI and platform services on
top, all through adapters composed by capability rather than hardcoded
sequence.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&platformDir, "platform-dir", ".", "directory holding platform.yaml, the generated tree, and lock.json")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "preserve secure workspaces and raise log verbosity")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newBootstrapCmd())
	rootCmd.AddCommand(newEjectCmd())
	rootCmd.AddCommand(newVacuumCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}

// SetVersion sets the version ztc reports for --version and `ztc version`.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the CLI, translating a returned ztcerr.Error into the
// matching process exit code.
func Execute() {
	level := logging.LevelInfo
	if os.Getenv("ZTC_DEBUG") != "" || debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, os.Stderr)

	// --debug is only set once cobra has parsed the flags, so the level is
	// raised again before the selected command runs.
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		if debug {
			logging.InitForCLI(logging.LevelDebug, os.Stderr)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	var zerr *ztcerr.Error
	if !errors.As(err, &zerr) {
		return ExitCodeConfigError
	}

	switch zerr.Kind {
	case ztcerr.HashMismatchPlatform, ztcerr.HashMismatchArtifacts:
		return ExitCodeDriftDetected
	case ztcerr.RenderFailure, ztcerr.ScriptFailed, ztcerr.BarrierTimeout:
		return ExitCodeStageFailure
	case ztcerr.RuntimeDependencyMissing:
		return ExitCodeMissingDependency
	case ztcerr.Cancelled:
		return ExitCodeCancelled
	default:
		return ExitCodeConfigError
	}
}
