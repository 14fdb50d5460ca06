// Package bootstrap implements the bootstrap executor (C13): sequential
// stage execution against an extracted pipeline, with caching, barriers,
// retries, and graceful signal-driven cleanup.
package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	systemd "github.com/coreos/go-systemd/v22/daemon"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/extractor"
	"github.com/arun4infra/zerotouch-engine/internal/pipeline"
	"github.com/arun4infra/zerotouch-engine/internal/workspace"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
	"github.com/arun4infra/zerotouch-engine/pkg/logging"
)

// GracePeriod is how long the executor waits after SIGTERM before
// escalating to SIGKILL on cancellation.
const GracePeriod = 10 * time.Second

// Executor runs a pipeline document sequentially against an extracted
// script manifest inside a secure workspace.
type Executor struct {
	Doc       pipeline.Document
	Manifest  extractor.Manifest
	Workspace *workspace.Workspace
	Cache     *Cache
	Prober    Prober
	Snapshot  func() adapter.Snapshot // re-evaluated per barrier, since capability data can arrive mid-pipeline in a live bootstrap against real infra
	RescueHost string

	// OnTransition is called after every state transition, for CLI
	// progress rendering; may be nil.
	OnTransition func(StageResult)
}

// Run executes the pipeline in order. It returns a *ztcerr.Error of kind
// ScriptFailed (fatal exhaustion), BarrierTimeout, or Cancelled on
// failure, and nil if every stage succeeded or was skipped via cache.
func (e *Executor) Run(ctx context.Context) error {
	release, err := AcquireWorkspaceLock(e.Workspace.LockFilePath())
	if err != nil {
		return err
	}
	defer release()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	cancelled := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			close(cancelled)
			cancelRun()
		case <-runCtx.Done():
		}
	}()

	_, _ = systemd.SdNotify(false, systemd.SdNotifyReady)

	for _, stage := range e.Doc.Stages {
		select {
		case <-cancelled:
			return e.handleCancellation(stage.Name)
		default:
		}

		if err := e.runStage(runCtx, stage, cancelled); err != nil {
			_, _ = systemd.SdNotify(false, "STATUS=stage "+stage.Name+" failed")
			return err
		}
	}

	_, _ = systemd.SdNotify(false, systemd.SdNotifyStopping)
	return nil
}

func (e *Executor) handleCancellation(stageName string) error {
	_ = os.Remove(e.Workspace.CtxPath(stageName))
	logging.Audit(logging.AuditEvent{Action: "bootstrap_cancelled", Outcome: "success", Target: stageName})
	return ztcerr.New(ztcerr.Cancelled, "bootstrap cancelled before stage "+stageName)
}

func (e *Executor) transition(stageName string, state State, attempt int, err error) {
	logging.Info("bootstrap", "stage %s -> %s (attempt %d)", stageName, state, attempt)
	if e.OnTransition != nil {
		e.OnTransition(StageResult{StageName: stageName, State: state, Attempt: attempt, Err: err})
	}
}

func (e *Executor) runStage(ctx context.Context, stage pipeline.Stage, cancelled chan struct{}) error {
	if stage.CacheKey != "" {
		if _, ok := e.Cache.Get(stage.CacheKey); ok {
			e.transition(stage.Name, StateSkippedCached, 0, nil)
			return nil
		}
	}

	e.transition(stage.Name, StateWaitingBarrier, 0, nil)
	if err := WaitFor(ctx, e.Prober, stage.Barrier, e.Snapshot(), e.RescueHost, stage.Name, 0, 0); err != nil {
		e.transition(stage.Name, StateFailedFatal, 0, err)
		return err
	}

	scriptPath, ok := e.Manifest[stage.Name]
	if !ok {
		err := ztcerr.New(ztcerr.AdapterNotFound, "no extracted script for stage "+stage.Name)
		e.transition(stage.Name, StateFailedFatal, 0, err)
		return err
	}

	ctxPath := e.Workspace.CtxPath(stage.Name)
	if err := writeContextFile(ctxPath, stage.Script.Context); err != nil {
		e.transition(stage.Name, StateFailedFatal, 0, err)
		return err
	}

	maxAttempts := stage.Retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	baseBackoff, perr := time.ParseDuration(stage.Retry.BaseBackoff)
	if perr != nil || baseBackoff <= 0 {
		baseBackoff = 5 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		e.transition(stage.Name, StateRunning, attempt, nil)

		exitCode, runErr := e.runScript(ctx, stage, scriptPath, ctxPath, cancelled)
		if runErr == nil && exitCode == 0 {
			if stage.CacheKey != "" {
				if err := e.Cache.RecordSuccess(stage.CacheKey, time.Now().UTC()); err != nil {
					e.transition(stage.Name, StateFailedFatal, attempt, err)
					return err
				}
			}
			e.transition(stage.Name, StateSucceeded, attempt, nil)
			_ = os.Remove(ctxPath)
			return nil
		}

		if cancelErr, ok := runErr.(*ztcerr.Error); ok && cancelErr.Kind == ztcerr.Cancelled {
			e.transition(stage.Name, StateFailedFatal, attempt, cancelErr)
			return cancelErr
		}

		lastErr = ztcerr.New(ztcerr.ScriptFailed, fmt.Sprintf("stage %s exited %d", stage.Name, exitCode)).
			WithDetail("stage", stage.Name).WithDetail("exit_code", exitCode)
		if runErr != nil {
			lastErr = ztcerr.Wrap(ztcerr.ScriptFailed, runErr, fmt.Sprintf("stage %s failed", stage.Name)).
				WithDetail("stage", stage.Name)
		}

		if attempt == maxAttempts {
			e.transition(stage.Name, StateFailedFatal, attempt, lastErr)
			return lastErr
		}

		e.transition(stage.Name, StateFailedRetrying, attempt, lastErr)
		backoff := backoffWithJitter(baseBackoff, attempt)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return e.handleCancellation(stage.Name)
		}
	}

	return lastErr
}

// backoffWithJitter implements base * 2^(attempt-1) with 0-10% jitter.
func backoffWithJitter(base time.Duration, attempt int) time.Duration {
	mult := 1 << uint(attempt-1)
	d := base * time.Duration(mult)
	jitter := time.Duration(rand.Int63n(int64(d)/10 + 1))
	return d + jitter
}

// runScript executes one attempt of a stage's script, streaming
// stdout/stderr to both the workspace log file and the caller's console,
// forwarding SIGTERM then escalating to SIGKILL after GracePeriod if
// cancelled mid-run.
func (e *Executor) runScript(ctx context.Context, stage pipeline.Stage, scriptPath, ctxPath string, cancelled chan struct{}) (int, error) {
	cmd := exec.Command(scriptPath)
	cmd.Dir = e.Workspace.Root
	cmd.Env = append(os.Environ(), "ZTC_CONTEXT_FILE="+ctxPath)
	cmd.SysProcAttr = processGroupAttr()

	logPath := e.Workspace.LogPath(stage.Name)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return -1, ztcerr.Wrap(ztcerr.ScriptFailed, err, "opening stage log")
	}
	defer logFile.Close()

	cmd.Stdout = io2Writer(logFile, os.Stdout)
	cmd.Stderr = io2Writer(logFile, os.Stderr)

	if err := cmd.Start(); err != nil {
		return -1, ztcerr.Wrap(ztcerr.ScriptFailed, err, "starting stage script")
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err == nil {
			return 0, nil
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	case <-cancelled:
		terminateProcessGroup(cmd, syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(GracePeriod):
			terminateProcessGroup(cmd, syscall.SIGKILL)
			<-done
		}
		return -1, ztcerr.New(ztcerr.Cancelled, "stage "+stage.Name+" cancelled")
	case <-ctx.Done():
		terminateProcessGroup(cmd, syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(GracePeriod):
			terminateProcessGroup(cmd, syscall.SIGKILL)
			<-done
		}
		return -1, ztcerr.New(ztcerr.Cancelled, "stage "+stage.Name+" cancelled")
	}
}

func writeContextFile(path string, ctxPayload map[string]any) error {
	data, err := json.MarshalIndent(ctxPayload, "", "  ")
	if err != nil {
		return ztcerr.Wrap(ztcerr.ScriptFailed, err, "marshaling stage context")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return ztcerr.Wrap(ztcerr.ScriptFailed, err, "creating context directory")
	}
	return os.WriteFile(path, data, 0o600)
}

// multiWriter duplicates a script's output to the workspace log and the
// caller's console; defined locally rather than importing io for a single
// two-way fan-out, matching the two fixed destinations the executor always
// writes to.
type multiWriter struct {
	a, b *os.File
}

func (m multiWriter) Write(p []byte) (int, error) {
	n, err := m.a.Write(p)
	if err != nil {
		return n, err
	}
	_, _ = m.b.Write(p)
	return n, nil
}

func io2Writer(log, console *os.File) multiWriter {
	return multiWriter{a: log, b: console}
}
