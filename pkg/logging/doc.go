// Package logging provides the structured logging used across ztc's
// commands and components: a small wrapper around log/slog that tags every
// entry with a subsystem, plus an audit trail for security-sensitive
// operations (secure workspace lifecycle, atomic swap, script extraction).
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("resolver", "resolved %d adapters in %d phases", n, phases)
//	logging.Error("swap", err, "atomic swap of %s failed", dir)
//	logging.Audit(logging.AuditEvent{
//	    Action: "workspace_create", Outcome: "success", SessionID: id,
//	})
//
// Subsystems in use: resolver, render, template, artifact, pipeline, lock,
// swap, workspace, extractor, bootstrap, vacuum, config, AUDIT.
package logging
