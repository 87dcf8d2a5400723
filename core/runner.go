package core

import (
	"context"

	"pkt.systems/termdeck/schema"
)

// SessionRunner spawns shell processes for panes.
type SessionRunner interface {
	Start(ctx context.Context, req StartSessionRequest) (SessionHandle, error)
}

// StartSessionRequest describes a shell session invocation.
type StartSessionRequest struct {
	PaneID     schema.PaneID
	WorkingDir string
	Env        []string
	Cols       int
	Rows       int
}

// SessionHandle exposes the process I/O and lifecycle controls.
type SessionHandle interface {
	Output() OutputStream
	Write(p []byte) (int, error)
	Resize(cols, rows int) error
	Signal(sig ProcessSignal) error
	Wait(ctx context.Context) (RunResult, error)
	// Shell reports the resolved shell executable path.
	Shell() string
	Close() error
}

// OutputStream yields raw output chunks from the shell process.
type OutputStream interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// RunResult describes the process outcome.
type RunResult struct {
	ExitCode int
}

// ProcessSignal indicates which signal to send to the process.
type ProcessSignal string

const (
	// ProcessSignalHUP requests a hangup signal.
	ProcessSignalHUP ProcessSignal = "HUP"
	// ProcessSignalTERM requests a termination signal.
	ProcessSignalTERM ProcessSignal = "TERM"
	// ProcessSignalKILL requests an immediate kill signal.
	ProcessSignalKILL ProcessSignal = "KILL"
)

// BackendClient performs one request/response cycle against a generation
// backend, with its own bounded timeout and single transient retry.
type BackendClient interface {
	Complete(ctx context.Context, req CompleteRequest) (string, error)
}

// CompleteRequest carries the prompt and per-call backend configuration.
type CompleteRequest struct {
	Model      schema.ModelID
	Prompt     string
	Endpoint   string
	Credential string
}

// SettingsSource supplies the mutable process-wide settings. The core reads
// it at session-creation and command-submission time; it never caches modes.
type SettingsSource interface {
	Get() schema.Settings
}
