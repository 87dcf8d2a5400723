package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPane indicates an invalid pane identifier.
	ErrInvalidPane = errors.New("invalid pane")
	// ErrPaneNotFound indicates a requested pane could not be found.
	ErrPaneNotFound = errors.New("pane not found")
	// ErrEmptyPrompt indicates the prompt was empty.
	ErrEmptyPrompt = errors.New("empty prompt")
	// ErrInvalidMode indicates an unknown execution mode.
	ErrInvalidMode = errors.New("invalid execution mode")
	// ErrInvalidModel indicates an invalid model identifier.
	ErrInvalidModel = errors.New("invalid model")
	// ErrInvalidRoute indicates an unknown agent route.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrMissingCredential indicates the cloud backend has no credential configured.
	ErrMissingCredential = errors.New("missing cloud credential")
	// ErrRouterUnavailable indicates no agent backend is configured.
	ErrRouterUnavailable = errors.New("agent backend not configured")
	// ErrSessionRunnerUnavailable indicates no session runner is configured.
	ErrSessionRunnerUnavailable = errors.New("session runner not configured")
)

// PolicyViolationError reports a command rejected by the policy filter.
type PolicyViolationError struct {
	Reason string
}

// Error implements error.
func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("policy violation: %s", e.Reason)
}

// BackendError reports a failed backend request.
type BackendError struct {
	Route     AgentRoute
	Status    int
	Transient bool
	Message   string
}

// Error implements error.
func (e *BackendError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s backend error: status %d: %s", e.Route, e.Status, e.Message)
	}
	return fmt.Sprintf("%s backend error: %s", e.Route, e.Message)
}
