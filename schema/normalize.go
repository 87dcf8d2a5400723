package schema

import (
	"strings"
	"unicode"
)

// NormalizeExecutionMode validates and normalizes an execution mode value.
// Allowed values: sandboxed, system-wide, dual-stream.
func NormalizeExecutionMode(value string) (ExecutionMode, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	switch ExecutionMode(trimmed) {
	case ModeSandboxed, ModeSystemWide, ModeDualStream:
		return ExecutionMode(trimmed), nil
	default:
		return "", ErrInvalidMode
	}
}

// NormalizeRoute validates and normalizes an agent route value.
func NormalizeRoute(value string) (AgentRoute, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	switch AgentRoute(trimmed) {
	case RouteLocal, RouteCloud:
		return AgentRoute(trimmed), nil
	default:
		return "", ErrInvalidRoute
	}
}

// NormalizeModelID validates and normalizes a model identifier.
// Allowed characters: A-Z, a-z, 0-9, '.', '_', '-', ':'.
func NormalizeModelID(model string) (ModelID, error) {
	trimmed := strings.TrimSpace(model)
	if trimmed == "" {
		return "", ErrInvalidModel
	}
	for _, r := range trimmed {
		if r == '.' || r == '_' || r == '-' || r == ':' {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return "", ErrInvalidModel
	}
	return ModelID(trimmed), nil
}

// ValidatePaneID ensures a pane id is non-empty with no surrounding space.
func ValidatePaneID(paneID PaneID) error {
	raw := string(paneID)
	if raw == "" {
		return ErrInvalidPane
	}
	if strings.TrimSpace(raw) != raw {
		return ErrInvalidPane
	}
	for _, r := range raw {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == '_' || r == '-' {
			continue
		}
		return ErrInvalidPane
	}
	return nil
}
