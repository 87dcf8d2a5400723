package schema

import (
	"errors"
	"os"
)

// ServiceConfig defines defaults and limits for the core service.
type ServiceConfig struct {
	// ProjectRoot is the working directory for sandboxed and dual-stream sessions.
	ProjectRoot string
	// ShellCandidates are probed in order when resolving the shell executable.
	ShellCandidates []string
	// DefaultShell is used when no candidate resolves.
	DefaultShell string
	// ScrollbackMaxLines bounds the per-pane scrollback buffer.
	ScrollbackMaxLines int
	// HistoryMaxEntries bounds the per-pane input history.
	HistoryMaxEntries int
}

// DefaultScrollbackMaxLines is the default per-pane scrollback limit.
const DefaultScrollbackMaxLines = 5000

// DefaultHistoryMaxEntries is the default per-pane input history limit.
const DefaultHistoryMaxEntries = 200

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.ProjectRoot = wd
	}
	if len(cfg.ShellCandidates) == 0 {
		cfg.ShellCandidates = []string{"/bin/zsh", "/bin/bash"}
	}
	if cfg.DefaultShell == "" {
		cfg.DefaultShell = "/bin/sh"
	}
	if cfg.ScrollbackMaxLines <= 0 {
		cfg.ScrollbackMaxLines = DefaultScrollbackMaxLines
	}
	if cfg.HistoryMaxEntries <= 0 {
		cfg.HistoryMaxEntries = DefaultHistoryMaxEntries
	}
	if cfg.ScrollbackMaxLines < cfg.HistoryMaxEntries {
		return ServiceConfig{}, errors.New("scrollback limit must not be below history limit")
	}
	return cfg, nil
}
