package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfigVersion != CurrentConfigVersion {
		t.Fatalf("config_version = %d", cfg.ConfigVersion)
	}
	if cfg.Backends.Local.Endpoint != "http://127.0.0.1:11434" {
		t.Fatalf("local endpoint = %q", cfg.Backends.Local.Endpoint)
	}
}

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 99
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRejectsInvalidDefaultMode(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
service:
  default_mode: turbo
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "default_mode") {
		t.Fatalf("expected default_mode error, got %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
project_root: /work/project
shell:
  candidates: ["fish", "bash"]
service:
  scrollback_max_lines: 100
  default_mode: dual-stream
backends:
  cloud:
    endpoint: https://example.test/v1/chat/completions
    model: gpt-4o
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProjectRoot != "/work/project" {
		t.Fatalf("project_root = %q", cfg.ProjectRoot)
	}
	if len(cfg.Shell.Candidates) != 2 || cfg.Shell.Candidates[0] != "fish" {
		t.Fatalf("candidates = %v", cfg.Shell.Candidates)
	}
	if cfg.Service.ScrollbackMaxLines != 100 {
		t.Fatalf("scrollback = %d", cfg.Service.ScrollbackMaxLines)
	}
	if cfg.Backends.Cloud.Model != "gpt-4o" {
		t.Fatalf("cloud model = %q", cfg.Backends.Cloud.Model)
	}
	if cfg.Backends.Local.Model != "llama3.2" {
		t.Fatalf("local model default lost: %q", cfg.Backends.Local.Model)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$UID/$GID/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if strings.Contains(value, "$UID") || strings.Contains(value, "$GID") {
		t.Fatalf("expected UID/GID expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config to exist: %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
