package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/termdeck/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	ProjectRoot   string         `mapstructure:"project_root" yaml:"project_root"`
	StateDir      string         `mapstructure:"state_dir" yaml:"state_dir"`
	Shell         ShellConfig    `mapstructure:"shell" yaml:"shell"`
	Service       ServiceConfig  `mapstructure:"service" yaml:"service"`
	Backends      BackendsConfig `mapstructure:"backends" yaml:"backends"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ShellConfig controls shell resolution for new panes.
type ShellConfig struct {
	Candidates []string `mapstructure:"candidates" yaml:"candidates"`
	Default    string   `mapstructure:"default" yaml:"default"`
}

// ServiceConfig controls core service behavior.
type ServiceConfig struct {
	ScrollbackMaxLines int    `mapstructure:"scrollback_max_lines" yaml:"scrollback_max_lines"`
	HistoryMaxEntries  int    `mapstructure:"history_max_entries" yaml:"history_max_entries"`
	DefaultMode        string `mapstructure:"default_mode" yaml:"default_mode"`
}

// BackendsConfig configures the generation backends.
type BackendsConfig struct {
	Local BackendConfig `mapstructure:"local" yaml:"local"`
	Cloud BackendConfig `mapstructure:"cloud" yaml:"cloud"`
}

// BackendConfig configures one generation backend.
type BackendConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Model    string `mapstructure:"model" yaml:"model"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	projectRoot, err := os.Getwd()
	if err != nil {
		projectRoot = home
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		ProjectRoot:   projectRoot,
		StateDir:      filepath.Join(home, ".termdeck", "state"),
		Shell: ShellConfig{
			Candidates: []string{"zsh", "bash", "sh"},
			Default:    "/bin/sh",
		},
		Service: ServiceConfig{
			ScrollbackMaxLines: schema.DefaultScrollbackMaxLines,
			HistoryMaxEntries:  schema.DefaultHistoryMaxEntries,
			DefaultMode:        string(schema.ModeSandboxed),
		},
		Backends: BackendsConfig{
			Local: BackendConfig{
				Endpoint: "http://127.0.0.1:11434",
				Model:    "llama3.2",
			},
			Cloud: BackendConfig{
				Endpoint: "",
				Model:    "gpt-4o-mini",
			},
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".termdeck", "config.yaml"), nil
}
