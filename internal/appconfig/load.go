package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"pkt.systems/termdeck/schema"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("project_root", cfg.ProjectRoot)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("shell.candidates", cfg.Shell.Candidates)
	v.SetDefault("shell.default", cfg.Shell.Default)
	v.SetDefault("service.scrollback_max_lines", cfg.Service.ScrollbackMaxLines)
	v.SetDefault("service.history_max_entries", cfg.Service.HistoryMaxEntries)
	v.SetDefault("service.default_mode", cfg.Service.DefaultMode)
	v.SetDefault("backends.local.endpoint", cfg.Backends.Local.Endpoint)
	v.SetDefault("backends.local.model", cfg.Backends.Local.Model)
	v.SetDefault("backends.cloud.endpoint", cfg.Backends.Cloud.Endpoint)
	v.SetDefault("backends.cloud.model", cfg.Backends.Cloud.Model)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return Config{}, err
			}
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.Service.DefaultMode != "" {
		if _, err := schema.NormalizeExecutionMode(cfg.Service.DefaultMode); err != nil {
			return fmt.Errorf("service.default_mode %q is not a valid execution mode", cfg.Service.DefaultMode)
		}
	}
	if cfg.Service.ScrollbackMaxLines < 0 {
		return fmt.Errorf("service.scrollback_max_lines must not be negative")
	}
	if cfg.Service.HistoryMaxEntries < 0 {
		return fmt.Errorf("service.history_max_entries must not be negative")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.ProjectRoot = expandEnv(cfg.ProjectRoot)
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Shell.Default = expandEnv(cfg.Shell.Default)
	for i, candidate := range cfg.Shell.Candidates {
		cfg.Shell.Candidates[i] = expandEnv(candidate)
	}
	cfg.Backends.Local.Endpoint = expandEnv(cfg.Backends.Local.Endpoint)
	cfg.Backends.Cloud.Endpoint = expandEnv(cfg.Backends.Cloud.Endpoint)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
