// Package settings persists the mutable runtime settings. The plain fields
// live in a JSON file; the cloud credential is encrypted at rest with a key
// store managed by kryptograf and never written in clear nor logged.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pkt.systems/kryptograf"
	"pkt.systems/kryptograf/keymgmt"
	"pkt.systems/pslog"
	"pkt.systems/termdeck/schema"
)

const (
	settingsFile   = "settings.json"
	credentialFile = "credential.enc"
	keyStoreFile   = "keys.pb"
	descriptorName = "termdeck:cloud-credential"
)

// Options configure a settings store.
type Options struct {
	// Dir is the state directory holding settings, credential and key files.
	Dir string
	// Defaults fill fields absent from the persisted settings.
	Defaults schema.Settings
	Logger   pslog.Logger
}

// Store implements core.SettingsSource backed by the state directory.
type Store struct {
	dir string
	log pslog.Logger

	mu      sync.RWMutex
	current schema.Settings
}

// fileSettings is the on-disk shape. The credential is deliberately absent.
type fileSettings struct {
	ExecutionMode string `json:"execution_mode,omitempty"`
	LocalModel    string `json:"local_model,omitempty"`
	CloudModel    string `json:"cloud_model,omitempty"`
	CloudEndpoint string `json:"cloud_endpoint,omitempty"`
}

// NewStore opens the settings store, creating the state directory and the
// encryption key store on first use.
func NewStore(opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("settings directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("settings_dir", opts.Dir)
	}
	s := &Store{dir: opts.Dir, log: logger, current: opts.Defaults}
	if s.current.ExecutionMode == "" {
		s.current.ExecutionMode = schema.ModeSandboxed
	}
	if err := s.ensureKeyStore(); err != nil {
		return nil, err
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() schema.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set applies a partial update, validates it, persists and returns the
// resulting settings.
func (s *Store) Set(patch schema.SettingsPatch) (schema.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if patch.ExecutionMode != nil {
		mode, err := schema.NormalizeExecutionMode(string(*patch.ExecutionMode))
		if err != nil {
			return s.current, err
		}
		next.ExecutionMode = mode
	}
	if patch.LocalModel != nil {
		model, err := schema.NormalizeModelID(string(*patch.LocalModel))
		if err != nil {
			return s.current, err
		}
		next.LocalModel = model
	}
	if patch.CloudModel != nil {
		model, err := schema.NormalizeModelID(string(*patch.CloudModel))
		if err != nil {
			return s.current, err
		}
		next.CloudModel = model
	}
	if patch.CloudEndpoint != nil {
		next.CloudEndpoint = strings.TrimSpace(*patch.CloudEndpoint)
	}
	credentialChanged := false
	if patch.CloudCredential != nil {
		next.CloudCredential = strings.TrimSpace(*patch.CloudCredential)
		credentialChanged = true
	}

	if err := s.saveSettings(next); err != nil {
		return s.current, err
	}
	if credentialChanged {
		if err := s.saveCredential(next.CloudCredential); err != nil {
			return s.current, err
		}
	}
	s.current = next
	if s.log != nil {
		s.log.Info("settings updated",
			"mode", next.ExecutionMode,
			"local_model", next.LocalModel,
			"cloud_model", next.CloudModel,
			"credential_set", next.CloudCredential != "")
	}
	return next, nil
}

func (s *Store) ensureKeyStore() error {
	store, err := keymgmt.LoadProto(s.keyStorePath())
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	if _, err := store.EnsureRootKey(); err != nil {
		return fmt.Errorf("ensure root key: %w", err)
	}
	return store.Commit()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.settingsPath())
	if err == nil {
		var persisted fileSettings
		if err := json.Unmarshal(data, &persisted); err != nil {
			return fmt.Errorf("parse %s: %w", settingsFile, err)
		}
		if persisted.ExecutionMode != "" {
			mode, err := schema.NormalizeExecutionMode(persisted.ExecutionMode)
			if err != nil {
				return fmt.Errorf("parse %s: %w", settingsFile, err)
			}
			s.current.ExecutionMode = mode
		}
		if persisted.LocalModel != "" {
			s.current.LocalModel = schema.ModelID(persisted.LocalModel)
		}
		if persisted.CloudModel != "" {
			s.current.CloudModel = schema.ModelID(persisted.CloudModel)
		}
		if persisted.CloudEndpoint != "" {
			s.current.CloudEndpoint = persisted.CloudEndpoint
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	credential, err := s.loadCredential()
	if err != nil {
		return err
	}
	if credential != "" {
		s.current.CloudCredential = credential
	}
	if s.log != nil {
		s.log.Debug("settings loaded",
			"mode", s.current.ExecutionMode,
			"credential_set", s.current.CloudCredential != "")
	}
	return nil
}

func (s *Store) saveSettings(settings schema.Settings) error {
	data, err := json.MarshalIndent(fileSettings{
		ExecutionMode: string(settings.ExecutionMode),
		LocalModel:    string(settings.LocalModel),
		CloudModel:    string(settings.CloudModel),
		CloudEndpoint: settings.CloudEndpoint,
	}, "", "  ")
	if err != nil {
		return err
	}
	return s.writeAtomic(s.settingsPath(), data)
}

func (s *Store) saveCredential(credential string) error {
	path := s.credentialPath()
	if credential == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	material, root, err := s.material()
	if err != nil {
		return err
	}
	kg := kryptograf.New(root)
	var buf bytes.Buffer
	writer, err := kg.EncryptWriter(&buf, material)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(writer, credential); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return s.writeAtomic(path, buf.Bytes())
}

func (s *Store) loadCredential() (string, error) {
	file, err := os.Open(s.credentialPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	defer func() { _ = file.Close() }()
	material, root, err := s.material()
	if err != nil {
		return "", err
	}
	kg := kryptograf.New(root)
	reader, err := kg.DecryptReader(file, material)
	if err != nil {
		return "", fmt.Errorf("decrypt credential: %w", err)
	}
	defer func() { _ = reader.Close() }()
	plain, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("decrypt credential: %w", err)
	}
	return string(plain), nil
}

func (s *Store) material() (keymgmt.Material, keymgmt.RootKey, error) {
	store, err := keymgmt.LoadProto(s.keyStorePath())
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	root, err := store.EnsureRootKey()
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	material, err := store.EnsureDescriptor(descriptorName, root, []byte(descriptorName))
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	if err := store.Commit(); err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	return material, root, nil
}

func (s *Store) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *Store) settingsPath() string   { return filepath.Join(s.dir, settingsFile) }
func (s *Store) credentialPath() string { return filepath.Join(s.dir, credentialFile) }
func (s *Store) keyStorePath() string   { return filepath.Join(s.dir, keyStoreFile) }
