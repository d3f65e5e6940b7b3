// Package userconfig keeps per-user CLI preferences in
// ~/.config/skillorbit/config.json. Keys this version does not know about
// are carried through every write untouched.
package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName  = "skillorbit"
	configFileName = "config.json"

	keyLastEmail = "last_email"
)

// UserConfig is the decoded preferences file
type UserConfig struct {
	LastEmail string

	// other keys as found on disk
	extra map[string]json.RawMessage
}

func (c *UserConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw[keyLastEmail]; ok {
		if err := json.Unmarshal(v, &c.LastEmail); err != nil {
			return fmt.Errorf("%s: %w", keyLastEmail, err)
		}
		delete(raw, keyLastEmail)
	}
	c.extra = raw
	return nil
}

func (c UserConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.extra)+1)
	for k, v := range c.extra {
		out[k] = v
	}
	if c.LastEmail != "" {
		out[keyLastEmail] = c.LastEmail
	}
	return json.Marshal(out)
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", configDirName, configFileName), nil
}

// Load reads the user configuration file. A missing file is an empty config.
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}
	return &cfg, nil
}

// Save replaces the file through a rename so readers never see a partial write
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	tmp, err := os.CreateTemp(configDir, configFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), configPath); err != nil {
		return fmt.Errorf("failed to replace user config file: %w", err)
	}
	return nil
}

// Update loads the file, applies fn and saves the result
func Update(fn func(*UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	fn(cfg)
	return Save(cfg)
}

// SetLastEmail remembers the email of the last successful sign-in.
// An empty email forgets it.
func SetLastEmail(email string) error {
	return Update(func(cfg *UserConfig) {
		cfg.LastEmail = email
	})
}

// GetLastEmail returns the remembered email, or empty string if not set
func GetLastEmail() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.LastEmail, nil
}
