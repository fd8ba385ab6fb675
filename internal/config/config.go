// Package config loads the backend configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/20after4/configdir"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// AppName names the configuration directory.
const AppName = "practice-timer"

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
	StorageNone   = "none"
)

// System preference sources.
const (
	SystemPortal = "portal"
	SystemClient = "client"
	SystemStatic = "static"
)

type ServerConfig struct {
	Port               string `toml:"port"`
	StaticDir          string `toml:"static_dir"`
	MaxExternalClients int    `toml:"max_external_clients"`
	AllowedOrigin      string `toml:"allowed_origin"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type ThemeConfig struct {
	SystemPreference  string `toml:"system_preference"`
	StaticPrefersDark bool   `toml:"static_prefers_dark"`
}

type LogConfig struct {
	Debug bool `toml:"debug"`
}

// Config is the full backend configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Theme   ThemeConfig   `toml:"theme"`
	Log     LogConfig     `toml:"log"`
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() string {
	return configdir.LocalConfig(AppName)
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.toml")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               "3001",
			MaxExternalClients: 4,
			AllowedOrigin:      "*",
		},
		Storage: StorageConfig{
			Backend: StorageSQLite,
			Path:    filepath.Join(DefaultDir(), "prefs.db"),
		},
		Theme: ThemeConfig{
			SystemPreference: SystemPortal,
		},
	}
}

// ReadConfigFile decodes path over the defaults.
func ReadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := DefaultConfig()
	if err := toml.NewDecoder(f).Decode(c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return c, nil
}

// WriteConfigFile writes c to path, creating the directory if needed.
func (c *Config) WriteConfigFile(path string) error {
	if err := configdir.MakePath(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	b, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Load reads path, or writes and returns the defaults when it does not exist.
func Load(path string) (*Config, error) {
	c, err := ReadConfigFile(path)
	if errors.Is(err, os.ErrNotExist) {
		c = DefaultConfig()
		if werr := c.WriteConfigFile(path); werr != nil {
			log.Warn().Err(werr).Str("path", path).Msg("Failed to write default config")
		} else {
			log.Info().Str("path", path).Msg("Wrote default config")
		}
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	return c, c.Validate()
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageSQLite, StorageMemory, StorageNone:
	default:
		return fmt.Errorf("invalid storage backend %q", c.Storage.Backend)
	}

	switch c.Theme.SystemPreference {
	case SystemPortal, SystemClient, SystemStatic:
	default:
		return fmt.Errorf("invalid system preference source %q", c.Theme.SystemPreference)
	}

	if c.Server.Port == "" {
		return errors.New("server port must not be empty")
	}
	if c.Server.MaxExternalClients < 0 {
		return fmt.Errorf("max_external_clients must not be negative, got %d", c.Server.MaxExternalClients)
	}
	return nil
}
