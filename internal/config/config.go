// Package config handles the configuration directory, its files and the
// optional config.yaml settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "taskdeck"

	// SettingsFile holds optional settings (api_url, timeout, format).
	SettingsFile = "config.yaml"

	// TokenFile is the stored bearer credential.
	TokenFile = "token"

	// UserFile is the stored identity snapshot.
	UserFile = "user.json"

	// GoogleClientFile is the OAuth client used by the Google Tasks mirror.
	GoogleClientFile = "google_client.json"

	// GoogleTokenFile is the OAuth token used by the Google Tasks mirror.
	GoogleTokenFile = "google_token.json"

	// EnvPrefix prefixes environment overrides, e.g. TASKDECK_API_URL.
	EnvPrefix = "TASKDECK"
)

// Defaults for settings absent from config.yaml and the environment.
const (
	DefaultAPIURL  = "http://localhost:5000/api"
	DefaultTimeout = 10 * time.Second
	FormatText     = "text"
	FormatYAML     = "yaml"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the base URL of the persistence service.
	APIURL string

	// Timeout bounds every call to the persistence service.
	Timeout time.Duration

	// Format selects text or yaml rendering.
	Format string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Yes answers destructive confirmation prompts with yes.
	Yes bool
}

// New creates a Config for configDir, or the default directory when
// configDir is empty, and loads settings from config.yaml and TASKDECK_*
// environment variables.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Load reads config.yaml (if present) and the environment into c.
func (c *Config) Load() error {
	v := viper.New()
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("format", FormatText)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if _, err := os.Stat(c.SettingsPath()); err == nil {
		v.SetConfigFile(c.SettingsPath())
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	c.APIURL = strings.TrimRight(v.GetString("api_url"), "/")
	c.Timeout = v.GetDuration("timeout")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c.SetFormat(v.GetString("format"))
}

// SetFormat validates and sets the output format.
func (c *Config) SetFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		c.Format = FormatText
	case FormatYAML:
		c.Format = FormatYAML
	default:
		return fmt.Errorf("invalid format: %s", format)
	}
	return nil
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// TokenPath returns the path to the stored bearer credential.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// UserPath returns the path to the stored identity snapshot.
func (c *Config) UserPath() string {
	return filepath.Join(c.Dir, UserFile)
}

// GoogleClientPath returns the path to the mirror's OAuth client file.
func (c *Config) GoogleClientPath() string {
	return filepath.Join(c.Dir, GoogleClientFile)
}

// GoogleTokenPath returns the path to the mirror's OAuth token file.
func (c *Config) GoogleTokenPath() string {
	return filepath.Join(c.Dir, GoogleTokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasGoogleClient checks if the mirror's OAuth client file exists.
func (c *Config) HasGoogleClient() bool {
	_, err := os.Stat(c.GoogleClientPath())
	return err == nil
}

// HasGoogleToken checks if the mirror's OAuth token file exists.
func (c *Config) HasGoogleToken() bool {
	_, err := os.Stat(c.GoogleTokenPath())
	return err == nil
}
