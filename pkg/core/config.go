// pkg/core/config.go
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// PrefixEnv overrides the install prefix
const PrefixEnv = "BREWLET_PREFIX"

// Config holds brewlet configuration
type Config struct {
	Prefix    string            `yaml:"prefix"`
	CachePath string            `yaml:"cache_path"`
	Shell     string            `yaml:"shell"`
	ShellArgs []string          `yaml:"shell_args"`
	Timeout   time.Duration     `yaml:"timeout"`
	Debug     bool              `yaml:"debug"`
	Taps      map[string]string `yaml:"taps"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Prefix:    getDefaultPrefix(),
		CachePath: filepath.Join(xdg.CacheHome, "brewlet"),
		Shell:     "zsh",
		ShellArgs: []string{"-lc"},
		Timeout:   2 * time.Minute,
		Debug:     false,
		Taps:      make(map[string]string),
	}
}

// DefaultPath is where LoadConfig looks when no path is given
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "brewlet", "config.yaml")
}

// LoadConfig loads configuration from file. Fields the file leaves
// out keep their defaults; a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if prefix := os.Getenv(PrefixEnv); prefix != "" {
		cfg.Prefix = prefix
	}
	if cfg.Taps == nil {
		cfg.Taps = make(map[string]string)
	}

	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// getDefaultPrefix follows Homebrew on macOS and keeps to the user's
// home everywhere else
func getDefaultPrefix() string {
	if path := os.Getenv(PrefixEnv); path != "" {
		return path
	}

	if runtime.GOOS == "darwin" {
		if runtime.GOARCH == "arm64" {
			return "/opt/homebrew"
		}
		return "/usr/local"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "brewlet")
	}

	return filepath.Join(home, ".brewlet")
}
