// Package config holds every tunable the CLI and library surfaces read,
// backed by a YAML file under ~/.scribe by default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the persisted configuration shape. Field names match the YAML
// keys and the SCRIBE_* environment variables the CLI binds.
type Config struct {
	Root            string `yaml:"root" mapstructure:"root"`
	LogLevel        string `yaml:"log_level" mapstructure:"log_level"`
	LogFile         string `yaml:"log_file" mapstructure:"log_file"`
	Color           bool   `yaml:"color" mapstructure:"color"`
	Markdown        bool   `yaml:"markdown" mapstructure:"markdown"`
	Workers         int    `yaml:"workers" mapstructure:"workers"`
	CacheSize       int    `yaml:"cache_size" mapstructure:"cache_size"`
	MaxPreviewLines int    `yaml:"max_preview_lines" mapstructure:"max_preview_lines"`
}

const (
	defaultWorkers         = 4
	defaultCacheSize       = 64
	defaultMaxPreviewLines = 40
)

// Default returns the configuration used when no file, flag, or environment
// value overrides a field.
func Default() Config {
	return Config{
		Root:            ".",
		LogLevel:        "info",
		LogFile:         defaultLogFile(),
		Color:           true,
		Markdown:        true,
		Workers:         defaultWorkers,
		CacheSize:       defaultCacheSize,
		MaxPreviewLines: defaultMaxPreviewLines,
	}
}

// DefaultPath returns ~/.scribe/config.yaml, or empty when the home
// directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".scribe", "config.yaml")
}

func defaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".scribe", "scribe.log")
}

// Manager loads and saves the configuration file at a fixed path.
type Manager struct {
	path string
}

// NewManager returns a manager for path; empty means the default location.
func NewManager(path string) *Manager {
	if path == "" {
		path = DefaultPath()
	}
	return &Manager{path: path}
}

// Path returns the file the manager reads and writes.
func (m *Manager) Path() string { return m.path }

// Load reads the config file. A missing file is not an error: defaults are
// returned so first runs work without any setup.
func (m *Manager) Load() (Config, error) {
	cfg := Default()
	if m.path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", m.path, err)
	}
	Normalize(&cfg)
	return cfg, nil
}

// Save writes cfg to the manager's path, creating parent directories.
func (m *Manager) Save(cfg Config) error {
	if m.path == "" {
		return errors.New("no config path available")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Normalize trims path fields, expands a leading ~, and clamps numeric
// fields back to their defaults when out of range.
func Normalize(cfg *Config) {
	cfg.Root = ExpandHome(strings.TrimSpace(cfg.Root))
	cfg.LogFile = ExpandHome(strings.TrimSpace(cfg.LogFile))
	cfg.LogLevel = strings.TrimSpace(cfg.LogLevel)
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.CacheSize < 1 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.MaxPreviewLines < 0 {
		cfg.MaxPreviewLines = 0
	}
}

// ExpandHome rewrites a leading "~/" (or bare "~") against the home
// directory; anything else passes through untouched.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
