// Package config loads the optional project configuration file.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = ".mdapply.yaml"

var (
	ErrNoConfig    = errors.New("config file not found")
	ErrInvalidYAML = errors.New("invalid config YAML")
)

// Config holds the project-level defaults. Flags override these.
type Config struct {
	LookupDirs []string `yaml:"lookup_dirs"`
	EditorSync *bool    `yaml:"editor_sync"` // reload buffers in a listening Neovim (default: true)
	Preview    *bool    `yaml:"preview"`     // render diff previews in the summary (default: false)
}

// Load reads the config from dir, falling back to defaults when the file
// does not exist.
func Load(dir string) (*Config, error) {
	cfg, err := LoadFrom(filepath.Join(dir, fileName))
	if errors.Is(err, ErrNoConfig) {
		cfg = &Config{}
		err = nil
	}
	if err != nil {
		return nil, err
	}

	if cfg.EditorSync == nil {
		t := true
		cfg.EditorSync = &t
	}
	if cfg.Preview == nil {
		f := false
		cfg.Preview = &f
	}
	return cfg, nil
}

// LoadFrom reads the config from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ErrInvalidYAML
	}
	return &cfg, nil
}
