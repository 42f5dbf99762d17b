package config

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/watch/errors"
)

// configNames lists recognized configuration file names, in precedence order.
var configNames = []string{
	"watch.yml",
	"watch.yaml",
	"watch.toml",
	".watch.yml",
	".watch.yaml",
}

// FindConfigFile searches for a watch configuration file from startDir up to
// the filesystem root. Returns an error if none is found.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.ConfigNotFound(startDir)
}

// Load reads and parses the configuration file at path. The format is chosen
// by file extension: .toml is parsed as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigNotFound, "failed to read config file").
			WithDetail("path", path)
	}

	cfg := Default()
	if strings.HasSuffix(path, ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML config").
				WithDetail("path", path)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML config").
				WithDetail("path", path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the nearest config file above startDir, or returns the
// defaults when no file exists. A malformed file is still an error.
func LoadOrDefault(startDir string) (*Config, error) {
	path, err := FindConfigFile(startDir)
	if err != nil {
		return Default(), nil
	}
	return Load(path)
}

// validFormats lists accepted output format names.
var validFormats = map[string]bool{
	"json":    true,
	"pretty":  true,
	"events":  true,
	"summary": true,
}

// Validate checks the configuration for values that would fail later in the
// pipeline. Called before the run loop starts so failures are fatal here.
func (c *Config) Validate() error {
	if c.Root != "" {
		info, err := os.Stat(c.Root)
		if err != nil {
			return errors.RootInvalid(c.Root, err)
		}
		if !info.IsDir() {
			return errors.RootInvalid(c.Root, os.ErrInvalid)
		}
	}

	if c.Format != "" && !validFormats[c.Format] {
		return errors.ConfigInvalid("unknown output format: " + c.Format + " (use json, pretty, events, or summary)")
	}

	if c.DebounceMs < 0 {
		return errors.ConfigInvalid("debounce_ms must not be negative")
	}
	if c.StatusTTLMs < 0 {
		return errors.ConfigInvalid("status_ttl_ms must not be negative")
	}
	if c.MaxDepth < 0 {
		return errors.ConfigInvalid("max_depth must not be negative")
	}

	return nil
}
