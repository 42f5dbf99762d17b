package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/grovetools/watch/logging"
)

// Config is the top-level configuration for a watch session. It can be loaded
// from watch.yml / watch.toml or assembled directly from CLI flags.
type Config struct {
	// Root is the directory to watch. Defaults to the current directory.
	Root string `yaml:"root,omitempty" toml:"root,omitempty"`

	// Format selects the output format: json, pretty, events, or summary.
	Format string `yaml:"format,omitempty" toml:"format,omitempty"`

	// DebounceMs is the coalescing window in milliseconds.
	DebounceMs int `yaml:"debounce_ms,omitempty" toml:"debounce_ms,omitempty"`

	// StatusTTLMs is the git status cache time-to-live in milliseconds.
	StatusTTLMs int `yaml:"status_ttl_ms,omitempty" toml:"status_ttl_ms,omitempty"`

	// TickMs is the orchestrator poll interval in milliseconds.
	TickMs int `yaml:"tick_ms,omitempty" toml:"tick_ms,omitempty"`

	// Git enables git status enrichment. Nil means auto-detect.
	Git *bool `yaml:"git,omitempty" toml:"git,omitempty"`

	// UseGitignore controls whether .gitignore rules at the root are applied.
	UseGitignore *bool `yaml:"use_gitignore,omitempty" toml:"use_gitignore,omitempty"`

	// DefaultExcludes controls whether the built-in exclude list is applied.
	DefaultExcludes *bool `yaml:"default_excludes,omitempty" toml:"default_excludes,omitempty"`

	// IgnorePatterns are extra ignore patterns applied after file-derived rules.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty" toml:"ignore_patterns,omitempty"`

	// Recursive enables recursive watching. Nil means true.
	Recursive *bool `yaml:"recursive,omitempty" toml:"recursive,omitempty"`

	// MaxDepth limits recursion depth; 0 means unlimited.
	MaxDepth int `yaml:"max_depth,omitempty" toml:"max_depth,omitempty"`

	// Listen is an optional address for the websocket broadcast server
	// (e.g., "127.0.0.1:7799"). Empty disables it.
	Listen string `yaml:"listen,omitempty" toml:"listen,omitempty"`

	// Logging configures the structured logging subsystem.
	Logging logging.Config `yaml:"logging,omitempty" toml:"logging,omitempty"`

	// Extensions holds tool-specific sections that are not part of the core
	// schema. Decoded on demand with UnmarshalExtension.
	Extensions map[string]interface{} `yaml:",inline" toml:"-"`
}

// Default returns a Config populated with the standard defaults.
func Default() *Config {
	return &Config{
		Root:        ".",
		Format:      "pretty",
		DebounceMs:  100,
		StatusTTLMs: 500,
		TickMs:      100,
	}
}

// DebounceWindow returns the debounce window as a Duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// StatusTTL returns the status cache TTL as a Duration.
func (c *Config) StatusTTL() time.Duration {
	return time.Duration(c.StatusTTLMs) * time.Millisecond
}

// Tick returns the orchestrator poll interval as a Duration.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

// GitignoreEnabled reports whether .gitignore rules should be applied.
func (c *Config) GitignoreEnabled() bool {
	return c.UseGitignore == nil || *c.UseGitignore
}

// DefaultExcludesEnabled reports whether the built-in exclude list applies.
func (c *Config) DefaultExcludesEnabled() bool {
	return c.DefaultExcludes == nil || *c.DefaultExcludes
}

// RecursiveEnabled reports whether subdirectories are watched.
func (c *Config) RecursiveEnabled() bool {
	return c.Recursive == nil || *c.Recursive
}

// UnmarshalExtension decodes a tool-specific extension section into target.
// A missing key is not an error; the target simply stays zero-valued.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	// Use mapstructure to decode the generic map[string]interface{} into the
	// strongly-typed target struct, keyed by yaml tags for consistency.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
