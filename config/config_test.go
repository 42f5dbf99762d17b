package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/watch/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "pretty", cfg.Format)
	assert.Equal(t, 100, cfg.DebounceMs)
	assert.Equal(t, 500, cfg.StatusTTLMs)
	assert.True(t, cfg.GitignoreEnabled())
	assert.True(t, cfg.DefaultExcludesEnabled())
	assert.True(t, cfg.RecursiveEnabled())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watch.yml")
	content := `root: ` + dir + `
format: json
debounce_ms: 250
status_ttl_ms: 2000
ignore_patterns:
  - "*.log"
  - "tmp/"
use_gitignore: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 250, cfg.DebounceMs)
	assert.Equal(t, 2000, cfg.StatusTTLMs)
	assert.Equal(t, []string{"*.log", "tmp/"}, cfg.IgnorePatterns)
	assert.False(t, cfg.GitignoreEnabled())
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watch.toml")
	content := `root = "` + dir + `"
format = "events"
debounce_ms = 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "events", cfg.Format)
	assert.Equal(t, 50, cfg.DebounceMs)
}

func TestLoadInvalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/non/existent/watch.yml")
		assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "watch.yml")
		require.NoError(t, os.WriteFile(path, []byte("root: [unclosed"), 0644))

		_, err := Load(path)
		assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
	})

	t.Run("bad format", func(t *testing.T) {
		cfg := Default()
		cfg.Root = t.TempDir()
		cfg.Format = "xml"
		assert.True(t, errors.Is(cfg.Validate(), errors.ErrCodeConfigInvalid))
	})

	t.Run("missing root", func(t *testing.T) {
		cfg := Default()
		cfg.Root = "/does/not/exist"
		assert.True(t, errors.Is(cfg.Validate(), errors.ErrCodeRootInvalid))
	})
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	path := filepath.Join(root, "watch.yml")
	require.NoError(t, os.WriteFile(path, []byte("format: json\n"), 0644))

	found, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, path, found)

	_, err = FindConfigFile(filepath.Join(os.TempDir(), "definitely-no-config-here"))
	// Walks up to / which may not contain a config; an error is acceptable
	// only when nothing is found anywhere above the start directory.
	if err != nil {
		assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
	}
}

func TestUnmarshalExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watch.yml")
	content := `format: json
statusbar:
  segment: git
  refresh_ms: 1000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	var ext struct {
		Segment   string `yaml:"segment"`
		RefreshMs int    `yaml:"refresh_ms"`
	}
	require.NoError(t, cfg.UnmarshalExtension("statusbar", &ext))
	assert.Equal(t, "git", ext.Segment)
	assert.Equal(t, 1000, ext.RefreshMs)

	// Missing key leaves target zero-valued
	var other struct {
		X string `yaml:"x"`
	}
	require.NoError(t, cfg.UnmarshalExtension("nope", &other))
	assert.Empty(t, other.X)
}
