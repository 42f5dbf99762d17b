package watcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIgnoreFile(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte(content), 0644))
}

func TestMatcherDefaultExcludes(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMatcher(dir, true, false, nil)
	require.NoError(t, err)

	assert.True(t, m.IsIgnored(filepath.Join(dir, ".git")))
	assert.True(t, m.IsIgnored(filepath.Join(dir, ".git", "objects", "ab")))
	assert.True(t, m.IsIgnored(filepath.Join(dir, "node_modules")))
	assert.True(t, m.IsIgnored(filepath.Join(dir, "sub", "node_modules", "pkg", "index.js")))
	assert.True(t, m.IsIgnored(filepath.Join(dir, "main.go.swp")))
	assert.True(t, m.IsIgnored(filepath.Join(dir, "src", ".DS_Store")))

	assert.False(t, m.IsIgnored(filepath.Join(dir, "main.go")))
	assert.False(t, m.IsIgnored(filepath.Join(dir, "src", "lib.rs")))
}

func TestMatcherDefaultExcludesDisabled(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMatcher(dir, false, false, nil)
	require.NoError(t, err)

	assert.False(t, m.IsIgnored(filepath.Join(dir, ".git")))
	assert.False(t, m.IsIgnored(filepath.Join(dir, "node_modules")))
}

func TestMatcherIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, `
# build output
*.o
/secrets.txt
logs/
`)

	m, err := NewMatcher(dir, false, true, nil)
	require.NoError(t, err)

	// Slashless rules match at any depth.
	assert.True(t, m.IsIgnored(filepath.Join(dir, "a.o")))
	assert.True(t, m.IsIgnored(filepath.Join(dir, "deep", "nested", "b.o")))

	// Leading slash anchors to the root.
	assert.True(t, m.IsIgnored(filepath.Join(dir, "secrets.txt")))
	assert.False(t, m.IsIgnored(filepath.Join(dir, "sub", "secrets.txt")))

	// Directory rules cover contents.
	assert.True(t, m.IsIgnored(filepath.Join(dir, "logs")))
	assert.True(t, m.IsIgnored(filepath.Join(dir, "logs", "app.log")))

	assert.False(t, m.IsIgnored(filepath.Join(dir, "main.c")))
}

func TestMatcherNegation(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, `
*.log
!important.log
`)

	m, err := NewMatcher(dir, false, true, nil)
	require.NoError(t, err)

	assert.True(t, m.IsIgnored(filepath.Join(dir, "debug.log")))
	assert.False(t, m.IsIgnored(filepath.Join(dir, "important.log")))
}

func TestMatcherMissingIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMatcher(dir, false, true, nil)
	require.NoError(t, err)

	assert.False(t, m.IsIgnored(filepath.Join(dir, "anything.txt")))
}

func TestMatcherExtraPatternsWinOverIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, "!keep.tmp\n")

	m, err := NewMatcher(dir, true, true, []string{"keep.tmp"})
	require.NoError(t, err)

	// extraPatterns are appended last and later rules win.
	assert.True(t, m.IsIgnored(filepath.Join(dir, "keep.tmp")))
}

func TestMatcherMalformedPatternFailsFast(t *testing.T) {
	dir := t.TempDir()
	_, err := NewMatcher(dir, false, false, []string{"[invalid"})
	require.Error(t, err)
}

func TestMatcherNeverIgnoresRootOrOutside(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMatcher(dir, true, false, []string{"*"})
	require.NoError(t, err)

	assert.False(t, m.IsIgnored(dir))
	assert.False(t, m.IsIgnored("/somewhere/else/file.txt"))
}
