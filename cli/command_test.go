package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStandardCommandFlags(t *testing.T) {
	cmd := NewStandardCommand("watch", "test command")

	var opts CommandOptions
	cmd.RunE = func(c *cobra.Command, args []string) error {
		opts = GetOptions(c)
		return nil
	}
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--verbose", "--json", "--config", "/tmp/watch.yml"})
	require.NoError(t, cmd.Execute())

	assert.True(t, opts.Verbose)
	assert.True(t, opts.JSONOutput)
	assert.Equal(t, "/tmp/watch.yml", opts.ConfigFile)
}

func TestGetLoggerVerbose(t *testing.T) {
	cmd := NewStandardCommand("watch", "test command")

	var logger *logrus.Logger
	cmd.RunE = func(c *cobra.Command, args []string) error {
		logger = GetLogger(c)
		return nil
	}
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--verbose"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewLoggerOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(
		WithOutput(&buf),
		WithLevel(logrus.WarnLevel),
		WithFormatter(&logrus.JSONFormatter{}),
	)

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, `"level":"warning"`)
}

func TestInitConfigExplicitPathWins(t *testing.T) {
	path, err := InitConfig("/explicit/watch.yml")
	require.NoError(t, err)
	assert.Equal(t, "/explicit/watch.yml", path)
}

func TestInitConfigFindsNearestFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "watch.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: json\n"), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	path, err := InitConfig("")
	require.NoError(t, err)
	resolved, _ := filepath.EvalSymlinks(path)
	want, _ := filepath.EvalSymlinks(cfgPath)
	assert.Equal(t, want, resolved)
}
