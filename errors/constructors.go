package errors

import (
	"fmt"
	"os/exec"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *WatchError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *WatchError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// PatternInvalid creates a malformed ignore pattern error
func PatternInvalid(pattern string, err error) *WatchError {
	return Wrap(err, ErrCodePatternInvalid, fmt.Sprintf("malformed ignore pattern: %q", pattern)).
		WithDetail("pattern", pattern)
}

// RootInvalid creates an invalid watch root error
func RootInvalid(path string, err error) *WatchError {
	return Wrap(err, ErrCodeRootInvalid, fmt.Sprintf("invalid watch root: %s", path)).
		WithDetail("path", path)
}

// WatchIO creates a recoverable single-path I/O error
func WatchIO(path string, err error) *WatchError {
	return Wrap(err, ErrCodeWatchIO, fmt.Sprintf("watch I/O error on %s", path)).
		WithDetail("path", path)
}

// RootLost creates a fatal error for a deleted or unmounted watch root
func RootLost(path string) *WatchError {
	return New(ErrCodeWatchRootLost, fmt.Sprintf("watched root is no longer accessible: %s", path)).
		WithDetail("path", path)
}

// ChannelClosed creates a fatal error for an unexpectedly closed event channel
func ChannelClosed() *WatchError {
	return New(ErrCodeWatchChannelClosed, "event channel closed unexpectedly")
}

// NotARepository creates a no-repository error; callers treat this as a
// "no status" outcome rather than a failure.
func NotARepository(path string) *WatchError {
	return New(ErrCodeNotARepository, fmt.Sprintf("not a git repository: %s", path)).
		WithDetail("path", path)
}

// GitStatusFailed creates a git status query failure error
func GitStatusFailed(err error) *WatchError {
	return Wrap(err, ErrCodeGitStatusFailed, "failed to query git status")
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *WatchError {
	watchErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		watchErr = watchErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return watchErr
}
