package git

import (
	"context"
	"os/exec"
	"strings"

	"github.com/grovetools/watch/command"
	"github.com/grovetools/watch/errors"
)

// DiscoverRoot returns the working-tree root of the repository containing
// path, or ErrCodeNotARepository when path is outside any repository.
func DiscoverRoot(ctx context.Context, path string) (string, error) {
	cmdBuilder := command.NewSafeBuilder()

	cmd, err := cmdBuilder.Build(ctx, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.GitStatusFailed(err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = path
	output, err := execCmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok &&
			strings.Contains(string(exitErr.Stderr), "not a git repository") {
			return "", errors.NotARepository(path)
		}
		return "", errors.GitStatusFailed(err)
	}

	return strings.TrimSpace(string(output)), nil
}

// IsRepository reports whether path lies inside a git working tree.
func IsRepository(ctx context.Context, path string) bool {
	root, err := DiscoverRoot(ctx, path)
	return err == nil && root != ""
}
