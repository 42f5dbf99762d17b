package git

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/grovetools/watch/command"
	"github.com/grovetools/watch/errors"
)

// FileStatus is a flat classification of a single path's state in the
// repository, one per path.
type FileStatus int

const (
	StatusUnknown FileStatus = iota
	StatusModified
	StatusAdded
	StatusDeleted
	StatusRenamed
	StatusUntracked
	StatusConflicted
	StatusStaged
)

// Short returns the single-character code used in event records.
func (s FileStatus) Short() string {
	switch s {
	case StatusModified:
		return "M"
	case StatusAdded:
		return "A"
	case StatusDeleted:
		return "D"
	case StatusRenamed:
		return "R"
	case StatusUntracked:
		return "?"
	case StatusConflicted:
		return "U"
	case StatusStaged:
		return "S"
	}
	return " "
}

// String implements fmt.Stringer.
func (s FileStatus) String() string {
	switch s {
	case StatusModified:
		return "modified"
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	case StatusUntracked:
		return "untracked"
	case StatusConflicted:
		return "conflicted"
	case StatusStaged:
		return "staged"
	}
	return "unknown"
}

// RepoStatus is an immutable snapshot of repository state, computed wholesale
// by a single status query.
type RepoStatus struct {
	// Branch is the current branch name
	Branch string `json:"branch"`

	// Ahead is the number of commits ahead of the upstream branch
	Ahead int `json:"ahead"`

	// Behind is the number of commits behind the upstream branch
	Behind int `json:"behind"`

	// HasConflicts indicates unmerged paths are present
	HasConflicts bool `json:"has_conflicts"`

	// HasUpstream indicates the branch has an upstream tracking branch
	HasUpstream bool `json:"has_upstream"`

	// Root is the working-tree root this snapshot was taken from. Set by
	// the fetch that produced the snapshot, not by the parser.
	Root string `json:"-"`

	// Files maps repository-relative paths to their status
	Files map[string]FileStatus `json:"-"`
}

// CountBy returns the number of files with the given status.
func (s *RepoStatus) CountBy(status FileStatus) int {
	n := 0
	for _, fs := range s.Files {
		if fs == status {
			n++
		}
	}
	return n
}

// FileFor looks up the status for a path, trying the path as given and then
// relative to root. Returns false when the path has no recorded status.
func (s *RepoStatus) FileFor(path, root string) (FileStatus, bool) {
	if fs, ok := s.Files[path]; ok {
		return fs, true
	}
	if root != "" && strings.HasPrefix(path, root) {
		rel := strings.TrimPrefix(strings.TrimPrefix(path, root), "/")
		if fs, ok := s.Files[rel]; ok {
			return fs, true
		}
	}
	return StatusUnknown, false
}

// GetStatus returns a status snapshot for the repository at the given path.
// A directory outside any repository yields ErrCodeNotARepository.
func GetStatus(ctx context.Context, path string) (*RepoStatus, error) {
	cmdBuilder := command.NewSafeBuilder()

	// Single porcelain v2 call carries branch, ahead/behind, and file states
	cmd, err := cmdBuilder.Build(ctx, "git", "status", "--porcelain=v2", "--branch")
	if err != nil {
		return nil, errors.GitStatusFailed(err)
	}
	execCmd := cmd.Exec()
	execCmd.Dir = path
	output, err := execCmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok &&
			strings.Contains(string(exitErr.Stderr), "not a git repository") {
			return nil, errors.NotARepository(path)
		}
		return nil, errors.GitStatusFailed(err)
	}

	return ParseStatus(string(output)), nil
}

// ParseStatus parses `git status --porcelain=v2 --branch` output into a
// RepoStatus snapshot.
func ParseStatus(output string) *RepoStatus {
	status := &RepoStatus{
		Files: make(map[string]FileStatus),
	}

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}

		// Header lines
		if strings.HasPrefix(line, "# ") {
			parts := strings.Fields(line)
			if len(parts) < 3 {
				continue
			}
			switch parts[1] {
			case "branch.head":
				status.Branch = parts[2]
			case "branch.upstream":
				status.HasUpstream = true
			case "branch.ab":
				// format is +<ahead> -<behind>
				if len(parts) > 2 {
					status.Ahead, _ = strconv.Atoi(strings.TrimPrefix(parts[2], "+"))
				}
				if len(parts) > 3 {
					status.Behind, _ = strconv.Atoi(strings.TrimPrefix(parts[3], "-"))
				}
			}
			continue
		}

		switch line[0] {
		case '?':
			// `? <path>`
			if len(line) > 2 {
				status.Files[line[2:]] = StatusUntracked
			}
		case '1':
			// `1 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <path>`
			parts := strings.SplitN(line, " ", 9)
			if len(parts) < 9 {
				continue
			}
			status.Files[parts[8]] = classify(parts[1])
		case '2':
			// `2 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <X><score> <path>\t<origPath>`
			parts := strings.SplitN(line, " ", 10)
			if len(parts) < 10 {
				continue
			}
			path := parts[9]
			if idx := strings.IndexByte(path, '\t'); idx >= 0 {
				path = path[:idx]
			}
			status.Files[path] = classify(parts[1])
		case 'u':
			// `u <XY> <sub> <m1> <m2> <m3> <mW> <h1> <h2> <h3> <path>`
			parts := strings.SplitN(line, " ", 11)
			if len(parts) < 11 {
				continue
			}
			status.Files[parts[10]] = StatusConflicted
			status.HasConflicts = true
		}
	}

	return status
}

// classify maps a porcelain v2 XY field to a single FileStatus. X is the
// staged (index) state, Y the working-tree state. Index changes win so an
// added-then-edited file still reads as staged, matching the summary counts
// consumers already rely on.
func classify(xy string) FileStatus {
	if len(xy) < 2 {
		return StatusUnknown
	}
	x, y := xy[0], xy[1]

	switch {
	case x == 'A' || x == 'M' || x == 'D':
		return StatusStaged
	case y == 'M':
		return StatusModified
	case y == 'D':
		return StatusDeleted
	case x == 'R' || y == 'R':
		return StatusRenamed
	case y == 'A':
		return StatusAdded
	}
	return StatusUnknown
}
