package watcher

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"

	"github.com/grovetools/watch/errors"
)

// defaultExcludes are applied unless explicitly disabled: version-control
// metadata, common build-artifact and dependency directories, and editor
// swap/temp noise.
var defaultExcludes = []string{
	".git/",
	"node_modules/",
	"target/",
	"dist/",
	"build/",
	"vendor/",
	"__pycache__/",
	"*.swp",
	"*.swo",
	"*.tmp",
	"*~",
	".DS_Store",
}

// IgnoreFileName is the ignore-rules file read at the watch root.
const IgnoreFileName = ".gitignore"

// Matcher gates which paths are observable at all. Compilation is a one-time
// cost at startup; IsIgnored runs on the hot event path with no I/O.
type Matcher struct {
	root string
	pm   *patternmatcher.PatternMatcher
}

// NewMatcher compiles ignore rules for root. Precedence, later wins:
// default excludes, then rules from the root's ignore file (when enabled and
// present), then extraPatterns. A malformed pattern is a fatal configuration
// error here, not at query time.
func NewMatcher(root string, useDefaultExcludes, useIgnoreFile bool, extraPatterns []string) (*Matcher, error) {
	var patterns []string

	if useDefaultExcludes {
		for _, p := range defaultExcludes {
			patterns = append(patterns, normalizePattern(p))
		}
	}

	if useIgnoreFile {
		filePatterns, err := readIgnoreFile(filepath.Join(root, IgnoreFileName))
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, filePatterns...)
	}

	for _, p := range extraPatterns {
		patterns = append(patterns, normalizePattern(p))
	}

	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, errors.PatternInvalid(strings.Join(patterns, ","), err)
	}

	// Surface malformed globs now rather than on the first event: the
	// matcher compiles patterns lazily on first match.
	for _, p := range patterns {
		if _, err := patternmatcher.Matches("probe", []string{strings.TrimPrefix(p, "!")}); err != nil {
			return nil, errors.PatternInvalid(p, err)
		}
	}

	return &Matcher{root: root, pm: pm}, nil
}

// IsIgnored reports whether path is excluded from observation. Paths outside
// the root, and the root itself, are never ignored.
func (m *Matcher) IsIgnored(path string) bool {
	rel, err := filepath.Rel(m.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}

	matched, err := m.pm.MatchesOrParentMatches(filepath.ToSlash(rel))
	if err != nil {
		return false
	}
	return matched
}

// readIgnoreFile parses a gitignore-style file into normalized patterns.
// A missing file is not an error. Later patterns override earlier ones and
// `!pattern` re-includes, both preserved by pattern order.
func readIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read ignore file").
			WithDetail("path", path)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, normalizePattern(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read ignore file").
			WithDetail("path", path)
	}
	return patterns, nil
}

// normalizePattern translates one gitignore-style rule into the anchored form
// the pattern matcher expects. Gitignore rules without a slash match at any
// depth; rules with a leading slash are anchored to the root.
func normalizePattern(line string) string {
	negate := false
	if strings.HasPrefix(line, "!") {
		negate = true
		line = line[1:]
	}

	// Directory-only suffix; parent matching covers the contents.
	line = strings.TrimSuffix(line, "/")

	if strings.HasPrefix(line, "/") {
		line = strings.TrimPrefix(line, "/")
	} else if !strings.Contains(line, "/") {
		line = "**/" + line
	}

	if negate {
		return "!" + line
	}
	return line
}
