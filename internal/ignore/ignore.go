// Package ignore loads ignore rules from a root's .gitignore file.
package ignore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// FileName is the ignore file looked up at the walk root.
const FileName = ".gitignore"

// Matcher reports whether a path is excluded by ignore rules.
type Matcher interface {
	IsIgnored(path string, isDir bool) bool
}

// Rules matches absolute paths against the patterns of one ignore file.
type Rules struct {
	root    string
	matcher gitignore.IgnoreMatcher
}

// Load reads root/.gitignore. A missing file yields an empty rule set; a file
// that cannot be read or parsed is returned as an error so the caller can
// decide to continue without rules.
func Load(root string) (*Rules, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve ignore root %s: %w", root, err)
	}

	path := filepath.Join(absRoot, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Rules{root: absRoot}, nil
		}
		return nil, fmt.Errorf("stat ignore file %s: %w", path, err)
	}

	matcher, err := gitignore.NewGitIgnore(path, absRoot)
	if err != nil {
		return nil, fmt.Errorf("parse ignore file %s: %w", path, err)
	}
	return &Rules{root: absRoot, matcher: matcher}, nil
}

// FromPatterns builds rules from in-memory patterns, one per line.
func FromPatterns(root string, patterns ...string) *Rules {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	reader := strings.NewReader(strings.Join(patterns, "\n"))
	return &Rules{root: absRoot, matcher: gitignore.NewGitIgnoreFromReader(absRoot, reader)}
}

// IsIgnored reports whether path (absolute, beneath the root) matches the rules.
func (r *Rules) IsIgnored(path string, isDir bool) bool {
	if r == nil || r.matcher == nil || path == r.root {
		return false
	}
	return r.matcher.Match(path, isDir)
}

// Empty reports whether no rules were loaded.
func (r *Rules) Empty() bool {
	return r == nil || r.matcher == nil
}
