package filter

import (
	"io/fs"
	"path/filepath"
	"time"
)

// ShouldInclude applies the filter checks to one entry, cheapest first.
// Ignore rules are not consulted here; the walker combines them with this
// predicate when ignore mode is active.
func (o *Options) ShouldInclude(path string, info fs.FileInfo) bool {
	isDir := info.IsDir()

	if o.OnlyDirs && !isDir {
		return false
	}
	if o.OnlyFiles && isDir {
		return false
	}

	if !o.nameVisible(filepath.Base(path)) {
		return false
	}

	// Directories stay visible so the ancestors of a match can be shown.
	if !isDir && o.Search != nil && !o.Search.MatchString(path) {
		return false
	}

	if o.Include != nil && !o.Include.MatchString(path) {
		return false
	}
	if o.Exclude != nil && o.Exclude.MatchString(path) {
		return false
	}

	if !isDir {
		size := info.Size()
		if o.MinSize > 0 && size < o.MinSize {
			return false
		}
		if o.MaxSize > 0 && size > o.MaxSize {
			return false
		}
	}

	return o.withinAge(info.ModTime())
}

// NameVisible applies only the hidden-file policy. The fast walk uses it
// because it skips every other check.
func (o *Options) NameVisible(name string) bool {
	return o.nameVisible(name)
}

func (o *Options) nameVisible(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	if o.ShowHidden {
		return true
	}
	return len(name) == 0 || name[0] != hiddenMarker
}

// withinAge checks the newer-than/older-than window. A zero timestamp means the
// modification time could not be read, and the check is skipped.
func (o *Options) withinAge(modified time.Time) bool {
	if !o.HasAgeBounds() || modified.IsZero() {
		return true
	}
	age := time.Since(modified)
	if age < 0 {
		return true
	}
	if o.NewerThan > 0 && age > o.NewerThan {
		return false
	}
	if o.OlderThan > 0 && age < o.OlderThan {
		return false
	}
	return true
}
