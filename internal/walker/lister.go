package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/jadenpxrk/arbor/internal/filter"
)

// listDir reads one directory and returns its visible children in display
// order with the per-directory caps applied. Entries come back without
// children; line counts are filled in when line counting is enabled.
//
// In ignore mode a directory that cannot be read is logged and treated as
// empty. Otherwise the read error is returned.
func (w *Walker) listDir(dir string, depth int) ([]*TreeEntry, error) {
	dirs, files, err := w.readChildren(dir, depth)
	if err != nil {
		if w.opts.Gitignore {
			w.log.Warnf("skipping unreadable directory %s: %v", dir, err)
			return nil, nil
		}
		return nil, err
	}

	var ordered []*TreeEntry
	counted := false
	if w.opts.SortBy != filter.SortNone {
		if w.opts.SortBy == filter.SortByLines && w.lineCounting {
			w.countLines(files)
			counted = true
		}
		ordered = append(dirs, files...)
		slices.SortStableFunc(ordered, func(a, b *TreeEntry) int {
			return filter.Compare(a.sortRecord(), b.sortRecord(), w.opts.SortBy, w.opts.Reverse)
		})
	} else {
		ordered = append(dirs, files...)
	}

	ordered = w.applyCaps(ordered)

	if w.lineCounting && !counted {
		w.countLines(ordered)
	}
	return ordered, nil
}

// readChildren enumerates dir in filesystem order and splits the children
// that pass the ignore rules and the filter predicate into directories and
// files.
func (w *Walker) readChildren(dir string, depth int) (dirs, files []*TreeEntry, err error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open directory %s: %w", dir, err)
	}
	defer f.Close()

	des, err := f.ReadDir(-1)
	if err != nil {
		return nil, nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	for _, de := range des {
		name := de.Name()
		if name == "." || name == ".." {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between enumeration and stat.
			if errors.Is(err, fs.ErrNotExist) {
				w.log.Debugf("entry vanished during walk: %s", filepath.Join(dir, name))
				continue
			}
			return nil, nil, fmt.Errorf("stat %s: %w", filepath.Join(dir, name), err)
		}

		path := filepath.Join(dir, name)
		if !w.shouldInclude(path, info) {
			continue
		}

		entry := newEntry(path, info, depth)
		if entry.IsDir {
			dirs = append(dirs, entry)
		} else {
			files = append(files, entry)
		}
	}
	return dirs, files, nil
}

func (w *Walker) shouldInclude(path string, info fs.FileInfo) bool {
	if w.ignore != nil && w.ignore.IsIgnored(path, info.IsDir()) {
		return false
	}
	return w.opts.ShouldInclude(path, info)
}

// applyCaps keeps the first MaxDirs directories and MaxFiles files in order.
func (w *Walker) applyCaps(entries []*TreeEntry) []*TreeEntry {
	if !w.opts.HasLimits() {
		return entries
	}
	kept := entries[:0]
	var nDirs, nFiles int
	for _, e := range entries {
		if e.IsDir {
			if w.opts.MaxDirs > 0 && nDirs >= w.opts.MaxDirs {
				continue
			}
			nDirs++
		} else {
			if w.opts.MaxFiles > 0 && nFiles >= w.opts.MaxFiles {
				continue
			}
			nFiles++
		}
		kept = append(kept, e)
	}
	return kept
}
