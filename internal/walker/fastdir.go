package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// rawEntry is what a fast reader reports for one directory child.
type rawEntry struct {
	name     string
	mode     fs.FileMode
	size     int64
	modified time.Time
}

// fastReader lists a directory with as little overhead as the platform allows.
// keep is called with each name before any metadata is fetched; children it
// rejects are not stat'ed.
type fastReader interface {
	readDir(path string, keep func(name string) bool) ([]rawEntry, error)
}

// portableReader uses os.File.ReadDir and lstat. It works everywhere and is
// the fast reader on platforms without a dedicated one.
type portableReader struct{}

func (portableReader) readDir(path string, keep func(string) bool) ([]rawEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	des, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}

	out := make([]rawEntry, 0, len(des))
	for _, de := range des {
		name := de.Name()
		if !keep(name) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		out = append(out, rawEntry{
			name:     name,
			mode:     info.Mode(),
			size:     info.Size(),
			modified: info.ModTime(),
		})
	}
	return out, nil
}

// walkFast builds the tree with the fast reader. Only the hidden-file policy
// and the depth limit apply.
func (w *Walker) walkFast() ([]*TreeEntry, error) {
	root, err := w.rootEntry()
	if err != nil {
		return nil, err
	}
	if root.IsDir {
		if err := w.expandFast(root); err != nil {
			return nil, err
		}
	}
	return []*TreeEntry{root}, nil
}

func (w *Walker) expandFast(parent *TreeEntry) error {
	if !w.descends(parent) {
		return nil
	}
	raws, err := w.fast.readDir(parent.Path, w.opts.NameVisible)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", parent.Path, err)
	}

	var dirs, files []*TreeEntry
	for _, raw := range raws {
		child := makeEntry(filepath.Join(parent.Path, raw.name), raw.name, raw.mode, raw.size, raw.modified, parent.Depth+1)
		if child.IsDir {
			dirs = append(dirs, child)
		} else {
			files = append(files, child)
		}
	}
	parent.Children = append(dirs, files...)

	for _, dir := range dirs {
		if err := w.expandFast(dir); err != nil {
			return err
		}
	}
	return nil
}
