package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// aggregateSizes sets every directory's Size to the total size of all files
// beneath it on disk. Hidden, filtered and capped entries count, and so do
// subtrees below the depth limit, so a directory reports the same size
// whatever the walk options.
//
// A failed subtree does not stop its siblings. Its directories are left at
// zero, it is missing from its ancestors' totals, and the failures come back
// as a *PartialSizeError.
func (w *Walker) aggregateSizes(roots []*TreeEntry) error {
	var errs *multierror.Error
	for _, root := range roots {
		if !root.IsDir {
			continue
		}
		sizes, err := w.measure(root.Path)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		root.Walk(func(e *TreeEntry) {
			if e.IsDir {
				e.Size = sizes[e.Path]
			}
		})
	}

	if err := errs.ErrorOrNil(); err != nil {
		w.log.Warnf("%d directory sizes could not be computed", len(errs.Errors))
		return &PartialSizeError{Errs: errs}
	}
	return nil
}

// measure sizes dir and every directory beneath it, each child directory on
// its own goroutine.
func (w *Walker) measure(dir string) (map[string]int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("size of %s: %w", dir, err)
	}

	var (
		g     errgroup.Group
		mu    sync.Mutex
		sizes = make(map[string]int64)
		errs  *multierror.Error
		total int64
	)
	g.SetLimit(w.threads)

	var files int64
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			g.Go(func() error {
				sub, err := w.sizer(path)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = multierror.Append(errs, fmt.Errorf("size of %s: %w", path, err))
					return nil
				}
				maps.Copy(sizes, sub)
				total += sub[path]
				return nil
			})
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			mu.Lock()
			errs = multierror.Append(errs, fmt.Errorf("size of %s: %w", path, err))
			mu.Unlock()
			continue
		}
		files += info.Size()
	}
	_ = g.Wait()

	sizes[dir] = total + files
	return sizes, errs.ErrorOrNil()
}
