package filestat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirSizes measures path and every directory beneath it in one post-order
// pass. Each directory's total is the size of every non-directory entry
// beneath it, hidden entries included. Symlinks are not followed; they
// contribute their own size.
//
// The map is keyed by directory path. On error it holds the directories
// finished before the failure.
func DirSizes(path string) (map[string]int64, error) {
	sizes := make(map[string]int64)
	_, err := dirSizes(path, sizes)
	return sizes, err
}

func dirSizes(path string, sizes map[string]int64) (int64, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", path, err)
	}

	var total int64
	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			size, err := dirSizes(child, sizes)
			if err != nil {
				return 0, err
			}
			total += size
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, fmt.Errorf("stat %s: %w", child, err)
		}
		total += info.Size()
	}
	sizes[path] = total
	return total, nil
}
