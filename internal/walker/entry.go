package walker

import (
	"io/fs"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jadenpxrk/arbor/internal/filter"
)

// TreeEntry is one filesystem object in a walk result. Children are owned by
// their parent and are never shared between entries.
type TreeEntry struct {
	Name         string       `json:"name"`
	Path         string       `json:"path"`
	Size         int64        `json:"size"`
	LineCount    int64        `json:"line_count"`
	Modified     time.Time    `json:"modified"`
	IsDir        bool         `json:"is_dir"`
	IsSymlink    bool         `json:"is_symlink"`
	IsExecutable bool         `json:"is_executable"`
	Depth        int          `json:"depth"`
	Children     []*TreeEntry `json:"children"`
}

// newEntry snapshots path and its already-read metadata. Directory sizes start
// at zero and are filled in by the size aggregator.
func newEntry(path string, info fs.FileInfo, depth int) *TreeEntry {
	return makeEntry(path, filepath.Base(path), info.Mode(), info.Size(), info.ModTime(), depth)
}

func makeEntry(path, name string, mode fs.FileMode, size int64, modified time.Time, depth int) *TreeEntry {
	isDir := mode.IsDir()
	if isDir {
		size = 0
	}
	return &TreeEntry{
		Name:         name,
		Path:         path,
		Size:         size,
		Modified:     modified,
		IsDir:        isDir,
		IsSymlink:    mode&fs.ModeSymlink != 0,
		IsExecutable: isExecutable(mode),
		Depth:        depth,
		Children:     []*TreeEntry{},
	}
}

func isExecutable(mode fs.FileMode) bool {
	if runtime.GOOS == "windows" || mode.IsDir() {
		return false
	}
	return mode.Perm()&0o111 != 0
}

// sortRecord is the comparison view used by the directory lister.
func (e *TreeEntry) sortRecord() filter.SortRecord {
	return filter.SortRecord{
		Name:      e.Name,
		Size:      e.Size,
		Modified:  e.Modified,
		LineCount: e.LineCount,
	}
}

// Walk calls fn for e and every descendant in pre-order.
func (e *TreeEntry) Walk(fn func(*TreeEntry)) {
	fn(e)
	for _, child := range e.Children {
		child.Walk(fn)
	}
}
