// Package stats reduces walk results into counts, sizes and distributions
// for the reporting layer. Nothing here touches the filesystem.
package stats

import (
	"fmt"

	"github.com/jadenpxrk/arbor/internal/walker"
)

// FileStats is the per-entry view used by reports.
type FileStats struct {
	Size      int64
	LineCount int64
	IsDir     bool
}

// Of returns the statistics of a single entry.
func Of(e *walker.TreeEntry) FileStats {
	return FileStats{Size: e.Size, LineCount: e.LineCount, IsDir: e.IsDir}
}

// TreeStats holds totals for a tree or a stream of entries.
type TreeStats struct {
	// TotalSize is the number of bytes the entries cover: every file plus
	// every directory with no listed children. Aggregated directory sizes of
	// expanded directories are not counted twice.
	TotalSize  int64
	FileSize   int64
	DirSize    int64
	FileCount  int
	DirCount   int
	TotalLines int64
}

// FromEntries sums the given entries and all their descendants.
func FromEntries(entries []*walker.TreeEntry) TreeStats {
	var s TreeStats
	for _, root := range entries {
		root.Walk(s.Add)
	}
	return s
}

// Add counts one entry without descending into its children.
func (s *TreeStats) Add(e *walker.TreeEntry) {
	f := Of(e)
	if f.IsDir {
		s.DirCount++
		s.DirSize += f.Size
		if len(e.Children) == 0 {
			s.TotalSize += f.Size
		}
		return
	}
	s.FileCount++
	s.FileSize += f.Size
	s.TotalSize += f.Size
	s.TotalLines += f.LineCount
}

// Accumulator tallies entries on their way to another sink.
type Accumulator struct {
	Stats TreeStats
	next  walker.Sink
}

// NewAccumulator wraps next, which may be nil.
func NewAccumulator(next walker.Sink) *Accumulator {
	return &Accumulator{next: next}
}

func (a *Accumulator) Entry(e *walker.TreeEntry, last []bool) error {
	a.Stats.Add(e)
	if a.next == nil {
		return nil
	}
	return a.next.Entry(e, last)
}

func (a *Accumulator) Done(dirs, files int) error {
	if a.next == nil {
		return nil
	}
	return a.next.Done(dirs, files)
}

// FormatDuration renders whole seconds as "45s", "2m 5s" or "1h 2m".
func FormatDuration(secs int64) string {
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm %ds", secs/60, secs%60)
	default:
		return fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60)
	}
}
