package walker

import (
	"github.com/jadenpxrk/arbor/internal/filter"
)

// Sink receives entries from Stream in depth-first pre-order.
type Sink interface {
	// Entry is called once per entry. last[i] reports whether the ancestor at
	// depth i+1 (or, for the final element, the entry itself) is the last
	// child of its parent. The root is written with an empty slice. The slice
	// is reused between calls.
	Entry(entry *TreeEntry, last []bool) error
	// Done is called once after the final entry with the number of
	// directories and files written, the root included.
	Done(dirs, files int) error
}

// OutputNeeds describes what the chosen output requires beyond the filters.
type OutputNeeds struct {
	// Structured is set for JSON and CSV output.
	Structured   bool
	TotalSize    bool
	DirSizes     bool
	Distribution bool
}

// RequiresBuffering reports whether the full tree must be built before any
// output can be written.
func RequiresBuffering(opts *filter.Options, needs OutputNeeds) bool {
	return needs.Structured ||
		needs.TotalSize ||
		needs.DirSizes ||
		needs.Distribution ||
		opts.SortBy != filter.SortNone
}

// Stream walks the tree and hands each entry to sink as soon as it is read,
// keeping only the current path of directories in memory. It uses the
// directory lister, so every filter applies whatever the selected mode.
func (w *Walker) Stream(sink Sink) error {
	if w.dirSizes || w.opts.SortBy != filter.SortNone {
		return ErrStreamUnsupported
	}

	root, err := w.rootEntry()
	if err != nil {
		return err
	}

	s := &streamer{w: w, sink: sink}
	if err := s.emit(root, nil); err != nil {
		return err
	}
	if root.IsDir {
		if err := s.descend(root, nil); err != nil {
			return err
		}
	}
	return sink.Done(s.dirs, s.files)
}

type streamer struct {
	w     *Walker
	sink  Sink
	dirs  int
	files int
}

func (s *streamer) emit(entry *TreeEntry, last []bool) error {
	if entry.IsDir {
		s.dirs++
	} else {
		s.files++
	}
	return s.sink.Entry(entry, last)
}

func (s *streamer) descend(dir *TreeEntry, last []bool) error {
	if !s.w.descends(dir) {
		return nil
	}
	children, err := s.w.listDir(dir.Path, dir.Depth+1)
	if err != nil {
		return err
	}
	for i, child := range children {
		last = append(last, i == len(children)-1)
		if err := s.emit(child, last); err != nil {
			return err
		}
		if child.IsDir {
			if err := s.descend(child, last); err != nil {
				return err
			}
		}
		last = last[:len(last)-1]
	}
	return nil
}
