// Package walker builds filtered directory trees. A Walker picks one of three
// traversal strategies from its filter options and either returns the whole
// tree or streams entries to a sink as they are discovered.
package walker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jadenpxrk/arbor/internal/filestat"
	"github.com/jadenpxrk/arbor/internal/filter"
	"github.com/jadenpxrk/arbor/internal/ignore"
)

// Logger receives diagnostics from a walk.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// Config carries the walk settings that are not filters.
type Config struct {
	// Threads bounds the size aggregator and the line counting pool.
	// Zero uses the number of CPUs.
	Threads int
	// MaxFileSize is the largest file whose lines are counted. Zero means no
	// limit.
	MaxFileSize int64
	// LineCounter defaults to filestat.Default.
	LineCounter filestat.LineCounter
	// Ignore is a preloaded rule set. When nil and ignore mode is on, rules
	// are loaded from the root's .gitignore.
	Ignore ignore.Matcher
	Logger Logger
}

// Walker traverses one root. Its options are fixed at construction; the only
// later changes are EnableLineCounting and EnableDirSizes, which must be
// called before Walk or Stream.
type Walker struct {
	root string
	opts filter.Options
	mode Mode

	ignore      ignore.Matcher
	threads     int
	maxFileSize int64
	counter     filestat.LineCounter
	log         Logger
	fast        fastReader
	sizer       func(dir string) (map[string]int64, error)

	lineCounting bool
	dirSizes     bool
}

// New canonicalizes root and selects the traversal mode from opts.
func New(root string, opts filter.Options, cfg Config) (*Walker, error) {
	if strings.IndexByte(root, 0) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, root)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	w := &Walker{
		root:        canonical,
		opts:        opts,
		mode:        SelectMode(&opts),
		threads:     cfg.Threads,
		maxFileSize: cfg.MaxFileSize,
		counter:     cfg.LineCounter,
		log:         cfg.Logger,
		fast:        newFastReader(),
		sizer:       filestat.DirSizes,
	}
	if w.threads <= 0 {
		w.threads = runtime.NumCPU()
	}
	if w.counter == nil {
		w.counter = filestat.Default
	}
	if w.log == nil {
		w.log = nopLogger{}
	}

	if opts.Gitignore {
		if cfg.Ignore != nil {
			w.ignore = cfg.Ignore
		} else if rules, err := ignore.Load(canonical); err != nil {
			w.log.Warnf("ignore rules not loaded: %v", err)
		} else {
			if rules.Empty() {
				w.log.Debugf("no ignore rules found in %s", canonical)
			}
			w.ignore = rules
		}
	}

	w.log.Debugf("walker root=%s mode=%s", w.root, w.mode)
	return w, nil
}

// Root returns the canonical root path.
func (w *Walker) Root() string { return w.root }

// Mode returns the traversal strategy that Walk will use.
func (w *Walker) Mode() Mode { return w.mode }

// Options returns a copy of the filter options.
func (w *Walker) Options() filter.Options { return w.opts }

// EnableLineCounting counts lines of regular files during the walk. A fast
// walk is upgraded to standard because the fast reader does not count lines.
func (w *Walker) EnableLineCounting() {
	w.lineCounting = true
	w.mode = w.mode.upgrade(ModeStandard)
}

// EnableDirSizes computes recursive directory sizes after the walk. It forces
// full mode.
func (w *Walker) EnableDirSizes() {
	w.dirSizes = true
	w.mode = w.mode.upgrade(ModeFull)
}

// Walk builds the tree. The result always holds exactly one root entry.
//
// When directory sizes are enabled and some of them fail, Walk returns the
// tree together with a *PartialSizeError.
func (w *Walker) Walk() ([]*TreeEntry, error) {
	switch w.mode {
	case ModeFast:
		return w.walkFast()
	case ModeStandard:
		return w.walkStandard()
	default:
		return w.walkFull()
	}
}

func (w *Walker) rootEntry() (*TreeEntry, error) {
	info, err := os.Lstat(w.root)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", w.root, err)
	}
	root := newEntry(w.root, info, 0)
	if w.lineCounting && !root.IsDir {
		w.countLines([]*TreeEntry{root})
	}
	return root, nil
}

func (w *Walker) walkStandard() ([]*TreeEntry, error) {
	root, err := w.rootEntry()
	if err != nil {
		return nil, err
	}
	if root.IsDir {
		if err := w.expand(root); err != nil {
			return nil, err
		}
	}
	return []*TreeEntry{root}, nil
}

func (w *Walker) walkFull() ([]*TreeEntry, error) {
	entries, err := w.walkStandard()
	if err != nil {
		return nil, err
	}
	if w.dirSizes {
		if err := w.aggregateSizes(entries); err != nil {
			var partial *PartialSizeError
			if errors.As(err, &partial) {
				return entries, err
			}
			return nil, err
		}
	}
	return entries, nil
}

// expand fills parent.Children and recurses into child directories.
func (w *Walker) expand(parent *TreeEntry) error {
	if !w.descends(parent) {
		return nil
	}
	children, err := w.listDir(parent.Path, parent.Depth+1)
	if err != nil {
		return err
	}
	if children != nil {
		parent.Children = children
	}
	for _, child := range children {
		if child.IsDir {
			if err := w.expand(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// descends reports whether the children of dir fall within the depth limit.
func (w *Walker) descends(dir *TreeEntry) bool {
	return w.opts.MaxDepth <= 0 || dir.Depth < w.opts.MaxDepth
}

// countLines fills LineCount for the regular files in entries.
func (w *Walker) countLines(entries []*TreeEntry) {
	var targets []*TreeEntry
	for _, e := range entries {
		if e.IsDir || e.IsSymlink {
			continue
		}
		if w.maxFileSize > 0 && e.Size > w.maxFileSize {
			continue
		}
		targets = append(targets, e)
	}
	switch len(targets) {
	case 0:
		return
	case 1:
		n, err := w.counter.CountLines(targets[0].Path, w.maxFileSize)
		if err != nil {
			w.log.Debugf("count lines %s: %v", targets[0].Path, err)
			return
		}
		targets[0].LineCount = n
		return
	}

	paths := make([]string, len(targets))
	for i, e := range targets {
		paths[i] = e.Path
	}
	counts := filestat.CountLinesParallel(w.counter, paths, w.maxFileSize, min(w.threads, len(paths)))
	for i, e := range targets {
		e.LineCount = counts[i]
	}
}
