package walker

import "github.com/jadenpxrk/arbor/internal/filter"

// Mode is the traversal strategy chosen for a walk.
type Mode int

const (
	// ModeFast reads directories with the low-level reader and applies only
	// the hidden-file policy and the depth limit.
	ModeFast Mode = iota
	// ModeStandard lists through the directory lister with patterns, type
	// restriction, sorting and per-directory caps.
	ModeStandard
	// ModeFull adds search, size and age filters, ignore rules and directory
	// size aggregation.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModeFast:
		return "fast"
	case ModeStandard:
		return "standard"
	case ModeFull:
		return "full"
	}
	return "unknown"
}

// SelectMode derives the strategy from the filter options.
func SelectMode(opts *filter.Options) Mode {
	if opts.Search != nil || opts.HasSizeBounds() || opts.HasAgeBounds() || opts.Gitignore {
		return ModeFull
	}
	if opts.Include != nil || opts.Exclude != nil ||
		opts.OnlyDirs || opts.OnlyFiles ||
		opts.SortBy != filter.SortNone ||
		opts.HasLimits() {
		return ModeStandard
	}
	return ModeFast
}

// upgrade never lowers the mode.
func (m Mode) upgrade(to Mode) Mode {
	if to > m {
		return to
	}
	return m
}
