// Package filter holds the per-run filtering configuration and the predicate
// that decides whether a filesystem entry is part of the output.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidPattern is returned when an include, exclude or search expression
// does not compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// hiddenMarker is the leading byte that marks a name as hidden.
const hiddenMarker = '.'

// SortKey selects the per-directory ordering of entries.
type SortKey int

const (
	// SortNone keeps directories before files in enumeration order.
	SortNone SortKey = iota
	SortByName
	SortBySize
	SortByTime
	SortByExt
	SortByLines
)

var sortKeyNames = map[SortKey]string{
	SortNone:    "none",
	SortByName:  "name",
	SortBySize:  "size",
	SortByTime:  "time",
	SortByExt:   "ext",
	SortByLines: "lines",
}

func (k SortKey) String() string {
	if name, ok := sortKeyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SortKey(%d)", int(k))
}

// ParseSortKey converts a user-supplied sort name. The empty string maps to SortNone.
func ParseSortKey(name string) (SortKey, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return SortNone, nil
	}
	for key, keyName := range sortKeyNames {
		if keyName == normalized {
			return key, nil
		}
	}
	return SortNone, fmt.Errorf("unknown sort key %q (expected name, size, time, ext or lines)", name)
}

// Options is the resolved filter configuration for one walk. It is built once
// from CLI and config input and never mutated afterwards.
//
// Numeric fields use zero to mean "no limit".
type Options struct {
	Include *regexp.Regexp
	Exclude *regexp.Regexp
	Search  *regexp.Regexp

	OnlyDirs  bool
	OnlyFiles bool

	MinSize int64
	MaxSize int64

	// NewerThan keeps entries modified within this window; OlderThan keeps
	// entries modified before it.
	NewerThan time.Duration
	OlderThan time.Duration

	Gitignore  bool
	ShowHidden bool

	MaxDepth int
	MaxDirs  int
	MaxFiles int

	SortBy  SortKey
	Reverse bool
}

// Validate reports option combinations that can never produce output.
func (o *Options) Validate() error {
	if o.OnlyDirs && o.OnlyFiles {
		return errors.New("only-dirs and only-files are mutually exclusive")
	}
	if o.MinSize < 0 || o.MaxSize < 0 {
		return errors.New("size bounds must not be negative")
	}
	if o.MaxSize > 0 && o.MinSize > o.MaxSize {
		return fmt.Errorf("min size %d exceeds max size %d", o.MinSize, o.MaxSize)
	}
	if o.MaxDepth < 0 || o.MaxDirs < 0 || o.MaxFiles < 0 {
		return errors.New("depth and per-directory limits must not be negative")
	}
	return nil
}

// HasSizeBounds reports whether a min or max size is configured.
func (o *Options) HasSizeBounds() bool {
	return o.MinSize > 0 || o.MaxSize > 0
}

// HasAgeBounds reports whether a newer-than or older-than window is configured.
func (o *Options) HasAgeBounds() bool {
	return o.NewerThan > 0 || o.OlderThan > 0
}

// HasLimits reports whether per-directory caps are configured.
func (o *Options) HasLimits() bool {
	return o.MaxDirs > 0 || o.MaxFiles > 0
}

// CompilePattern compiles a regular expression for include, exclude or search
// matching. Errors wrap ErrInvalidPattern.
func CompilePattern(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	expr := pattern
	if ignoreCase {
		expr = "(?i)" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	return re, nil
}
