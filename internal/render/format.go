// Package render writes walk results as trees, plain listings, JSON, CSV,
// size summaries, distribution reports and PDF documents.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/jadenpxrk/arbor/internal/walker"
)

// Format is an output format.
type Format int

const (
	FormatTree Format = iota
	FormatPlain
	FormatJSON
	FormatCSV
)

func (f Format) String() string {
	switch f {
	case FormatTree:
		return "tree"
	case FormatPlain:
		return "plain"
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	}
	return "unknown"
}

// Structured reports whether the format needs the whole tree.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatCSV
}

// ParseFormat accepts tree, plain, json or csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tree":
		return FormatTree, nil
	case "plain":
		return FormatPlain, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	}
	return FormatTree, fmt.Errorf("unknown output format %q (expected tree, plain, json or csv)", s)
}

// FormatOptions controls how entries are drawn. Color is already resolved
// against the terminal and NO_COLOR by the caller.
type FormatOptions struct {
	Unicode   bool
	Color     bool
	FullPath  bool
	ShowSize  bool
	ShowLines bool
	DirSizes  bool
	// RootLabel replaces the root's name on the first line, usually with the
	// path as the user typed it.
	RootLabel string
}

type glyphs struct {
	branch string
	last   string
	pipe   string
	space  string
}

var (
	unicodeGlyphs = glyphs{branch: "├── ", last: "└── ", pipe: "│   ", space: "    "}
	asciiGlyphs   = glyphs{branch: "|-- ", last: "`-- ", pipe: "|   ", space: "    "}
)

func (o FormatOptions) glyphs() glyphs {
	if o.Unicode {
		return unicodeGlyphs
	}
	return asciiGlyphs
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with binary units: "512 B", "1.5 KB".
func FormatSize(size int64) string {
	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", size, sizeUnits[0])
	}
	return fmt.Sprintf("%.1f %s", value, sizeUnits[unit])
}

// palette holds the colors for one render. A disabled palette prints plain
// text regardless of the global color setting.
type palette struct {
	enabled bool
	dir     *color.Color
	symlink *color.Color
	exec    *color.Color
	details *color.Color
	total   *color.Color
	label   [4]*color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		enabled: enabled,
		dir:     color.New(color.FgBlue, color.Bold),
		symlink: color.New(color.FgCyan),
		exec:    color.New(color.FgGreen),
		details: color.New(color.Faint),
		total:   color.New(color.FgHiYellow, color.Bold),
		label: [4]*color.Color{
			color.New(color.FgGreen),
			color.New(color.FgYellow),
			color.New(color.FgHiYellow),
			color.New(color.FgRed),
		},
	}
	if enabled {
		for _, c := range []*color.Color{p.dir, p.symlink, p.exec, p.details, p.total, p.label[0], p.label[1], p.label[2], p.label[3]} {
			c.EnableColor()
		}
	}
	return p
}

func (p *palette) paint(c *color.Color, s string) string {
	if !p.enabled {
		return s
	}
	return c.Sprint(s)
}

func (p *palette) name(e *walker.TreeEntry, text string) string {
	switch {
	case e.IsDir:
		return p.paint(p.dir, text)
	case e.IsSymlink:
		return p.paint(p.symlink, text)
	case e.IsExecutable:
		return p.paint(p.exec, text)
	}
	return text
}

// percentColor picks a bar color: green up to 10%, yellow to 25%, bright
// yellow to 50%, red above.
func (p *palette) percentColor(percent float64) *color.Color {
	switch {
	case percent <= 10:
		return p.label[0]
	case percent <= 25:
		return p.label[1]
	case percent <= 50:
		return p.label[2]
	}
	return p.label[3]
}

// detailText returns " (1.5 KB, 12 lines)" or "" when there is nothing to show.
// Directory sizes appear only when they were aggregated.
func detailText(e *walker.TreeEntry, opts FormatOptions) string {
	var parts []string
	if opts.ShowSize && (!e.IsDir || opts.DirSizes) {
		parts = append(parts, FormatSize(e.Size))
	}
	if opts.ShowLines && e.LineCount > 0 {
		parts = append(parts, fmt.Sprintf("%d lines", e.LineCount))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// entryLine is the colored name plus details, without any tree prefix.
func entryLine(e *walker.TreeEntry, opts FormatOptions, p *palette) string {
	text := e.Name
	switch {
	case e.Depth == 0 && opts.RootLabel != "":
		text = opts.RootLabel
	case opts.FullPath:
		text = e.Path
	}
	line := p.name(e, text)
	if d := detailText(e, opts); d != "" {
		line += p.paint(p.details, d)
	}
	return line
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// summaryLine is "3 directories, 1 file".
func summaryLine(dirs, files int) string {
	return fmt.Sprintf("%d %s, %d %s", dirs, plural(dirs, "directory", "directories"), files, plural(files, "file", "files"))
}
