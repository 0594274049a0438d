package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/jadenpxrk/arbor/internal/stats"
	"github.com/jadenpxrk/arbor/internal/walker"
)

// WriteTree draws entries with connector glyphs followed by a summary line.
func WriteTree(w io.Writer, entries []*walker.TreeEntry, opts FormatOptions) error {
	bw := bufio.NewWriter(w)
	p := newPalette(opts.Color)
	g := opts.glyphs()

	for _, root := range entries {
		bw.WriteString(entryLine(root, opts, p))
		bw.WriteString("\n")
		writeNodes(bw, root.Children, "", opts, p, g)
	}

	s := stats.FromEntries(entries)
	bw.WriteString("\n")
	bw.WriteString(summaryLine(s.DirCount, s.FileCount))
	bw.WriteString("\n")
	return bw.Flush()
}

// writeNodes prints children below a parent whose prefix is already known.
func writeNodes(bw *bufio.Writer, children []*walker.TreeEntry, prefix string, opts FormatOptions, p *palette, g glyphs) {
	for i, node := range children {
		connector := g.branch
		newPrefix := prefix + g.pipe
		if i == len(children)-1 {
			connector = g.last
			newPrefix = prefix + g.space
		}

		bw.WriteString(prefix)
		bw.WriteString(connector)
		bw.WriteString(entryLine(node, opts, p))
		bw.WriteString("\n")

		if len(node.Children) > 0 {
			writeNodes(bw, node.Children, newPrefix, opts, p, g)
		}
	}
}

// WritePlain prints one entry per line indented two spaces per level, or full
// paths when FullPath is set.
func WritePlain(w io.Writer, entries []*walker.TreeEntry, opts FormatOptions) error {
	bw := bufio.NewWriter(w)
	for _, root := range entries {
		root.Walk(func(e *walker.TreeEntry) {
			bw.WriteString(plainLine(e, opts))
			bw.WriteString("\n")
		})
	}
	return bw.Flush()
}

func plainLine(e *walker.TreeEntry, opts FormatOptions) string {
	if opts.FullPath {
		return e.Path
	}
	name := e.Name
	if e.Depth == 0 && opts.RootLabel != "" {
		name = opts.RootLabel
	}
	return strings.Repeat("  ", e.Depth) + name
}

// TreeSink draws entries as a stream delivers them.
type TreeSink struct {
	bw   *bufio.Writer
	opts FormatOptions
	p    *palette
	g    glyphs
}

// NewTreeSink writes a streamed tree to w.
func NewTreeSink(w io.Writer, opts FormatOptions) *TreeSink {
	return &TreeSink{bw: bufio.NewWriter(w), opts: opts, p: newPalette(opts.Color), g: opts.glyphs()}
}

func (s *TreeSink) Entry(e *walker.TreeEntry, last []bool) error {
	for i, isLast := range last {
		switch {
		case i < len(last)-1 && isLast:
			s.bw.WriteString(s.g.space)
		case i < len(last)-1:
			s.bw.WriteString(s.g.pipe)
		case isLast:
			s.bw.WriteString(s.g.last)
		default:
			s.bw.WriteString(s.g.branch)
		}
	}
	s.bw.WriteString(entryLine(e, s.opts, s.p))
	_, err := s.bw.WriteString("\n")
	return err
}

func (s *TreeSink) Done(dirs, files int) error {
	s.bw.WriteString("\n")
	s.bw.WriteString(summaryLine(dirs, files))
	s.bw.WriteString("\n")
	return s.bw.Flush()
}

// PlainSink is the streaming form of WritePlain.
type PlainSink struct {
	bw   *bufio.Writer
	opts FormatOptions
}

func NewPlainSink(w io.Writer, opts FormatOptions) *PlainSink {
	return &PlainSink{bw: bufio.NewWriter(w), opts: opts}
}

func (s *PlainSink) Entry(e *walker.TreeEntry, _ []bool) error {
	_, err := s.bw.WriteString(plainLine(e, s.opts) + "\n")
	return err
}

func (s *PlainSink) Done(int, int) error {
	return s.bw.Flush()
}
