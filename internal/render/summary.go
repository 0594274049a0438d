package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jadenpxrk/arbor/internal/stats"
)

// WriteTotal prints the "Total: ..." line for a tree.
func WriteTotal(w io.Writer, s stats.TreeStats, opts FormatOptions) error {
	line := fmt.Sprintf("Total: %s (%d files: %s, %d directories: %s)",
		FormatSize(s.TotalSize),
		s.FileCount, FormatSize(s.FileSize),
		s.DirCount, FormatSize(s.DirSize),
	)
	p := newPalette(opts.Color)
	_, err := fmt.Fprintf(w, "\n%s\n", p.paint(p.total, line))
	return err
}

// DistFormat selects the distribution layout.
type DistFormat int

const (
	DistTable DistFormat = iota
	DistChart
)

// ParseDistFormat accepts "table" or "chart".
func ParseDistFormat(s string) (DistFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return DistTable, nil
	case "chart":
		return DistChart, nil
	}
	return DistTable, fmt.Errorf("unknown distribution format %q (expected table or chart)", s)
}

const defaultTermWidth = 80

// TerminalWidth returns the width of f when it is a terminal, or 80.
func TerminalWidth(f *os.File) int {
	if f == nil {
		return defaultTermWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}

func percentOf(size, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(size) / float64(total) * 100
}

// WriteDistribution prints buckets as a table or a bar chart. width is the
// terminal width used to size chart bars.
func WriteDistribution(w io.Writer, buckets []stats.Bucket, total int64, format DistFormat, width int, opts FormatOptions) error {
	if format == DistChart {
		return writeChart(w, buckets, total, width, opts)
	}
	return writeTable(w, buckets, total)
}

func writeTable(w io.Writer, buckets []stats.Bucket, total int64) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%15s %12s %8s\n", "Category", "Size", "Percent")
	b.WriteString(strings.Repeat("-", 40) + "\n")
	for _, bucket := range buckets {
		fmt.Fprintf(&b, "%15s %12s %7.1f%%\n", bucket.Label, FormatSize(bucket.Size), percentOf(bucket.Size, total))
	}
	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&b, "%15s %12s %7.1f%%\n", "Total", FormatSize(total), 100.0)
	_, err := io.WriteString(w, b.String())
	return err
}

// chartLabelSpace is what a chart line needs besides the bar.
const chartLabelSpace = 35

func writeChart(w io.Writer, buckets []stats.Bucket, total int64, width int, opts FormatOptions) error {
	p := newPalette(opts.Color)
	barWidth := max(width-chartLabelSpace, 0)
	full, empty := "#", "-"
	if opts.Unicode {
		full, empty = "█", "░"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nSize Distribution\n\n")
	for _, bucket := range buckets {
		percent := percentOf(bucket.Size, total)
		filled := min(int(percent/100*float64(barWidth)), barWidth)
		c := p.percentColor(percent)

		fmt.Fprintf(&b, "%s %s [%s%s] %s\n",
			p.paint(c, fmt.Sprintf("%12s", bucket.Label)),
			p.paint(p.details, fmt.Sprintf("%5.1f%%", percent)),
			p.paint(c, strings.Repeat(full, filled)),
			p.paint(p.details, strings.Repeat(empty, barWidth-filled)),
			FormatSize(bucket.Size),
		)
	}
	fmt.Fprintf(&b, "\n%12s %6s %s %s\n", "Total", "100.0%", strings.Repeat(" ", barWidth+2), FormatSize(total))
	_, err := io.WriteString(w, b.String())
	return err
}
