package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/jadenpxrk/arbor/internal/stats"
	"github.com/jadenpxrk/arbor/internal/walker"
)

const (
	pdfPageWidth  = 210.0 // A4 width in mm
	pdfMargin     = 10.0
	pdfLineHeight = 5.0
	pdfFontSize   = 9.0
)

// WritePDF saves the tree and its totals as an A4 document. The core PDF fonts
// only cover Latin-1, so the tree is always drawn with ASCII glyphs and
// without color.
func WritePDF(path string, entries []*walker.TreeEntry, opts FormatOptions) error {
	opts.Unicode = false
	opts.Color = false

	var tree bytes.Buffer
	if err := WriteTree(&tree, entries, opts); err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Courier", "", pdfFontSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, tr(tree.String()), "", "L", false)
	pdf.Ln(pdfLineHeight)

	s := stats.FromEntries(entries)
	pdf.SetFont("Helvetica", "B", pdfFontSize+1)
	pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, "Summary", "", "L", false)
	pdf.Ln(pdfLineHeight / 2)

	pdf.SetFont("Helvetica", "", pdfFontSize)
	summary := fmt.Sprintf("Directories: %d\nFiles: %d\nTotal size: %s", s.DirCount, s.FileCount, FormatSize(s.TotalSize))
	if s.TotalLines > 0 {
		summary += fmt.Sprintf("\nTotal lines: %d", s.TotalLines)
	}
	pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, summary, "", "L", false)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to save PDF to %s: %w", path, err)
	}
	return nil
}
