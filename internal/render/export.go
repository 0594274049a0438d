package render

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/jadenpxrk/arbor/internal/walker"
)

// WriteJSON writes the nested entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []*walker.TreeEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

var csvHeader = []string{"path", "type", "size", "lines", "modified"}

// WriteCSV writes one row per entry. Paths are built from entry names
// starting at the root's name; modified is in Unix seconds.
func WriteCSV(w io.Writer, entries []*walker.TreeEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, root := range entries {
		if err := writeCSVEntry(cw, root, ""); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeCSVEntry(cw *csv.Writer, e *walker.TreeEntry, parent string) error {
	path := e.Name
	if parent != "" {
		path = parent + "/" + e.Name
	}
	kind := "file"
	if e.IsDir {
		kind = "directory"
	}
	var modified int64
	if !e.Modified.IsZero() {
		modified = max(e.Modified.Unix(), 0)
	}

	row := []string{
		path,
		kind,
		strconv.FormatInt(e.Size, 10),
		strconv.FormatInt(e.LineCount, 10),
		strconv.FormatInt(modified, 10),
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	for _, child := range e.Children {
		if err := writeCSVEntry(cw, child, path); err != nil {
			return err
		}
	}
	return nil
}
