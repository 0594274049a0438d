package filter

import (
	"cmp"
	"path/filepath"
	"time"
)

// SortRecord is the lightweight view of an entry used for ordering siblings.
type SortRecord struct {
	Name      string
	Size      int64
	Modified  time.Time
	LineCount int64
}

// Compare orders two records by key, reversed when reverse is set. It returns
// a negative number when a sorts before b.
func Compare(a, b SortRecord, key SortKey, reverse bool) int {
	var c int
	switch key {
	case SortByName:
		c = cmp.Compare(a.Name, b.Name)
	case SortBySize:
		c = cmp.Compare(a.Size, b.Size)
	case SortByTime:
		c = a.Modified.Compare(b.Modified)
	case SortByExt:
		c = cmp.Compare(extension(a.Name), extension(b.Name))
		if c == 0 {
			c = cmp.Compare(a.Name, b.Name)
		}
	case SortByLines:
		c = cmp.Compare(a.LineCount, b.LineCount)
	}
	if reverse {
		return -c
	}
	return c
}

// extension returns the extension without its dot. Dotfiles such as
// ".bashrc" have no extension.
func extension(name string) string {
	ext := filepath.Ext(name)
	if ext == name || ext == "" {
		return ""
	}
	return ext[1:]
}
