package stats

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jadenpxrk/arbor/internal/walker"
)

// DistKind selects how files are grouped in a size distribution.
type DistKind int

const (
	DistType DistKind = iota
	DistSize
	DistExt
	DistLang
)

func (k DistKind) String() string {
	switch k {
	case DistType:
		return "type"
	case DistSize:
		return "size"
	case DistExt:
		return "ext"
	case DistLang:
		return "lang"
	}
	return "unknown"
}

// ParseDistKind accepts "type", "size", "ext" or "lang".
func ParseDistKind(s string) (DistKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "type":
		return DistType, nil
	case "size":
		return DistSize, nil
	case "ext", "extension":
		return DistExt, nil
	case "lang", "language":
		return DistLang, nil
	}
	return DistType, fmt.Errorf("unknown distribution %q (expected type, size, ext or lang)", s)
}

// NoExtension labels files without an extension in DistExt reports.
const NoExtension = "no extension"

// Bucket is one row of a distribution.
type Bucket struct {
	Label string
	Size  int64
	Count int
}

// Distribution groups file sizes by kind, largest first. When top > 0 only
// the first top buckets are returned, and total covers just those.
func Distribution(entries []*walker.TreeEntry, kind DistKind, cats *Categories, top int) (buckets []Bucket, total int64) {
	if cats == nil && kind == DistType {
		cats = DefaultCategories()
	}
	index := make(map[string]int)
	for _, root := range entries {
		root.Walk(func(e *walker.TreeEntry) {
			if e.IsDir {
				return
			}
			label := bucketLabel(e, kind, cats)
			i, ok := index[label]
			if !ok {
				i = len(buckets)
				index[label] = i
				buckets = append(buckets, Bucket{Label: label})
			}
			buckets[i].Size += e.Size
			buckets[i].Count++
		})
	}

	slices.SortFunc(buckets, func(a, b Bucket) int {
		if c := cmp.Compare(b.Size, a.Size); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	if top > 0 && len(buckets) > top {
		buckets = buckets[:top]
	}
	for _, b := range buckets {
		total += b.Size
	}
	return buckets, total
}

func bucketLabel(e *walker.TreeEntry, kind DistKind, cats *Categories) string {
	switch kind {
	case DistSize:
		return sizeBucket(e.Size)
	case DistExt:
		if ext := Extension(e.Name); ext != "" {
			return ext
		}
		return NoExtension
	case DistLang:
		return Language(e.Name)
	default:
		return cats.Category(e.Name)
	}
}

const (
	kib = 1 << 10
	mib = 1 << 20
	gib = 1 << 30
)

func sizeBucket(size int64) string {
	switch {
	case size <= kib:
		return "< 1KB"
	case size <= mib:
		return "1KB - 1MB"
	case size <= 10*mib:
		return "1MB - 10MB"
	case size <= 100*mib:
		return "10MB - 100MB"
	case size <= gib:
		return "100MB - 1GB"
	default:
		return "> 1GB"
	}
}
