//go:build linux

package walker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetdentsReader_MetadataMatchesLstat(t *testing.T) {
	root := makeTree(t, map[string]string{
		"small.txt": "abc",
		"large.bin": strings.Repeat("x", 70000),
		"dir/inner": "1",
		".hidden":   "h",
		"skip/":     "",
	})
	require.NoError(t, os.Symlink("small.txt", filepath.Join(root, "link")))
	require.NoError(t, os.Chmod(filepath.Join(root, "small.txt"), 0o755))

	raws, err := getdentsReader{}.readDir(root, func(name string) bool { return name != "skip" })
	require.NoError(t, err)

	got := make(map[string]rawEntry, len(raws))
	for _, r := range raws {
		got[r.name] = r
	}
	assert.ElementsMatch(t, []string{"small.txt", "large.bin", "dir", ".hidden", "link"}, keysOf(got))

	for name, r := range got {
		info, err := os.Lstat(filepath.Join(root, name))
		require.NoError(t, err)
		assert.Equal(t, info.Mode(), r.mode, name)
		assert.True(t, info.ModTime().Equal(r.modified), name)
		if !info.IsDir() {
			assert.Equal(t, info.Size(), r.size, name)
		}
	}
}

func keysOf(m map[string]rawEntry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
