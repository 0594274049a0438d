package walker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadenpxrk/arbor/internal/filestat"
	"github.com/jadenpxrk/arbor/internal/filter"
	"github.com/jadenpxrk/arbor/internal/ignore"
)

// makeTree creates files under a temp dir. Keys ending in "/" are directories.
func makeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newWalker(t *testing.T, root string, opts filter.Options) *Walker {
	t.Helper()
	w, err := New(root, opts, Config{Threads: 2})
	require.NoError(t, err)
	return w
}

// relPaths lists every entry below the root as a slash path relative to it.
func relPaths(t *testing.T, w *Walker, entries []*TreeEntry) []string {
	t.Helper()
	var out []string
	for _, e := range entries {
		e.Walk(func(n *TreeEntry) {
			if n.Depth == 0 {
				return
			}
			rel, err := filepath.Rel(w.Root(), n.Path)
			require.NoError(t, err)
			out = append(out, filepath.ToSlash(rel))
		})
	}
	sort.Strings(out)
	return out
}

func find(entries []*TreeEntry, name string) *TreeEntry {
	var found *TreeEntry
	for _, e := range entries {
		e.Walk(func(n *TreeEntry) {
			if found == nil && n.Name == name {
				found = n
			}
		})
	}
	return found
}

func names(entries []*TreeEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

var sampleTree = map[string]string{
	"README.md":           "# readme\n",
	"main.go":             "package main\n\nfunc main() {}\n",
	".env":                "SECRET=1\n",
	".git/config":         "[core]\n",
	"src/lib.go":          "package src\n",
	"src/util/strings.go": "package util\n",
	"docs/guide.md":       "guide\n",
	"empty/":              "",
}

func TestSelectMode(t *testing.T) {
	search, _ := filter.CompilePattern("x", false)
	include, _ := filter.CompilePattern("x", false)

	cases := []struct {
		name string
		opts filter.Options
		want Mode
	}{
		{"no filters", filter.Options{}, ModeFast},
		{"hidden and depth stay fast", filter.Options{ShowHidden: true, MaxDepth: 3}, ModeFast},
		{"include pattern", filter.Options{Include: include}, ModeStandard},
		{"only dirs", filter.Options{OnlyDirs: true}, ModeStandard},
		{"sort", filter.Options{SortBy: filter.SortByName}, ModeStandard},
		{"max files", filter.Options{MaxFiles: 2}, ModeStandard},
		{"search", filter.Options{Search: search}, ModeFull},
		{"min size", filter.Options{MinSize: 10}, ModeFull},
		{"newer than", filter.Options{NewerThan: 1}, ModeFull},
		{"gitignore", filter.Options{Gitignore: true}, ModeFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SelectMode(&tc.opts))
		})
	}
}

func TestModeUpgrades(t *testing.T) {
	root := makeTree(t, sampleTree)

	w := newWalker(t, root, filter.Options{})
	require.Equal(t, ModeFast, w.Mode())
	w.EnableLineCounting()
	assert.Equal(t, ModeStandard, w.Mode())
	w.EnableDirSizes()
	assert.Equal(t, ModeFull, w.Mode())
	w.EnableLineCounting()
	assert.Equal(t, ModeFull, w.Mode(), "mode is never lowered")
}

func TestWalk_SingleRootEntry(t *testing.T) {
	root := makeTree(t, sampleTree)

	entries, err := newWalker(t, root, filter.Options{}).Walk()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Depth)
	assert.True(t, entries[0].IsDir)
	assert.Equal(t, filepath.Base(root), entries[0].Name)
}

func TestWalk_RootIsFile(t *testing.T) {
	root := makeTree(t, map[string]string{"only.txt": "a\nb\n"})

	w := newWalker(t, filepath.Join(root, "only.txt"), filter.Options{})
	w.EnableLineCounting()
	entries, err := w.Walk()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsDir)
	assert.Empty(t, entries[0].Children)
	assert.Equal(t, int64(2), entries[0].LineCount)
}

func TestWalk_HiddenEntries(t *testing.T) {
	root := makeTree(t, sampleTree)

	w := newWalker(t, root, filter.Options{})
	entries, err := w.Walk()
	require.NoError(t, err)
	paths := relPaths(t, w, entries)
	for _, p := range paths {
		assert.False(t, strings.HasPrefix(filepath.Base(p), "."), p)
	}

	w = newWalker(t, root, filter.Options{ShowHidden: true})
	entries, err = w.Walk()
	require.NoError(t, err)
	paths = relPaths(t, w, entries)
	assert.Contains(t, paths, ".env")
	assert.Contains(t, paths, ".git/config")
}

func TestWalk_StrategiesAgree(t *testing.T) {
	root := makeTree(t, sampleTree)

	for _, hidden := range []bool{false, true} {
		w := newWalker(t, root, filter.Options{ShowHidden: hidden})

		fast, err := w.walkFast()
		require.NoError(t, err)
		standard, err := w.walkStandard()
		require.NoError(t, err)
		full, err := w.walkFull()
		require.NoError(t, err)

		assert.Equal(t, relPaths(t, w, fast), relPaths(t, w, standard))
		assert.Equal(t, relPaths(t, w, fast), relPaths(t, w, full))
	}
}

func TestWalk_FastReadersAgree(t *testing.T) {
	root := makeTree(t, sampleTree)
	require.NoError(t, os.Symlink("README.md", filepath.Join(root, "link")))

	w := newWalker(t, root, filter.Options{ShowHidden: true})
	native, err := w.walkFast()
	require.NoError(t, err)

	w.fast = portableReader{}
	portable, err := w.walkFast()
	require.NoError(t, err)

	assert.Equal(t, relPaths(t, w, native), relPaths(t, w, portable))

	a, b := find(native, "link"), find(portable, "link")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.True(t, a.IsSymlink)
	assert.Equal(t, a.IsSymlink, b.IsSymlink)
	assert.Equal(t, a.Size, b.Size)
	assert.Equal(t, find(native, "main.go").Size, find(portable, "main.go").Size)
	assert.True(t, find(native, "main.go").Modified.Equal(find(portable, "main.go").Modified))
}

func TestWalk_Idempotent(t *testing.T) {
	root := makeTree(t, sampleTree)
	w := newWalker(t, root, filter.Options{})

	first, err := w.Walk()
	require.NoError(t, err)
	second, err := w.Walk()
	require.NoError(t, err)

	var a, b []string
	first[0].Walk(func(e *TreeEntry) { a = append(a, e.Path) })
	second[0].Walk(func(e *TreeEntry) { b = append(b, e.Path) })
	assert.Equal(t, a, b)
}

func TestWalk_DepthBound(t *testing.T) {
	root := makeTree(t, sampleTree)

	for _, opts := range []filter.Options{
		{MaxDepth: 1},
		{MaxDepth: 1, SortBy: filter.SortByName},
		{MaxDepth: 1, MinSize: 1},
	} {
		w := newWalker(t, root, opts)
		entries, err := w.Walk()
		require.NoError(t, err)

		entries[0].Walk(func(e *TreeEntry) {
			assert.LessOrEqual(t, e.Depth, 1, e.Path)
		})
		src := find(entries, "src")
		if src != nil {
			assert.Empty(t, src.Children)
		}
	}
}

func TestWalk_DirectoriesBeforeFilesWhenUnsorted(t *testing.T) {
	root := makeTree(t, sampleTree)

	for _, opts := range []filter.Options{{}, {MaxFiles: 100}} {
		entries, err := newWalker(t, root, opts).Walk()
		require.NoError(t, err)

		seenFile := false
		for _, child := range entries[0].Children {
			if !child.IsDir {
				seenFile = true
				continue
			}
			assert.False(t, seenFile, "directory %s listed after a file", child.Name)
		}
	}
}

func TestWalk_SortBySize(t *testing.T) {
	root := makeTree(t, map[string]string{
		"big":    strings.Repeat("x", 1000),
		"small":  "x",
		"medium": strings.Repeat("x", 10),
	})

	entries, err := newWalker(t, root, filter.Options{SortBy: filter.SortBySize}).Walk()
	require.NoError(t, err)
	assert.Equal(t, []string{"small", "medium", "big"}, names(entries[0].Children))

	entries, err = newWalker(t, root, filter.Options{SortBy: filter.SortBySize, Reverse: true}).Walk()
	require.NoError(t, err)
	assert.Equal(t, []string{"big", "medium", "small"}, names(entries[0].Children))
}

func TestWalk_SortByLines(t *testing.T) {
	root := makeTree(t, map[string]string{
		"three": "1\n2\n3\n",
		"one":   "1\n",
		"two":   "1\n2\n",
	})

	w := newWalker(t, root, filter.Options{SortBy: filter.SortByLines})
	w.EnableLineCounting()
	entries, err := w.Walk()
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, names(entries[0].Children))
	assert.Equal(t, int64(3), find(entries, "three").LineCount)
}

func TestWalk_PerDirectoryCaps(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a.txt": "", "b.txt": "", "c.txt": "",
		"d1/": "", "d2/": "", "d3/": "",
		"d1/x.txt": "", "d1/y.txt": "",
	})

	w := newWalker(t, root, filter.Options{MaxFiles: 1, MaxDirs: 2, SortBy: filter.SortByName})
	entries, err := w.Walk()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "d1", "d2"}, names(entries[0].Children))
	assert.Equal(t, []string{"x.txt"}, names(find(entries, "d1").Children))
}

func TestWalk_SearchKeepsDirectories(t *testing.T) {
	root := makeTree(t, sampleTree)
	search, err := filter.CompilePattern(`strings\.go$`, false)
	require.NoError(t, err)

	w := newWalker(t, root, filter.Options{Search: search})
	require.Equal(t, ModeFull, w.Mode())
	entries, err := w.Walk()
	require.NoError(t, err)

	var files []string
	entries[0].Walk(func(e *TreeEntry) {
		if !e.IsDir {
			files = append(files, e.Name)
		}
	})
	assert.Equal(t, []string{"strings.go"}, files)
	assert.NotNil(t, find(entries, "docs"), "directories are not subject to search")
}

func TestWalk_IncludeExcludeOnlyDirs(t *testing.T) {
	root := makeTree(t, sampleTree)
	exclude, err := filter.CompilePattern(`\.md$`, false)
	require.NoError(t, err)

	w := newWalker(t, root, filter.Options{Exclude: exclude})
	entries, err := w.Walk()
	require.NoError(t, err)
	assert.NotContains(t, relPaths(t, w, entries), "README.md")
	assert.Contains(t, relPaths(t, w, entries), "main.go")

	w = newWalker(t, root, filter.Options{OnlyDirs: true})
	entries, err = w.Walk()
	require.NoError(t, err)
	assert.Equal(t, []string{"docs", "empty", "src", "src/util"}, relPaths(t, w, entries))
}

func TestWalk_Gitignore(t *testing.T) {
	tree := map[string]string{
		".gitignore":   "*.log\nbuild/\n",
		"app.go":       "package app\n",
		"debug.log":    "noise\n",
		"build/out.go": "package out\n",
	}
	root := makeTree(t, tree)

	w := newWalker(t, root, filter.Options{Gitignore: true})
	entries, err := w.Walk()
	require.NoError(t, err)
	assert.Equal(t, []string{"app.go"}, relPaths(t, w, entries))
}

type recordingLogger struct {
	mu    sync.Mutex
	debug []string
	warn  []string
}

func (l *recordingLogger) Debugf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warn = append(l.warn, fmt.Sprintf(format, args...))
}

func TestNew_GitignoreWithoutRulesIsLogged(t *testing.T) {
	root := makeTree(t, map[string]string{"app.go": "package app\n"})
	log := &recordingLogger{}

	w, err := New(root, filter.Options{Gitignore: true}, Config{Logger: log})
	require.NoError(t, err)
	entries, err := w.Walk()
	require.NoError(t, err)

	assert.Equal(t, []string{"app.go"}, relPaths(t, w, entries))
	assert.Empty(t, log.warn)
	assert.Contains(t, log.debug, "no ignore rules found in "+w.Root())
}

func TestWalk_PreloadedIgnoreRules(t *testing.T) {
	root := makeTree(t, sampleTree)
	canonical, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)

	w, err := New(root, filter.Options{Gitignore: true}, Config{Ignore: ignore.FromPatterns(canonical, "docs/")})
	require.NoError(t, err)
	entries, err := w.Walk()
	require.NoError(t, err)
	assert.Nil(t, find(entries, "docs"))
	assert.NotNil(t, find(entries, "src"))
}

func TestWalk_UnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := makeTree(t, map[string]string{"locked/secret.txt": "x", "open.txt": "y"})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := newWalker(t, root, filter.Options{SortBy: filter.SortByName}).Walk()
	assert.Error(t, err, "read failures are fatal outside ignore mode")

	w := newWalker(t, root, filter.Options{Gitignore: true})
	entries, err := w.Walk()
	require.NoError(t, err)
	assert.Equal(t, []string{"locked", "open.txt"}, relPaths(t, w, entries))
	assert.Empty(t, find(entries, "locked").Children)
}

func TestWalk_SymlinksNotFollowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges")
	}
	root := makeTree(t, map[string]string{"real/inner.txt": "x"})
	require.NoError(t, os.Symlink("real", filepath.Join(root, "alias")))

	for _, opts := range []filter.Options{{}, {SortBy: filter.SortByName}} {
		entries, err := newWalker(t, root, opts).Walk()
		require.NoError(t, err)
		alias := find(entries, "alias")
		require.NotNil(t, alias)
		assert.True(t, alias.IsSymlink)
		assert.False(t, alias.IsDir)
		assert.Empty(t, alias.Children)
	}
}

func TestWalk_LineCounting(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a.txt":     "1\n2\n3",
		"sub/b.txt": "1\n",
		"bin.dat":   "\x00\x01\x02",
	})

	w := newWalker(t, root, filter.Options{})
	w.EnableLineCounting()
	entries, err := w.Walk()
	require.NoError(t, err)
	assert.Equal(t, int64(3), find(entries, "a.txt").LineCount)
	assert.Equal(t, int64(1), find(entries, "b.txt").LineCount)
	assert.Zero(t, find(entries, "bin.dat").LineCount)
	assert.Zero(t, find(entries, "sub").LineCount)
}

func TestWalk_DirectorySizes(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a":           strings.Repeat("x", 100),
		"sub/b":       strings.Repeat("x", 20),
		"sub/deep/c":  strings.Repeat("x", 3),
		"other/d":     strings.Repeat("x", 7),
		"other/more/": "",
	})

	w := newWalker(t, root, filter.Options{})
	w.EnableDirSizes()
	entries, err := w.Walk()
	require.NoError(t, err)

	assert.Equal(t, int64(130), entries[0].Size)
	assert.Equal(t, int64(23), find(entries, "sub").Size)
	assert.Equal(t, int64(3), find(entries, "deep").Size)
	assert.Equal(t, int64(7), find(entries, "other").Size)
	assert.Zero(t, find(entries, "more").Size)
}

func TestWalk_DirectorySizesBelowDepthLimit(t *testing.T) {
	root := makeTree(t, map[string]string{
		"sub/b":      strings.Repeat("x", 20),
		"sub/deep/c": strings.Repeat("x", 3),
	})

	w := newWalker(t, root, filter.Options{MaxDepth: 1})
	w.EnableDirSizes()
	entries, err := w.Walk()
	require.NoError(t, err)

	sub := find(entries, "sub")
	assert.Empty(t, sub.Children)
	assert.Equal(t, int64(23), sub.Size, "unexpanded directories are measured on disk")
	assert.Equal(t, int64(23), entries[0].Size)
}

func TestWalk_DirectorySizesIgnoreWalkOptions(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a/.hidden": strings.Repeat("x", 100),
		"a/x":       strings.Repeat("x", 10),
		"a/y":       strings.Repeat("x", 20),
		"a/b/z":     strings.Repeat("x", 5),
	})
	search, err := filter.CompilePattern("zzz", false)
	require.NoError(t, err)

	cases := []struct {
		name string
		opts filter.Options
	}{
		{"unlimited", filter.Options{}},
		{"depth limit", filter.Options{MaxDepth: 1}},
		{"only dirs", filter.Options{OnlyDirs: true}},
		{"file cap", filter.Options{MaxFiles: 1}},
		{"search", filter.Options{Search: search}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newWalker(t, root, tc.opts)
			w.EnableDirSizes()
			entries, err := w.Walk()
			require.NoError(t, err)

			a := find(entries, "a")
			require.NotNil(t, a)
			assert.Equal(t, int64(135), a.Size)
			assert.Equal(t, int64(135), entries[0].Size)
			if b := find(entries, "b"); b != nil {
				assert.Equal(t, int64(5), b.Size)
			}
		})
	}
}

func TestWalk_DirectorySizesPartialFailure(t *testing.T) {
	root := makeTree(t, map[string]string{
		"top":        strings.Repeat("x", 1),
		"good/f":     strings.Repeat("x", 10),
		"good/sub/g": strings.Repeat("x", 4),
		"bad/h":      strings.Repeat("x", 50),
	})

	w := newWalker(t, root, filter.Options{})
	w.EnableDirSizes()
	failing := filepath.Join(w.Root(), "bad")
	boom := errors.New("permission denied")
	w.sizer = func(dir string) (map[string]int64, error) {
		if dir == failing {
			return nil, boom
		}
		return filestat.DirSizes(dir)
	}

	entries, err := w.Walk()
	require.Error(t, err)
	require.NotNil(t, entries)

	var partial *PartialSizeError
	require.True(t, errors.As(err, &partial))
	assert.Len(t, partial.Errs.Errors, 1)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, int64(14), find(entries, "good").Size)
	assert.Equal(t, int64(4), find(entries, "sub").Size)
	assert.Zero(t, find(entries, "bad").Size)
	assert.Equal(t, int64(15), entries[0].Size, "failed subtree is left out of the root total")
}

func TestPartialSizeError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := error(&PartialSizeError{Errs: multierror.Append(nil, inner)})

	var partial *PartialSizeError
	require.True(t, errors.As(err, &partial))
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "1 failures")
}

func TestNew_InvalidRoot(t *testing.T) {
	_, err := New("bad\x00path", filter.Options{}, Config{})
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = New(filepath.Join(t.TempDir(), "missing"), filter.Options{}, Config{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = New(t.TempDir(), filter.Options{OnlyDirs: true, OnlyFiles: true}, Config{})
	assert.Error(t, err)
}
