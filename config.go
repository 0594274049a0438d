package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jadenpxrk/arbor/internal/filestat"
	"github.com/jadenpxrk/arbor/internal/filter"
	"github.com/jadenpxrk/arbor/internal/render"
	"github.com/jadenpxrk/arbor/internal/stats"
	"github.com/jadenpxrk/arbor/internal/walker"
)

// Viper keys. Nested keys map to [display], [filters] and [performance]
// tables in config.toml and to ARBOR_DISPLAY_UNICODE style env variables.
const (
	keyUnicode   = "display.unicode"
	keyShowSize  = "display.show_size"
	keyShowLines = "display.show_lines"
	keyDirSizes  = "display.dir_sizes"
	keyTotalSize = "display.total_size"
	keyColor     = "display.color"
	keyNoColor   = "display.no_color"
	keyFullPath  = "display.full_path"

	keyShowHidden = "filters.show_hidden"
	keyGitignore  = "filters.gitignore"
	keyMaxDepth   = "filters.max_depth"
	keyMaxDirs    = "filters.max_dirs"
	keyMaxFiles   = "filters.max_files"
	keySort       = "filters.sort"
	keyReverse    = "filters.reverse"
	keyInclude    = "filters.include"
	keyExclude    = "filters.exclude"
	keySearch     = "filters.search"
	keyIgnoreCase = "filters.ignore_case"
	keyOnlyDirs   = "filters.only_dirs"
	keyOnlyFiles  = "filters.only_files"
	keyMinSize    = "filters.min_size"
	keyMaxSize    = "filters.max_size"
	keyNewerThan  = "filters.newer_than"
	keyOlderThan  = "filters.older_than"

	keyThreads     = "performance.threads"
	keyMaxFileSize = "performance.max_file_size"

	keyOutput       = "output"
	keyDist         = "dist"
	keyTop          = "top"
	keyDistFormat   = "format"
	keyPDF          = "pdf"
	keyClipboard    = "clipboard"
	keyInteractive  = "interactive"
	keyBench        = "bench"
	keyIgnoreErrors = "ignore_errors"
	keyVerbose      = "verbose"
	keyLogLevel     = "log_level"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyUnicode, true)
	v.SetDefault(keyShowSize, true)
	v.SetDefault(keyShowLines, false)
	v.SetDefault(keyDirSizes, false)
	v.SetDefault(keyTotalSize, false)
	v.SetDefault(keyShowHidden, false)
	v.SetDefault(keyGitignore, false)
	v.SetDefault(keyMaxDepth, 0)
	v.SetDefault(keyMaxDirs, 0)
	v.SetDefault(keyMaxFiles, 0)
	v.SetDefault(keySort, "")
	v.SetDefault(keyThreads, 0)
	v.SetDefault(keyMaxFileSize, "1GB")
	v.SetDefault(keyOutput, "tree")
	v.SetDefault(keyTop, 10)
	v.SetDefault(keyDistFormat, "chart")
	v.SetDefault(keyLogLevel, "")
}

// runConfig is everything one invocation needs, resolved and validated.
type runConfig struct {
	filter filter.Options
	format render.FormatOptions
	output render.Format

	showLines bool
	dirSizes  bool
	totalSize bool

	hasDist    bool
	dist       stats.DistKind
	distFormat render.DistFormat
	top        int

	threads     int
	maxFileSize int64

	pdf          string
	clipboard    bool
	interactive  bool
	bench        bool
	ignoreErrors bool
	logLevel     string
}

// buffered reports whether the whole tree must be built before output.
func (c *runConfig) buffered() bool {
	needs := walker.OutputNeeds{
		Structured:   c.output.Structured(),
		TotalSize:    c.totalSize,
		DirSizes:     c.dirSizes,
		Distribution: c.hasDist,
	}
	return c.pdf != "" || walker.RequiresBuffering(&c.filter, needs)
}

// resolveConfig turns flags, config file and environment into a runConfig.
// Bad patterns, sizes, durations and enum values fail here, before any walk.
// stdoutTTY is whether standard output is a terminal.
func resolveConfig(v *viper.Viper, stdoutTTY bool) (*runConfig, error) {
	cfg := &runConfig{
		showLines:    v.GetBool(keyShowLines),
		dirSizes:     v.GetBool(keyDirSizes),
		totalSize:    v.GetBool(keyTotalSize),
		top:          v.GetInt(keyTop),
		threads:      v.GetInt(keyThreads),
		pdf:          v.GetString(keyPDF),
		clipboard:    v.GetBool(keyClipboard),
		interactive:  v.GetBool(keyInteractive),
		bench:        v.GetBool(keyBench),
		ignoreErrors: v.GetBool(keyIgnoreErrors),
		logLevel:     resolveLogLevel(v),
	}
	if cfg.threads < 0 {
		return nil, fmt.Errorf("threads must not be negative, got %d", cfg.threads)
	}
	if cfg.top < 0 {
		return nil, fmt.Errorf("top must not be negative, got %d", cfg.top)
	}

	var err error
	if cfg.filter, err = resolveFilter(v); err != nil {
		return nil, err
	}

	if cfg.maxFileSize, err = parseSizeSetting(v, keyMaxFileSize); err != nil {
		return nil, err
	}
	if cfg.maxFileSize == 0 {
		cfg.maxFileSize = filestat.DefaultMaxFileSize
	}

	if cfg.output, err = render.ParseFormat(v.GetString(keyOutput)); err != nil {
		return nil, err
	}
	if dist := v.GetString(keyDist); dist != "" {
		cfg.hasDist = true
		if cfg.dist, err = stats.ParseDistKind(dist); err != nil {
			return nil, err
		}
	}
	if cfg.distFormat, err = render.ParseDistFormat(v.GetString(keyDistFormat)); err != nil {
		return nil, err
	}

	cfg.format = render.FormatOptions{
		Unicode:   v.GetBool(keyUnicode),
		Color:     resolveColor(v, stdoutTTY && !cfg.clipboard),
		FullPath:  v.GetBool(keyFullPath),
		ShowSize:  v.GetBool(keyShowSize),
		ShowLines: cfg.showLines,
		DirSizes:  cfg.dirSizes,
	}
	return cfg, nil
}

func resolveFilter(v *viper.Viper) (filter.Options, error) {
	ignoreCase := v.GetBool(keyIgnoreCase)
	opts := filter.Options{
		OnlyDirs:   v.GetBool(keyOnlyDirs),
		OnlyFiles:  v.GetBool(keyOnlyFiles),
		Gitignore:  v.GetBool(keyGitignore),
		ShowHidden: v.GetBool(keyShowHidden),
		MaxDepth:   v.GetInt(keyMaxDepth),
		MaxDirs:    v.GetInt(keyMaxDirs),
		MaxFiles:   v.GetInt(keyMaxFiles),
		Reverse:    v.GetBool(keyReverse),
	}

	var err error
	if opts.Include, err = filter.CompilePattern(v.GetString(keyInclude), ignoreCase); err != nil {
		return opts, err
	}
	if opts.Exclude, err = filter.CompilePattern(v.GetString(keyExclude), ignoreCase); err != nil {
		return opts, err
	}
	if opts.Search, err = filter.CompilePattern(v.GetString(keySearch), ignoreCase); err != nil {
		return opts, err
	}
	if opts.MinSize, err = parseSizeSetting(v, keyMinSize); err != nil {
		return opts, err
	}
	if opts.MaxSize, err = parseSizeSetting(v, keyMaxSize); err != nil {
		return opts, err
	}
	if opts.NewerThan, err = parseAgeSetting(v, keyNewerThan); err != nil {
		return opts, err
	}
	if opts.OlderThan, err = parseAgeSetting(v, keyOlderThan); err != nil {
		return opts, err
	}
	if opts.SortBy, err = filter.ParseSortKey(v.GetString(keySort)); err != nil {
		return opts, err
	}
	return opts, opts.Validate()
}

func parseSizeSetting(v *viper.Viper, key string) (int64, error) {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return 0, nil
	}
	n, err := filter.ParseSize(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseAgeSetting(v *viper.Viper, key string) (d time.Duration, err error) {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return 0, nil
	}
	d, err = filter.ParseAge(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// resolveColor applies --no-color, then --color, then NO_COLOR, then whether
// output is a terminal.
func resolveColor(v *viper.Viper, terminal bool) bool {
	switch {
	case v.GetBool(keyNoColor):
		return false
	case v.GetBool(keyColor):
		return true
	case os.Getenv("NO_COLOR") != "":
		return false
	}
	return terminal
}

func resolveLogLevel(v *viper.Viper) string {
	if level := v.GetString(keyLogLevel); level != "" {
		return level
	}
	if v.GetBool(keyVerbose) {
		return "debug"
	}
	return "warn"
}

// configDirs lists where config.toml and categories.yml are looked up.
func configDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "arbor"))
	}
	return append(dirs, ".")
}
