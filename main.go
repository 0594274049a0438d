package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jadenpxrk/arbor/internal/logger"
	"github.com/jadenpxrk/arbor/internal/render"
	"github.com/jadenpxrk/arbor/internal/stats"
	"github.com/jadenpxrk/arbor/internal/walker"
)

var cfgFile string

// version is the application version, set via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "arbor [PATHS...]",
	Short: "arbor draws directory trees with sizes, line counts and filters.",
	Long: `arbor displays local directories or remote Git repositories as trees.
It can filter by pattern, size and age, respect .gitignore, cap entries per
directory, sort, count lines, total directory sizes and report size
distributions. Output is a tree, a plain listing, JSON, CSV or PDF.`,
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/arbor/config.toml)")

	// Display
	rootCmd.Flags().BoolP("unicode", "u", true, "Use Unicode characters for tree drawing")
	viper.BindPFlag(keyUnicode, rootCmd.Flags().Lookup("unicode"))
	rootCmd.Flags().Bool("color", false, "Force colored output")
	viper.BindPFlag(keyColor, rootCmd.Flags().Lookup("color"))
	rootCmd.Flags().Bool("no-color", false, "Disable colored output")
	viper.BindPFlag(keyNoColor, rootCmd.Flags().Lookup("no-color"))
	rootCmd.Flags().BoolP("full-path", "f", false, "Show full paths instead of names")
	viper.BindPFlag(keyFullPath, rootCmd.Flags().Lookup("full-path"))
	rootCmd.Flags().Bool("show-size", true, "Show file sizes")
	viper.BindPFlag(keyShowSize, rootCmd.Flags().Lookup("show-size"))
	rootCmd.Flags().BoolP("show-lines", "l", false, "Show line counts for text files")
	viper.BindPFlag(keyShowLines, rootCmd.Flags().Lookup("show-lines"))
	rootCmd.Flags().BoolP("dir-sizes", "d", false, "Show recursive directory sizes")
	viper.BindPFlag(keyDirSizes, rootCmd.Flags().Lookup("dir-sizes"))
	rootCmd.Flags().Bool("total-size", false, "Show a total size summary")
	viper.BindPFlag(keyTotalSize, rootCmd.Flags().Lookup("total-size"))

	// Filtering
	rootCmd.Flags().BoolP("all", "a", false, "Show hidden files and directories")
	viper.BindPFlag(keyShowHidden, rootCmd.Flags().Lookup("all"))
	rootCmd.Flags().BoolP("gitignore", "g", false, "Respect the root's .gitignore")
	viper.BindPFlag(keyGitignore, rootCmd.Flags().Lookup("gitignore"))
	rootCmd.Flags().IntP("depth", "L", 0, "Maximum depth to traverse (0 for no limit)")
	viper.BindPFlag(keyMaxDepth, rootCmd.Flags().Lookup("depth"))
	rootCmd.Flags().Int("max-dirs", 0, "Maximum directories shown per directory (0 for no limit)")
	viper.BindPFlag(keyMaxDirs, rootCmd.Flags().Lookup("max-dirs"))
	rootCmd.Flags().Int("max-files", 0, "Maximum files shown per directory (0 for no limit)")
	viper.BindPFlag(keyMaxFiles, rootCmd.Flags().Lookup("max-files"))
	rootCmd.Flags().String("sort", "", "Sort entries by: name, size, time, ext or lines")
	viper.BindPFlag(keySort, rootCmd.Flags().Lookup("sort"))
	rootCmd.Flags().BoolP("reverse", "r", false, "Reverse sort order")
	viper.BindPFlag(keyReverse, rootCmd.Flags().Lookup("reverse"))
	rootCmd.Flags().StringP("include", "P", "", "Include only paths matching this regex")
	viper.BindPFlag(keyInclude, rootCmd.Flags().Lookup("include"))
	rootCmd.Flags().StringP("exclude", "I", "", "Exclude paths matching this regex")
	viper.BindPFlag(keyExclude, rootCmd.Flags().Lookup("exclude"))
	rootCmd.Flags().StringP("search", "s", "", "Show only files whose path matches this regex")
	viper.BindPFlag(keySearch, rootCmd.Flags().Lookup("search"))
	rootCmd.Flags().BoolP("ignore-case", "i", false, "Match include, exclude and search patterns case-insensitively")
	viper.BindPFlag(keyIgnoreCase, rootCmd.Flags().Lookup("ignore-case"))
	rootCmd.Flags().Bool("only-dirs", false, "Show only directories")
	viper.BindPFlag(keyOnlyDirs, rootCmd.Flags().Lookup("only-dirs"))
	rootCmd.Flags().Bool("only-files", false, "Show only files")
	viper.BindPFlag(keyOnlyFiles, rootCmd.Flags().Lookup("only-files"))
	rootCmd.Flags().String("min-size", "", "Minimum file size (e.g. 500KB, 1MB)")
	viper.BindPFlag(keyMinSize, rootCmd.Flags().Lookup("min-size"))
	rootCmd.Flags().String("max-size", "", "Maximum file size (e.g. 10MB, 1GB)")
	viper.BindPFlag(keyMaxSize, rootCmd.Flags().Lookup("max-size"))
	rootCmd.Flags().String("newer-than", "", "Show entries modified within this time (e.g. 30m, 2h, 1d)")
	viper.BindPFlag(keyNewerThan, rootCmd.Flags().Lookup("newer-than"))
	rootCmd.Flags().String("older-than", "", "Show entries modified before this time (e.g. 1w)")
	viper.BindPFlag(keyOlderThan, rootCmd.Flags().Lookup("older-than"))

	// Processing
	rootCmd.Flags().IntP("threads", "t", 0, "Number of threads for parallel work (0 for auto)")
	viper.BindPFlag(keyThreads, rootCmd.Flags().Lookup("threads"))
	rootCmd.Flags().String("max-file-size", "1GB", "Largest file whose lines are counted")
	viper.BindPFlag(keyMaxFileSize, rootCmd.Flags().Lookup("max-file-size"))

	// Output
	rootCmd.Flags().StringP("output", "o", "tree", "Output format: tree, plain, json or csv")
	viper.BindPFlag(keyOutput, rootCmd.Flags().Lookup("output"))
	rootCmd.Flags().String("dist", "", "Show size distribution by: type, size, ext or lang")
	viper.BindPFlag(keyDist, rootCmd.Flags().Lookup("dist"))
	rootCmd.Flags().Int("top", 10, "Number of distribution rows to show")
	viper.BindPFlag(keyTop, rootCmd.Flags().Lookup("top"))
	rootCmd.Flags().String("format", "chart", "Distribution format: table or chart")
	viper.BindPFlag(keyDistFormat, rootCmd.Flags().Lookup("format"))
	rootCmd.Flags().String("pdf", "", "Save the tree as PDF instead of printing it")
	viper.BindPFlag(keyPDF, rootCmd.Flags().Lookup("pdf"))
	rootCmd.Flags().BoolP("clipboard", "c", false, "Copy output to clipboard")
	viper.BindPFlag(keyClipboard, rootCmd.Flags().Lookup("clipboard"))

	// Interactive Mode
	rootCmd.Flags().Bool("interactive", false, "Pick the directory with a fuzzy finder")
	viper.BindPFlag(keyInteractive, rootCmd.Flags().Lookup("interactive"))

	// Diagnostics
	rootCmd.Flags().Bool("bench", false, "Print execution time to stderr")
	viper.BindPFlag(keyBench, rootCmd.Flags().Lookup("bench"))
	rootCmd.Flags().Bool("ignore-errors", false, "Report directory size failures as warnings")
	viper.BindPFlag(keyIgnoreErrors, rootCmd.Flags().Lookup("ignore-errors"))
	rootCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	viper.BindPFlag(keyVerbose, rootCmd.Flags().Lookup("verbose"))
	rootCmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn or error")
	viper.BindPFlag(keyLogLevel, rootCmd.Flags().Lookup("log-level"))

	setDefaults(viper.GetViper())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		for _, dir := range configDirs() {
			viper.AddConfigPath(dir)
		}
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("ARBOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := resolveConfig(viper.GetViper(), isatty.IsTerminal(os.Stdout.Fd()))
	if err != nil {
		return err
	}
	log := logger.NewConsoleLogger(os.Stderr, cfg.logLevel)
	if used := viper.ConfigFileUsed(); used != "" {
		log.Debugf("using config file %s", used)
	}

	roots := args
	if cfg.interactive {
		picked, err := runInteractiveFinder(cfg.filter.ShowHidden)
		if err != nil {
			return fmt.Errorf("interactive mode: %w", err)
		}
		if picked == "" {
			log.Infof("interactive selection aborted")
			return nil
		}
		roots = []string{picked}
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}

	var cats *stats.Categories
	if cfg.hasDist && cfg.dist == stats.DistType {
		cats, err = stats.LoadCategories(configDirs()...)
		if err != nil {
			log.Warnf("could not load categories, using built-in table: %v", err)
			cats = stats.DefaultCategories()
		}
	}

	var out io.Writer = os.Stdout
	var clip bytes.Buffer
	if cfg.clipboard {
		out = &clip
	}

	var errs *multierror.Error
	for i, root := range roots {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := processRoot(cmd.Context(), out, root, cfg, cats, log); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", root, err))
		}
	}

	if cfg.clipboard {
		copyToClipboard(clip.String(), log)
	}
	if cfg.bench {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", benchTime(time.Since(start)))
	}
	return errs.ErrorOrNil()
}

// processRoot walks one root argument and writes its report to out.
func processRoot(ctx context.Context, out io.Writer, input string, cfg *runConfig, cats *stats.Categories, log *logger.ConsoleLogger) error {
	path := input
	if isGitURL(input) {
		dir, err := cloneGitRepo(ctx, input, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Debugf("removing temporary directory %s", dir)
			_ = os.RemoveAll(dir)
		}()
		path = dir
	}

	opts := cfg.format
	opts.RootLabel = input

	w, err := walker.New(path, cfg.filter, walker.Config{
		Threads:     cfg.threads,
		MaxFileSize: cfg.maxFileSize,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	if cfg.showLines {
		w.EnableLineCounting()
	}

	if !cfg.buffered() {
		log.Debugf("streaming %s output, %s mode", cfg.output, w.Mode())
		var sink walker.Sink = render.NewTreeSink(out, opts)
		if cfg.output == render.FormatPlain {
			sink = render.NewPlainSink(out, opts)
		}
		acc := stats.NewAccumulator(sink)
		if err := w.Stream(acc); err != nil {
			return err
		}
		log.Debugf("streamed %d directories, %d files, %s",
			acc.Stats.DirCount, acc.Stats.FileCount, render.FormatSize(acc.Stats.FileSize))
		return nil
	}

	if cfg.dirSizes {
		w.EnableDirSizes()
	}
	log.Debugf("buffering %s output, %s mode", cfg.output, w.Mode())

	entries, walkErr := w.Walk()
	var partial *walker.PartialSizeError
	if walkErr != nil && !errors.As(walkErr, &partial) {
		return walkErr
	}
	if partial != nil && cfg.ignoreErrors {
		log.Warnf("%v", partial)
		walkErr = nil
	}

	if err := writeReport(out, entries, cfg, opts, cats); err != nil {
		return err
	}
	return walkErr
}

// writeReport renders a built tree in the configured format, followed by the
// optional total and distribution sections.
func writeReport(out io.Writer, entries []*walker.TreeEntry, cfg *runConfig, opts render.FormatOptions, cats *stats.Categories) error {
	if cfg.pdf != "" {
		if err := render.WritePDF(cfg.pdf, entries, opts); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved PDF to %s\n", cfg.pdf)
		return nil
	}

	var err error
	switch cfg.output {
	case render.FormatJSON:
		err = render.WriteJSON(out, entries)
	case render.FormatCSV:
		err = render.WriteCSV(out, entries)
	case render.FormatPlain:
		err = render.WritePlain(out, entries, opts)
	default:
		err = render.WriteTree(out, entries, opts)
	}
	if err != nil {
		return err
	}

	if cfg.totalSize && cfg.output == render.FormatTree {
		if err := render.WriteTotal(out, stats.FromEntries(entries), opts); err != nil {
			return err
		}
	}
	if cfg.hasDist {
		buckets, total := stats.Distribution(entries, cfg.dist, cats, cfg.top)
		return render.WriteDistribution(out, buckets, total, cfg.distFormat, render.TerminalWidth(os.Stdout), opts)
	}
	return nil
}

// benchTime keeps millisecond precision under a minute.
func benchTime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
	return stats.FormatDuration(int64(d / time.Second))
}

func copyToClipboard(text string, log *logger.ConsoleLogger) {
	if err := clipboard.WriteAll(text); err != nil {
		log.Errorf("error writing to clipboard: %v", err)
		fmt.Println(text)
		return
	}
	fmt.Fprintln(os.Stderr, "Output copied to clipboard.")
}
