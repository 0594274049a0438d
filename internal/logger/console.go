// Package logger provides the leveled console logger used by arbor for
// diagnostics. Tree output never goes through it.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	levelTrace int = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
)

// ConsoleLogger writes "[HH:MM:SS] [LEVEL] message" lines to a writer.
// It is safe for concurrent use.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a logger writing to writer. A nil writer discards
// everything. Unknown levels fall back to "warn".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// Discard returns a logger that drops every message.
func Discard() *ConsoleLogger {
	return NewConsoleLogger(nil, "error")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	case "warning":
		return "warn"
	}
	return "warn"
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	default:
		return levelError
	}
}

// Level returns the normalized minimum level.
func (cl *ConsoleLogger) Level() string {
	return cl.logLevel
}

// Enabled reports whether messages at level would be written.
func (cl *ConsoleLogger) Enabled(level string) bool {
	return cl.writer != nil && logLevelToInt(normalizeLogLevel(level)) >= logLevelToInt(cl.logLevel)
}

func (cl *ConsoleLogger) Debugf(format string, args ...any) { cl.logf("DEBUG", format, args...) }
func (cl *ConsoleLogger) Infof(format string, args ...any)  { cl.logf("INFO", format, args...) }
func (cl *ConsoleLogger) Warnf(format string, args ...any)  { cl.logf("WARN", format, args...) }
func (cl *ConsoleLogger) Errorf(format string, args ...any) { cl.logf("ERROR", format, args...) }

func (cl *ConsoleLogger) logf(level, format string, args ...any) {
	if cl == nil || cl.writer == nil {
		return
	}
	if logLevelToInt(strings.ToLower(level)) < logLevelToInt(cl.logLevel) {
		return
	}

	message := fmt.Sprintf(format, args...)
	label := level
	if cl.colorOutput {
		label = levelColor(level).Sprint(level)
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", time.Now().Format("15:04:05"), label, message)
}

func levelColor(level string) *color.Color {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack)
	case "DEBUG":
		return color.New(color.FgCyan)
	case "INFO":
		return color.New(color.FgBlue)
	case "WARN":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
