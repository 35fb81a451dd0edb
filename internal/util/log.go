package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger writes leveled, timestamped log lines to a single destination.
// It is passed explicitly to every component; there is no package-global
// logger, and concurrent pipeline passes share one synchronized writer.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	level  LogLevel
	colors bool
}

// NewLogger creates a logger writing to out at the given minimum level.
// Colors are enabled automatically when out is a terminal.
func NewLogger(out io.Writer, level LogLevel) *Logger {
	colors := false
	if f, ok := out.(*os.File); ok {
		colors = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Logger{
		out:    out,
		level:  level,
		colors: colors,
	}
}

// SetLevel sets the minimum log level to display
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetColors enables or disables colored output
func (l *Logger) SetColors(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.colors = enabled
}

func (l *Logger) colorize(color string, text string) string {
	if !l.colors {
		return text
	}
	reset := "\033[0m"
	return color + text + reset
}

func (l *Logger) logf(level LogLevel, color, tag, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level > level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s %s %s\n", l.colorize(color, timestamp()), tag, msg)
}

// Debugf logs debug messages
func (l *Logger) Debugf(format string, args ...interface{}) {
	gray := "\033[90m"
	l.logf(LevelDebug, gray, "[DEBUG]", format, args...)
}

// Infof logs informational messages
func (l *Logger) Infof(format string, args ...interface{}) {
	cyan := "\033[36m"
	l.logf(LevelInfo, cyan, "[INFO] ", format, args...)
}

// Warnf logs warning messages
func (l *Logger) Warnf(format string, args ...interface{}) {
	yellow := "\033[33m"
	l.logf(LevelWarn, yellow, "[WARN] ", format, args...)
}

// Errorf logs error messages
func (l *Logger) Errorf(format string, args ...interface{}) {
	red := "\033[31m"
	l.logf(LevelError, red, "[ERROR]", format, args...)
}

// Successf logs success messages (shown unless quiet)
func (l *Logger) Successf(format string, args ...interface{}) {
	green := "\033[32m"
	l.logf(LevelInfo, green, "[OK]   ", format, args...)
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}
