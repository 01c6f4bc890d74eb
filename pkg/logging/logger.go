package logging

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/monocle-build/filemonitor/pkg/buildinfo"
)

func init() {
	// Disable color output automatically when standard output, where log
	// lines are written, isn't attached to a terminal, so that
	// redirected/piped logs stay free of escapes.
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Logger is the main logger type. A nil *Logger is valid and silently
// discards everything, so components can be handed a logger unconditionally
// without a nil check at every call site.
type Logger struct {
	// prefix is any prefix specified for the logger, built up through
	// Sublogger calls.
	prefix string
	// level is the level at which this logger (and all of its subloggers)
	// operates.
	level Level
}

// RootLogger is the root logger from which all other loggers derive. It
// operates at LevelInfo by default, or LevelDebug if debugging is enabled via
// FILEMONITOR_DEBUG.
var RootLogger = NewLogger(LevelInfo)

func init() {
	if buildinfo.DebugEnabled {
		RootLogger.level = LevelDebug
	}
}

// NewLogger creates a new root logger operating at the specified level.
func NewLogger(level Level) *Logger {
	return &Logger{level: level}
}

// Sublogger creates a new sublogger with the specified name, inheriting the
// parent's level.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{prefix: prefix, level: l.level}
}

// output is the internal logging method.
func (l *Logger) output(level Level, line string) {
	if l == nil || level > l.level {
		return
	}
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(3, line)
}

// Error logs error information with a red "Error:" prefix.
func (l *Logger) Error(err error) {
	l.output(LevelError, color.RedString("Error: %v", err))
}

// Errorf logs error information with semantics equivalent to fmt.Sprintf.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.output(LevelError, color.RedString("Error: "+format, v...))
}

// Warn logs a warning with a yellow "Warning:" prefix.
func (l *Logger) Warn(err error) {
	l.output(LevelWarn, color.YellowString("Warning: %v", err))
}

// Warnf logs a warning with semantics equivalent to fmt.Sprintf.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.output(LevelWarn, color.YellowString("Warning: "+format, v...))
}

// Info logs information with semantics equivalent to fmt.Sprint.
func (l *Logger) Info(v ...interface{}) {
	l.output(LevelInfo, fmt.Sprint(v...))
}

// Infof logs information with semantics equivalent to fmt.Sprintf.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.output(LevelInfo, fmt.Sprintf(format, v...))
}

// Debug logs debugging information with semantics equivalent to fmt.Sprint.
func (l *Logger) Debug(v ...interface{}) {
	l.output(LevelDebug, fmt.Sprint(v...))
}

// Debugf logs debugging information with semantics equivalent to
// fmt.Sprintf.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.output(LevelDebug, fmt.Sprintf(format, v...))
}

// Writer returns an io.Writer that logs each line written to it at
// LevelInfo. If the logger is nil, the writer discards all input.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return ioutil.Discard
	}
	return &lineWriter{callback: func(s string) { l.Info(s) }}
}
