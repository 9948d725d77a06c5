// Package logging provides the leveled, culprit-tagged loggers shared by the
// renderer and the demo program.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Level orders messages by verbosity. Low is the most important, Dev the
// chattiest.
type Level int

const (
	Low Level = iota + 1
	Medium
	High
	Dev
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Dev:
		return "dev"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts the names produced by Level.String, case insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "medium", "":
		return Medium, nil
	case "high":
		return High, nil
	case "dev":
		return Dev, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// Logger writes INFO, WARNING and ERROR lines to up to three sinks. Info lines
// are filtered by level; warnings and errors always go through.
type Logger struct {
	level     Level
	info_log  *log.Logger
	warn_log  *log.Logger
	error_log *log.Logger
	fatal_out io.Writer
	files     []*os.File
}

// New creates a logger that writes every stream to w.
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		level:     level,
		info_log:  log.New(w, "INFO: ", flags),
		warn_log:  log.New(w, "WARNING: ", flags),
		error_log: log.New(w, "ERROR: ", flags),
		fatal_out: w,
	}
}

// Discard returns a logger which drops everything. Handy in tests.
func Discard() *Logger {
	return New(io.Discard, Low)
}

// NewFiles opens info_log.txt, warn_log.txt and error_log.txt under dir in
// append mode. Fatal messages go to fatal_log.txt in the same directory.
func NewFiles(dir string, level Level) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	names := []string{"info_log.txt", "warn_log.txt", "error_log.txt", "fatal_log.txt"}
	files := make([]*os.File, 0, len(names))
	for _, name := range names {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			for _, open := range files {
				open.Close()
			}
			return nil, err
		}
		files = append(files, f)
	}

	return &Logger{
		level:     level,
		info_log:  log.New(files[0], "INFO: ", flags),
		warn_log:  log.New(files[1], "WARNING: ", flags),
		error_log: log.New(files[2], "ERROR: ", flags),
		fatal_out: files[3],
		files:     files,
	}, nil
}

func (l *Logger) Level() Level {
	return l.level
}

// Enabled reports whether an info message at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level <= l.level
}

// Log writes an info line tagged with the culprit component when level passes
// the filter.
func (l *Logger) Log(level Level, culprit string, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.info_log.Output(2, line(level, culprit, format, args...))
}

func (l *Logger) Info(culprit string, format string, args ...interface{}) {
	if !l.Enabled(Medium) {
		return
	}
	l.info_log.Output(2, line(Medium, culprit, format, args...))
}

func (l *Logger) Debug(culprit string, format string, args ...interface{}) {
	if !l.Enabled(High) {
		return
	}
	l.info_log.Output(2, line(High, culprit, format, args...))
}

func (l *Logger) Warn(culprit string, format string, args ...interface{}) {
	l.warn_log.Output(2, tagged(culprit, format, args...))
}

func (l *Logger) Error(culprit string, format string, args ...interface{}) {
	l.error_log.Output(2, tagged(culprit, format, args...))
}

// Fatal runs the finalizers in order, records err and exits the process. A nil
// error is a no-op so call sites can pass results straight through.
func (l *Logger) Fatal(err error, finalizers ...func()) {
	if err == nil {
		return
	}
	for _, fn := range finalizers {
		fn()
	}
	fatal_log := log.New(l.fatal_out, "FATAL: ", flags)
	fatal_log.Output(2, fmt.Sprintf("%+v", err))
	if l.fatal_out != os.Stderr {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
	}
	l.Close()
	os.Exit(1)
}

// Close releases the log files, if any.
func (l *Logger) Close() error {
	var first error
	for _, f := range l.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.files = nil
	return first
}

func line(level Level, culprit string, format string, args ...interface{}) string {
	return fmt.Sprintf("[%s] %s", level, tagged(culprit, format, args...))
}

func tagged(culprit string, format string, args ...interface{}) string {
	return fmt.Sprintf("(%s) %s", culprit, fmt.Sprintf(format, args...))
}
