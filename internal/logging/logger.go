package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimeFormat prefixes every durable line.
const TimeFormat = "2006-01-02 15:04:05"

// Reporter records the pipeline trace. Implementations must accept calls
// on a nil receiver and after Close.
type Reporter interface {
	Info(format string, args ...any)
	Error(format string, args ...any)
	Close() error
}

// Logger appends timestamped lines to a plain text file. Each line is
// written straight to the file, so nothing is lost if the launcher dies
// while the application is running.
type Logger struct {
	file *os.File
	now  func() time.Time
}

// New opens (or creates) path in append mode.
func New(path string) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: ensure log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{file: f, now: time.Now}, nil
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Info writes an informational line.
func (l *Logger) Info(format string, args ...any) {
	l.Printf(format, args...)
}

// Error writes an error line. The plain format carries no level column.
func (l *Logger) Error(format string, args ...any) {
	l.Printf(format, args...)
}

// Printf writes a single timestamped line to the log file.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.file == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	line = strings.TrimRight(line, "\n")
	fmt.Fprintf(l.file, "%s %s\n", l.now().Format(TimeFormat), line)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Info(string, ...any)  {}
func (Nop) Error(string, ...any) {}
func (Nop) Close() error         { return nil }

// Tee fans every call out to each reporter in order.
type Tee []Reporter

func (t Tee) Info(format string, args ...any) {
	for _, r := range t {
		if r != nil {
			r.Info(format, args...)
		}
	}
}

func (t Tee) Error(format string, args ...any) {
	for _, r := range t {
		if r != nil {
			r.Error(format, args...)
		}
	}
}

// Close closes every reporter and returns the first error.
func (t Tee) Close() error {
	var first error
	for _, r := range t {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenOrNop calls open and falls back to Nop when the sink cannot be
// created, printing the reason once to warn.
func OpenOrNop(warn io.Writer, open func() (Reporter, error)) Reporter {
	r, err := open()
	if err != nil {
		if warn != nil {
			fmt.Fprintf(warn, "warning: logging disabled: %v\n", err)
		}
		return Nop{}
	}
	return r
}
