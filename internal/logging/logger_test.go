package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} `)

func TestLoggerWritesTimestampedLinesImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script_log.txt")
	logger, err := New(path)
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("Script started.")
	logger.Error("Failed to read configuration file: %s\n", "denied")

	// Read before Close: every line must already be on disk.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Regexp(t, linePattern, line)
	}
	assert.True(t, strings.HasSuffix(lines[0], " Script started."))
	assert.True(t, strings.HasSuffix(lines[1], " Failed to read configuration file: denied"))
}

func TestLoggerNilAndClosedAreSafe(t *testing.T) {
	var nilLogger *Logger
	nilLogger.Info("ignored")
	assert.NoError(t, nilLogger.Close())

	logger, err := New(filepath.Join(t.TempDir(), "log.txt"))
	require.NoError(t, err)
	require.NoError(t, logger.Close())
	logger.Error("after close")
	assert.NoError(t, logger.Close())
}

type recorder struct {
	lines  []string
	closed bool
	err    error
}

func (r *recorder) Info(format string, args ...any)  { r.lines = append(r.lines, "I "+format) }
func (r *recorder) Error(format string, args ...any) { r.lines = append(r.lines, "E "+format) }
func (r *recorder) Close() error                     { r.closed = true; return r.err }

func TestTeeFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{err: errors.New("close b")}
	tee := Tee{a, nil, b}

	tee.Info("one")
	tee.Error("two")

	assert.Equal(t, []string{"I one", "E two"}, a.lines)
	assert.Equal(t, a.lines, b.lines)
	assert.EqualError(t, tee.Close(), "close b")
	assert.True(t, a.closed)
}

func TestOpenOrNopFallsBack(t *testing.T) {
	var warn bytes.Buffer
	r := OpenOrNop(&warn, func() (Reporter, error) { return nil, errors.New("read-only") })

	assert.Equal(t, Nop{}, r)
	assert.Contains(t, warn.String(), "logging disabled: read-only")

	rec := &recorder{}
	assert.Same(t, rec, OpenOrNop(&warn, func() (Reporter, error) { return rec, nil }))
}
