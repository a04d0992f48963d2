package logging

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter(t *testing.T) {
	f := &Formatter{SystemName: "test"}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "feed load failed",
		Data: logrus.Fields{
			"path":  "/student_profile/profile/notifications",
			"error": errors.New("boom"),
		},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "WARN")
	assert.Contains(t, line, "[test]")
	assert.Contains(t, line, "feed load failed")
	// Fields are sorted by key.
	assert.Less(t,
		strings.Index(line, "error=boom"),
		strings.Index(line, "path=/student_profile"),
	)
}

func TestInitWritesToFile(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })
	Logger = logrus.New()

	path := filepath.Join(t.TempDir(), "nested", "app.log")
	closer, err := Init(Options{File: path, Level: "debug", System: "unit"})
	require.NoError(t, err)

	For("feed").Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "component=feed")
}

func TestInitRequiresFile(t *testing.T) {
	_, err := Init(Options{})
	require.Error(t, err)
}

func TestDefaultLoggerDiscards(t *testing.T) {
	l := newDiscardLogger()
	assert.Equal(t, io.Discard, l.Out)
}
