package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. It discards output until Init is
// called so packages can log unconditionally, including from tests.
var Logger = newDiscardLogger()

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Formatter renders one line per entry with a generated event ID, so a
// single failure can be located in the rotated files.
type Formatter struct {
	SystemName string
}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "%s %-5s [%s] event=%s %s",
		entry.Time.Format("2006-01-02T15:04:05.000Z07:00"),
		strings.ToUpper(entry.Level.String()),
		f.SystemName,
		uuid.New().String()[:8],
		entry.Message,
	)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}

	if entry.HasCaller() {
		fmt.Fprintf(b, " (%s:%d)", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Options configures Init.
type Options struct {
	File   string
	Level  string
	System string
}

// Init points Logger at a rotating log file. The terminal belongs to the
// UI, so nothing is ever written to stdout or stderr.
func Init(opts Options) (io.Closer, error) {
	if opts.File == "" {
		return nil, fmt.Errorf("log file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	system := opts.System
	if system == "" {
		system = "studyhub-notify"
	}

	out := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	Logger.SetOutput(out)
	Logger.SetFormatter(&Formatter{SystemName: system})
	Logger.SetLevel(level)
	Logger.SetReportCaller(level >= logrus.DebugLevel)

	return out, nil
}

// For returns an entry tagged with the given component name.
func For(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}
