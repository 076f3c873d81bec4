// Package logging provides a structured logging wrapper around charmbracelet/log.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

//nolint:gochecknoglobals // Package-level logger is intentional for convenience
var (
	defaultMu     sync.RWMutex
	defaultLogger *log.Logger
)

// Options selects where a logger writes and how each line is decorated.
type Options struct {
	Writer     io.Writer
	Level      string
	Timestamps bool
	Prefix     string
}

// NewWithOptions builds a logger from opts. A nil Writer means stderr.
func NewWithOptions(opts Options) *log.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: opts.Timestamps,
		TimeFormat:      time.TimeOnly,
		Prefix:          opts.Prefix,
	})
	logger.SetLevel(parseLevel(opts.Level))
	return logger
}

// New creates a logger writing to stderr with the specified level.
// Valid levels: "debug", "info", "warn", "error".
func New(level string) *log.Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, level string) *log.Logger {
	return NewWithOptions(Options{Writer: w, Level: level})
}

// NewInteractive creates a logger for short commands that talk to the user.
func NewInteractive() *log.Logger {
	return New("info")
}

// NewServer creates a timestamped logger for long-running commands.
func NewServer(level string) *log.Logger {
	return NewWithOptions(Options{Level: level, Timestamps: true, Prefix: "mdsync"})
}

// parseLevel maps a level name to a log.Level. Unknown names mean info.
func parseLevel(level string) log.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	parsed, err := log.ParseLevel(name)
	if err != nil || parsed < log.DebugLevel || parsed > log.ErrorLevel {
		return log.InfoLevel
	}
	return parsed
}

// Default returns the package-level default logger.
func Default() *log.Logger {
	defaultMu.RLock()
	logger := defaultLogger
	defaultMu.RUnlock()
	if logger != nil {
		return logger
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New("info")
	}
	return defaultLogger
}

// SetDefault sets the package-level default logger.
func SetDefault(logger *log.Logger) {
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// SetLevel updates the log level of the default logger.
func SetLevel(level string) {
	Default().SetLevel(parseLevel(level))
}
