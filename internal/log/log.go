// Package log provides structured logging for factorytown.
// Entries carry a level, a category and key=value fields, and go to stderr
// or a log file. Every written entry is also published on a pubsub broker.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/factorytown/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config/flag level name to a Level.
// Accepts debug, info, warn, warning and error, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelWarn, fmt.Errorf("unknown log level %q (want debug, info, warning or error)", s)
	}
}

// Category groups related log messages.
type Category string

const (
	CatScrape   Category = "scrape"   // Table scraping into the model
	CatFetch    Category = "fetch"    // Wiki page fetching
	CatCache    Category = "cache"    // Page cache reads/writes
	CatRegistry Category = "registry" // Record registry integrity
	CatConfig   Category = "config"   // Configuration loading/saving
	CatDB       Category = "db"       // SQLite page store
	CatMetrics  Category = "metrics"  // Prometheus textfile output
	CatWatcher  Category = "watcher"  // File watcher events
	CatCLI      Category = "cli"      // Command dispatch
)

// Logger provides structured logging.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	writer   io.Writer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[string] // Pub/sub for log events
}

// Options configures Init.
type Options struct {
	// Path of the log file. Empty logs to Writer.
	Path string
	// Writer used when Path is empty. Defaults to os.Stderr.
	Writer io.Writer
	// MinLevel drops entries below this level.
	MinLevel Level
}

var (
	defaultLogger *Logger
	loggerMu      sync.Mutex
)

// Init installs the global logger and returns a cleanup function that
// closes the log file, if any. Calling Init again replaces the logger.
func Init(opts Options) (func(), error) {
	l, err := newLogger(opts)
	if err != nil {
		return nil, err
	}

	loggerMu.Lock()
	prev := defaultLogger
	defaultLogger = l
	loggerMu.Unlock()

	if prev != nil && prev.broker != nil {
		prev.broker.Close()
	}

	return func() {
		l.broker.Close()
		if l.file != nil {
			_ = l.file.Close()
		}
	}, nil
}

func newLogger(opts Options) (*Logger, error) {
	l := &Logger{
		writer:   opts.Writer,
		enabled:  true,
		minLevel: opts.MinLevel,
		broker:   pubsub.NewBroker[string](),
	}
	if opts.Path != "" {
		f, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: path is the user-chosen log file
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		l.file = f
		l.writer = f
	}
	if l.writer == nil {
		l.writer = os.Stderr
	}
	return l, nil
}

func current() *Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	return defaultLogger
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	log(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	log(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	log(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	log(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	log(LevelError, cat, msg, fields...)
}

func log(level Level, cat Category, msg string, fields ...any) {
	l := current()
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || level < l.minLevel {
		return
	}

	// Format: 2026-10-17T10:45:00 [WARN] [registry] message key=value key2=value2
	var sb strings.Builder
	sb.WriteString(time.Now().Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&sb, " [%s] [%s] %s", level, cat, msg)

	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", fields[i], fields[i+1])
	}
	// Odd field count: orphan key with no value
	if len(fields)%2 != 0 {
		fmt.Fprintf(&sb, " %v=<missing>", fields[len(fields)-1])
	}
	sb.WriteByte('\n')
	entry := sb.String()

	_, _ = io.WriteString(l.writer, entry)

	// Non-blocking
	l.broker.Publish(pubsub.LogEvent, entry)
}

// Subscribe returns a channel of formatted log entries, closed when ctx is
// cancelled. It returns nil if Init has not been called.
func Subscribe(ctx context.Context) <-chan pubsub.Event[string] {
	l := current()
	if l == nil {
		return nil
	}
	return l.broker.Subscribe(ctx)
}
