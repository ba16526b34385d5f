// Package log provides structured logging for regcheck.
// Entries carry a level, a category and key=value fields. Logging is off
// until Init or InitWriter is called, so library code can log freely.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel converts a config string ("debug", "info", "warn", "error") to a Level.
// The empty string means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Category groups related log messages.
type Category string

const (
	CatConfig  Category = "config"  // Configuration loading
	CatLoader  Category = "loader"  // Registry file loading
	CatChain   Category = "chain"   // Chain alias table and canonicalization
	CatIndex   Category = "index"   // Registry index construction
	CatCheck   Category = "check"   // Consistency checks
	CatAdapter Category = "adapter" // Adapter module resolution
	CatCache   Category = "cache"   // Module cache
	CatDB      Category = "db"      // Run history database
	CatWatcher Category = "watcher" // File watcher events
)

// Logger writes entries at or above its minimum level.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	closer   io.Closer
	minLevel Level
	now      func() time.Time
}

var (
	loggerMu      sync.RWMutex
	defaultLogger *Logger
	once          sync.Once
)

func current() *Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

func install(l *Logger) {
	loggerMu.Lock()
	defaultLogger = l
	loggerMu.Unlock()
}

// Init points the global logger at the file at path, creating it and its
// directory as needed, and returns a function that closes the file.
// Only the first call opens a file.
func Init(path string) (func(), error) {
	var initErr error
	once.Do(func() {
		var l *Logger
		l, initErr = openFile(path)
		if initErr == nil {
			install(l)
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	l := current()
	if l == nil || l.closer == nil {
		return nil, fmt.Errorf("log file already initialized or failed")
	}
	return func() { _ = l.closer.Close() }, nil
}

// InitWriter points the global logger at w (typically os.Stderr).
// Unlike Init it may be called repeatedly; the last call wins.
func InitWriter(w io.Writer, level Level) {
	install(&Logger{out: w, minLevel: level, now: time.Now})
}

func openFile(path string) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: path comes from the user's config
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Logger{out: f, closer: f, minLevel: LevelDebug, now: time.Now}, nil
}

// SetMinLevel sets the minimum level of the global logger.
func SetMinLevel(level Level) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	current().write(LevelDebug, cat, msg, fields)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	current().write(LevelInfo, cat, msg, fields)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	current().write(LevelWarn, cat, msg, fields)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	current().write(LevelError, cat, msg, fields)
}

// ErrorErr logs at error level with err appended as the "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	errText := "<nil>"
	if err != nil {
		errText = err.Error()
	}
	current().write(LevelError, cat, msg, append(fields, "error", errText))
}

func (l *Logger) write(level Level, cat Category, msg string, fields []any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.minLevel || l.out == nil {
		return
	}
	_, _ = io.WriteString(l.out, l.render(level, cat, msg, fields))
}

// render formats one entry:
//
//	2025-12-06T10:45:00 [WARN] [check] message key=value key2="two words"
func (l *Logger) render(level Level, cat Category, msg string, fields []any) string {
	var b strings.Builder
	b.WriteString(l.now().Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, cat, msg)
	for i := 0; i < len(fields); i += 2 {
		b.WriteByte(' ')
		fmt.Fprint(&b, fields[i])
		b.WriteByte('=')
		if i+1 == len(fields) {
			b.WriteString("<missing>")
			break
		}
		b.WriteString(fieldValue(fields[i+1]))
	}
	b.WriteByte('\n')
	return b.String()
}

func fieldValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
