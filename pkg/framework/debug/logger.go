// Package debug holds control-side diagnostics: a leveled logger, a block
// timing recorder and a buffer analyzer. Nothing here is called from the
// audio thread.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	// LogLevelOff disables all logging.
	LogLevelOff
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a flag value such as "debug" or "warn" to a level.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "off", "none":
		return LogLevelOff, nil
	}
	return LogLevelInfo, fmt.Errorf("debug: unknown log level %q", s)
}

// Flags for logger output formatting.
const (
	FlagTime      = 1 << iota // timestamp
	FlagShortFile             // caller file:line
	FlagLevel                 // [LEVEL]
	FlagPrefix                // [component]
)

// DefaultFlags are the default formatting flags.
const DefaultFlags = FlagTime | FlagLevel | FlagPrefix

// sink is the destination shared by a logger and the children made by With.
type sink struct {
	mu    sync.Mutex
	w     io.Writer
	level LogLevel
	flags int
}

// Logger writes leveled printf-style lines. Children created with With
// share the parent's output, level and flags.
type Logger struct {
	out    *sink
	prefix string
}

var defaultLogger = New(os.Stderr, "", DefaultFlags)

// New creates a logger at LogLevelInfo.
func New(w io.Writer, prefix string, flags int) *Logger {
	return &Logger{
		out:    &sink{w: w, level: LogLevelInfo, flags: flags},
		prefix: prefix,
	}
}

// NewFileLogger creates a logger appending to filename.
func NewFileLogger(filename, prefix string, flags int) (*Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, prefix, flags), f, nil
}

// With returns a child logger whose prefix is extended by component.
func (l *Logger) With(component string) *Logger {
	prefix := component
	if l.prefix != "" {
		prefix = l.prefix + "." + component
	}
	return &Logger{out: l.out, prefix: prefix}
}

// SetOutput sets the output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.out.mu.Lock()
	l.out.w = w
	l.out.mu.Unlock()
}

// SetLevel sets the minimum level written.
func (l *Logger) SetLevel(level LogLevel) {
	l.out.mu.Lock()
	l.out.level = level
	l.out.mu.Unlock()
}

// Level returns the minimum level written.
func (l *Logger) Level() LogLevel {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	return l.out.level
}

// SetFlags sets the formatting flags.
func (l *Logger) SetFlags(flags int) {
	l.out.mu.Lock()
	l.out.flags = flags
	l.out.mu.Unlock()
}

// Enabled reports whether a message at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.Level() && level != LogLevelOff
}

func (l *Logger) log(level LogLevel, format string, args ...any) {
	s := l.out
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < s.level || s.level == LogLevelOff {
		return
	}

	var sb strings.Builder
	if s.flags&FlagTime != 0 {
		sb.WriteString(time.Now().Format("2006-01-02 15:04:05.000 "))
	}
	if s.flags&FlagLevel != 0 {
		fmt.Fprintf(&sb, "[%s] ", level)
	}
	if s.flags&FlagPrefix != 0 && l.prefix != "" {
		fmt.Fprintf(&sb, "[%s] ", l.prefix)
	}
	if s.flags&FlagShortFile != 0 {
		// log -> Debug/Info/... -> caller
		if _, file, line, ok := runtime.Caller(2); ok {
			fmt.Fprintf(&sb, "%s:%d: ", filepath.Base(file), line)
		}
	}
	fmt.Fprintf(&sb, format, args...)
	if !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteByte('\n')
	}
	io.WriteString(s.w, sb.String())
}

func (l *Logger) Debug(format string, args ...any) { l.log(LogLevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(LogLevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(LogLevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(LogLevelError, format, args...) }

// Default returns the process-wide logger.
func Default() *Logger {
	return defaultLogger
}

// SetLevel sets the level of the default logger.
func SetLevel(level LogLevel) {
	defaultLogger.SetLevel(level)
}

// SetOutput redirects the default logger.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

func Debug(format string, args ...any) { defaultLogger.log(LogLevelDebug, format, args...) }
func Info(format string, args ...any)  { defaultLogger.log(LogLevelInfo, format, args...) }
func Warn(format string, args ...any)  { defaultLogger.log(LogLevelWarn, format, args...) }
func Error(format string, args ...any) { defaultLogger.log(LogLevelError, format, args...) }
