package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	// LevelError only logs errors
	LevelError LogLevel = iota
	// LevelWarn logs warnings and errors
	LevelWarn
	// LevelInfo logs general information, warnings and errors
	LevelInfo
	// LevelDebug logs detailed debug information and all above
	LevelDebug
	// LevelTrace logs very detailed trace information and all above
	LevelTrace
)

var levelNames = map[LogLevel]string{
	LevelError: "ERROR",
	LevelWarn:  "WARN",
	LevelInfo:  "INFO",
	LevelDebug: "DEBUG",
	LevelTrace: "TRACE",
}

// String returns the upper-case name of the level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (LogLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		name = "WARN"
	}
	for level, n := range levelNames {
		if n == name {
			return level, nil
		}
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", s)
}

// levelState is shared between a logger and every logger derived from it
// with WithPrefix, so SetLevel on any of them applies to all.
type levelState struct {
	mu    sync.RWMutex
	level LogLevel
}

// Logger provides leveled, prefixed logging on top of zap.
type Logger struct {
	state  *levelState
	prefix string
	sugar  *zap.SugaredLogger
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	once.Do(func() {
		defaultLogger = NewLogger("vfsterm", os.Stderr)

		// Set initial log level from environment
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			if level, err := ParseLevel(env); err == nil {
				defaultLogger.SetLevel(level)
			}
		}
	})
	return defaultLogger
}

// NewLogger creates a new logger with the given prefix writing console
// formatted entries to w. Shell output goes to stdout, so w is normally
// stderr.
func NewLogger(prefix string, w io.Writer) *Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.DebugLevel,
	)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))

	return &Logger{
		state:  &levelState{level: LevelWarn},
		prefix: prefix,
		sugar:  base.Named(prefix).Sugar(),
	}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.state.level = level
}

// Level returns the current logging level.
func (l *Logger) Level() LogLevel {
	l.state.mu.RLock()
	defer l.state.mu.RUnlock()
	return l.state.level
}

// shouldLog determines if a message at the given level should be logged
func (l *Logger) shouldLog(level LogLevel) bool {
	return level <= l.Level()
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if !l.shouldLog(level) {
		return
	}

	switch level {
	case LevelError:
		l.sugar.Errorf(format, args...)
	case LevelWarn:
		l.sugar.Warnf(format, args...)
	case LevelInfo:
		l.sugar.Infof(format, args...)
	case LevelTrace:
		l.sugar.Debugf("[TRACE] "+format, args...)
	default:
		l.sugar.Debugf(format, args...)
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Trace logs a trace message
func (l *Logger) Trace(format string, args ...interface{}) {
	l.log(LevelTrace, format, args...)
}

// WithPrefix creates a new logger with an additional prefix. The new
// logger shares the level of its parent.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{
		state:  l.state,
		prefix: l.prefix + "." + prefix,
		sugar:  l.sugar.Named(prefix),
	}
}

// With returns a logger that attaches the given key/value pairs to every
// entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		state:  l.state,
		prefix: l.prefix,
		sugar:  l.sugar.With(keysAndValues...),
	}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
