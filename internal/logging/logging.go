// Package logging provides the printf-style logging contract the rest of
// the codebase depends on, plus the shared file sink the CLI configures at
// startup. Nothing is written anywhere until Configure succeeds, so library
// use stays silent by default.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func levelString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string onto a level; unknown strings mean INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type fileSink struct {
	mu     sync.Mutex
	file   *os.File
	logger *log.Logger
	level  LogLevel
}

var (
	sinkMu sync.Mutex
	sink   *fileSink
)

// Configure opens (appending) the log file at path and routes every
// component logger there at the given level. An empty path disables file
// logging again.
func Configure(path string, level LogLevel) error {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink != nil {
		_ = sink.file.Close()
		sink = nil
	}
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	sink = &fileSink{file: file, logger: log.New(file, "", 0), level: level}
	return nil
}

// Close flushes and closes the shared sink.
func Close() error {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink == nil {
		return nil
	}
	err := sink.file.Close()
	sink = nil
	return err
}

func currentSink() *fileSink {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	return sink
}

// NewComponentLogger returns a logger that prefixes every line with the
// component name and writes to the shared sink. Loggers created before
// Configure pick the sink up once it exists.
func NewComponentLogger(component string) Logger {
	return componentLogger{component: component}
}

type componentLogger struct {
	component string
}

func (c componentLogger) Debug(format string, args ...any) { c.log(DEBUG, format, args...) }
func (c componentLogger) Info(format string, args ...any)  { c.log(INFO, format, args...) }
func (c componentLogger) Warn(format string, args ...any)  { c.log(WARN, format, args...) }
func (c componentLogger) Error(format string, args ...any) { c.log(ERROR, format, args...) }

func (c componentLogger) log(level LogLevel, format string, args ...any) {
	s := currentSink()
	if s == nil || level < s.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	} else {
		file = "???"
		line = 0
	}

	// Format: 2025-09-30 12:34:56 [INFO] [component] file.go:123 - message
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	logLine := fmt.Sprintf("%s [%s] [%s] %s:%d - %s",
		timestamp, levelString(level), c.component, file, line, message)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Print(logLine)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

type multiLogger struct {
	loggers []Logger
}

// Multi returns a logger fan-out that calls every non-nil logger in order.
func Multi(loggers ...Logger) Logger {
	flattened := make([]Logger, 0, len(loggers))
	for _, logger := range loggers {
		if IsNil(logger) {
			continue
		}
		if ml, ok := logger.(*multiLogger); ok {
			flattened = append(flattened, ml.loggers...)
			continue
		}
		flattened = append(flattened, logger)
	}
	if len(flattened) == 0 {
		return Nop()
	}
	if len(flattened) == 1 {
		return flattened[0]
	}
	return &multiLogger{loggers: flattened}
}

func (l *multiLogger) Debug(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Debug(format, args...)
	}
}

func (l *multiLogger) Info(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Info(format, args...)
	}
}

func (l *multiLogger) Warn(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Warn(format, args...)
	}
}

func (l *multiLogger) Error(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Error(format, args...)
	}
}
