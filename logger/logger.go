package logger

import (
	"io"
	"os"
	"strings"
)

// LogLevel defines the level of logging
type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

func (l LogLevel) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return ""
}

// GetLevelFromEnv will look at the environment var `LITFETCH_LOG_LEVEL` and convert it into the appropriate LogLevel
func GetLevelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("LITFETCH_LOG_LEVEL")) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type Sink io.Writer

// Logger is an interface for logging
type Logger interface {
	// With will return a new logger using metadata as the base context
	With(metadata map[string]interface{}) Logger
	// Trace level logging
	Trace(msg string, args ...interface{})
	// Debug level logging
	Debug(msg string, args ...interface{})
	// Info level logging
	Info(msg string, args ...interface{})
	// Warning level logging
	Warn(msg string, args ...interface{})
	// Error level logging
	Error(msg string, args ...interface{})
}

type discardLogger struct{}

var _ Logger = (*discardLogger)(nil)

func (discardLogger) With(map[string]interface{}) Logger { return discardLogger{} }
func (discardLogger) Trace(string, ...interface{})       {}
func (discardLogger) Debug(string, ...interface{})       {}
func (discardLogger) Info(string, ...interface{})        {}
func (discardLogger) Warn(string, ...interface{})        {}
func (discardLogger) Error(string, ...interface{})       {}

// Discard returns a Logger that drops everything. Useful as a default for
// libraries whose callers did not supply a logger.
func Discard() Logger {
	return discardLogger{}
}
