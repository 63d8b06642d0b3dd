package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const isWindows = runtime.GOOS == "windows"

var noColor = os.Getenv("TERM") == "dumb" ||
	(!isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()))

func color(val string) string {
	if isWindows || noColor {
		return ""
	}
	return val
}

const (
	reset   = "\033[0m"
	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	cyan    = "\033[36m"
	gray    = "\033[1;90m"
	redBold = "\033[31;1m"
)

type consoleLogger struct {
	mu       sync.Mutex
	sink     Sink
	logLevel LogLevel
	metadata map[string]interface{}
}

var _ Logger = (*consoleLogger)(nil)

// NewConsoleLogger returns a Logger that writes human-readable, optionally
// colored lines to stderr. The level defaults to the value of
// `LITFETCH_LOG_LEVEL` when no level argument is given.
func NewConsoleLogger(levels ...LogLevel) Logger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &consoleLogger{
		sink:     os.Stderr,
		logLevel: level,
	}
}

// NewConsoleLoggerWithSink is like NewConsoleLogger but writes to sink.
func NewConsoleLoggerWithSink(sink Sink, level LogLevel) Logger {
	return &consoleLogger{
		sink:     sink,
		logLevel: level,
	}
}

func (c *consoleLogger) With(metadata map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(c.metadata)+len(metadata))
	for k, v := range c.metadata {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	return &consoleLogger{
		sink:     c.sink,
		logLevel: c.logLevel,
		metadata: merged,
	}
}

func levelColor(level LogLevel) string {
	switch level {
	case LevelTrace:
		return gray
	case LevelDebug:
		return cyan
	case LevelInfo:
		return green
	case LevelWarn:
		return yellow
	case LevelError:
		return redBold
	}
	return ""
}

func (c *consoleLogger) log(level LogLevel, msg string, args ...interface{}) {
	if level < c.logLevel {
		return
	}
	line := fmt.Sprintf(msg, args...)
	suffix := c.metadataSuffix()
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.sink, "%s%s%s %s%-5s%s %s%s\n",
		color(gray), ts, color(reset),
		color(levelColor(level)), level.String(), color(reset),
		line, suffix)
}

func (c *consoleLogger) metadataSuffix() string {
	if len(c.metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c.metadata))
	for k := range c.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		buf, err := json.Marshal(c.metadata[k])
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, " %s%s=%s%s", color(gray), k, string(buf), color(reset))
	}
	return sb.String()
}

func (c *consoleLogger) Trace(msg string, args ...interface{}) { c.log(LevelTrace, msg, args...) }
func (c *consoleLogger) Debug(msg string, args ...interface{}) { c.log(LevelDebug, msg, args...) }
func (c *consoleLogger) Info(msg string, args ...interface{})  { c.log(LevelInfo, msg, args...) }
func (c *consoleLogger) Warn(msg string, args ...interface{})  { c.log(LevelWarn, msg, args...) }
func (c *consoleLogger) Error(msg string, args ...interface{}) { c.log(LevelError, msg, args...) }
