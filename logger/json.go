package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

type jsonLogger struct {
	mu       sync.Mutex
	sink     Sink
	logLevel LogLevel
	metadata map[string]interface{}
}

var _ Logger = (*jsonLogger)(nil)

// NewJSONLogger returns a Logger that writes one JSON object per line to
// stderr with `ts`, `level`, `message` and any metadata fields.
func NewJSONLogger(levels ...LogLevel) Logger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &jsonLogger{
		sink:     os.Stderr,
		logLevel: level,
	}
}

// NewJSONLoggerWithSink is like NewJSONLogger but writes to sink.
func NewJSONLoggerWithSink(sink Sink, level LogLevel) Logger {
	return &jsonLogger{
		sink:     sink,
		logLevel: level,
	}
}

func (j *jsonLogger) With(metadata map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(j.metadata)+len(metadata))
	for k, v := range j.metadata {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	return &jsonLogger{
		sink:     j.sink,
		logLevel: j.logLevel,
		metadata: merged,
	}
}

func (j *jsonLogger) log(level LogLevel, msg string, args ...interface{}) {
	if level < j.logLevel {
		return
	}
	payload := make(map[string]interface{}, len(j.metadata)+3)
	for k, v := range j.metadata {
		payload[k] = v
	}
	payload["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	payload["level"] = level.String()
	payload["message"] = fmt.Sprintf(msg, args...)
	buf, err := json.Marshal(payload)
	if err != nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sink.Write(append(buf, '\n'))
}

func (j *jsonLogger) Trace(msg string, args ...interface{}) { j.log(LevelTrace, msg, args...) }
func (j *jsonLogger) Debug(msg string, args ...interface{}) { j.log(LevelDebug, msg, args...) }
func (j *jsonLogger) Info(msg string, args ...interface{})  { j.log(LevelInfo, msg, args...) }
func (j *jsonLogger) Warn(msg string, args ...interface{})  { j.log(LevelWarn, msg, args...) }
func (j *jsonLogger) Error(msg string, args ...interface{}) { j.log(LevelError, msg, args...) }
