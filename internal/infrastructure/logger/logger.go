// Package logger internal/infrastructure/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity level of a log message
type Level string

const (
	// DebugLevel is used for development messages
	DebugLevel Level = "DEBUG"
	// InfoLevel is used for general operational information
	InfoLevel Level = "INFO"
	// WarnLevel is used for warnings and potential issues
	WarnLevel Level = "WARN"
	// ErrorLevel is used for errors and unexpected events
	ErrorLevel Level = "ERROR"
	// FatalLevel is used for critical errors that require termination
	FatalLevel Level = "FATAL"
)

// ParseLevel converts a case-insensitive level name to a Level
func ParseLevel(name string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(name))) {
	case DebugLevel:
		return DebugLevel, nil
	case InfoLevel, "":
		return InfoLevel, nil
	case WarnLevel, "WARNING":
		return WarnLevel, nil
	case ErrorLevel:
		return ErrorLevel, nil
	case FatalLevel:
		return FatalLevel, nil
	default:
		return "", fmt.Errorf("unknown log level %q", name)
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger defines the interface for the application logger
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// JSONLogger is a logger that outputs structured JSON logs through zap
type JSONLogger struct {
	zap    *zap.Logger
	level  Level
	fields map[string]interface{}
}

// NewJSONLogger creates a new JSON logger
func NewJSONLogger(output io.Writer, level Level) *JSONLogger {
	if output == nil {
		output = os.Stdout
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(output),
		zap.NewAtomicLevelAt(level.zapLevel()),
	)

	return &JSONLogger{
		zap:    zap.New(core),
		level:  level,
		fields: make(map[string]interface{}),
	}
}

// WithField returns a new logger with the field added to the log context
func (l *JSONLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a new logger with the fields added to the log context
func (l *JSONLogger) WithFields(fields map[string]interface{}) Logger {
	return l.With(fields)
}

// With is WithFields for callers that need the concrete type, e.g. for StdLogger
func (l *JSONLogger) With(fields map[string]interface{}) *JSONLogger {
	if len(fields) == 0 {
		return l
	}

	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &JSONLogger{
		zap:    l.zap,
		level:  l.level,
		fields: newFields,
	}
}

// Debug logs a message at debug level
func (l *JSONLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(zapcore.DebugLevel, msg, fields)
}

// Info logs a message at info level
func (l *JSONLogger) Info(msg string, fields map[string]interface{}) {
	l.log(zapcore.InfoLevel, msg, fields)
}

// Warn logs a message at warn level
func (l *JSONLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(zapcore.WarnLevel, msg, fields)
}

// Error logs a message at error level
func (l *JSONLogger) Error(msg string, fields map[string]interface{}) {
	l.log(zapcore.ErrorLevel, msg, fields)
}

// Fatal logs a message at fatal level and then terminates the program
func (l *JSONLogger) Fatal(msg string, fields map[string]interface{}) {
	l.log(zapcore.FatalLevel, msg, fields)
}

// StdLogger adapts the logger for consumers that need a *log.Logger, such as http.Server.ErrorLog
func (l *JSONLogger) StdLogger() *log.Logger {
	stdLog, err := zap.NewStdLogAt(l.zap.With(l.zapFields(nil)...), zapcore.WarnLevel)
	if err != nil {
		return zap.NewStdLog(l.zap)
	}
	return stdLog
}

// Sync flushes any buffered log entries
func (l *JSONLogger) Sync() error {
	return l.zap.Sync()
}

// log writes a message with the given level, message, and fields
func (l *JSONLogger) log(level zapcore.Level, msg string, fields map[string]interface{}) {
	ce := l.zap.Check(level, msg)
	if ce == nil {
		return
	}

	// Caller of Debug/Info/... sits two frames up
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	}

	zfields := l.zapFields(fields)
	zfields = append(zfields, zap.String("file", file), zap.Int("line", line))
	ce.Write(zfields...)
}

// zapFields merges context fields with message-specific ones, the latter taking precedence
func (l *JSONLogger) zapFields(fields map[string]interface{}) []zap.Field {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	out := make([]zap.Field, 0, len(merged)+2)
	for k, v := range merged {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// Default logger instances
var (
	defaultLogger Logger = NewJSONLogger(os.Stdout, InfoLevel)
)

// GetDefaultLogger returns the logger used by components constructed without one
func GetDefaultLogger() Logger {
	return defaultLogger
}

// SetDefaultLogger replaces the default logger; nil is ignored
func SetDefaultLogger(logger Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}
