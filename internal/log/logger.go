// Package log is filenest's diagnostic logger. It wraps logrus behind a small
// API of leveled functions and structured fields so callers never import logrus
// directly. The move log written for users lives in the journal package, not here.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"filenest/internal/errors"

	"github.com/sirupsen/logrus"
)

const packagePrefix = "filenest/internal/log."

var (
	isDebug atomic.Bool
	logger  = NewLogger()
)

// Field is a single structured key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

// F creates a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

type options struct {
	out      io.Writer
	json     bool
	filePath string
	level    logrus.Level
}

// Option configures a Logger.
type Option func(*options)

// WithOutput sends log lines to w.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithJSON switches to one JSON object per line.
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// WithFile additionally appends log lines to the file at path.
func WithFile(path string) Option {
	return func(o *options) { o.filePath = path }
}

// WithLevel sets the minimum level by name (debug, info, warn, error).
func WithLevel(level string) Option {
	return func(o *options) {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			o.level = lvl
		}
	}
}

// Logger writes leveled, structured diagnostics.
type Logger struct {
	base   *logrus.Logger
	fields logrus.Fields
	file   *os.File
}

// NewLogger builds a Logger. Output defaults to stderr.
func NewLogger(opts ...Option) *Logger {
	o := options{out: os.Stderr, level: logrus.InfoLevel}
	for _, opt := range opts {
		opt(&o)
	}

	l := &Logger{base: logrus.New(), fields: logrus.Fields{}}
	out := o.out
	if o.filePath != "" {
		f, err := os.OpenFile(o.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			l.file = f
			out = io.MultiWriter(o.out, f)
		} else {
			fmt.Fprintf(o.out, "log: cannot open %s: %v\n", o.filePath, err)
		}
	}
	l.base.SetOutput(out)
	// Debug filtering happens in Debug/Debugf so SetDebug applies to every logger.
	l.base.SetLevel(logrus.DebugLevel)
	if o.level == logrus.DebugLevel {
		isDebug.Store(true)
	}
	if o.json {
		l.base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg:  "message",
				logrus.FieldKeyTime: "timestamp",
			},
		})
	} else {
		l.base.SetFormatter(&lineFormatter{})
	}
	return l
}

// Configure replaces the package-level logger, closing the file of the
// previous one.
func Configure(opts ...Option) {
	prev := logger
	logger = NewLogger(opts...)
	_ = prev.Close()
}

// Close closes the file of the package-level logger and falls back to
// stderr.
func Close() error {
	prev := logger
	logger = NewLogger()
	return prev.Close()
}

// SetDebug toggles debug output for every logger.
func SetDebug(debug bool) {
	isDebug.Store(debug)
}

// IsDebug reports whether debug output is enabled.
func IsDebug() bool {
	return isDebug.Load()
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	return &Logger{base: l.base, fields: merged, file: l.file}
}

// WithError returns a child logger describing err, including its kind and
// the path, parameter or category of typed application errors.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l.With(F("error", "<nil>"))
	}
	fields := []Field{F("error", err.Error())}

	if kind := errors.KindOf(err); kind != errors.Unknown {
		fields = append(fields, F("error_kind", kind.String()))
	}

	var fileErr *errors.FileError
	var configErr *errors.ConfigError
	var ruleErr *errors.RuleError
	var dbErr *errors.DatabaseError
	switch {
	case errors.As(err, &configErr):
		fields = append(fields, F("param", configErr.Param()))
	case errors.As(err, &fileErr):
		fields = append(fields, F("path", fileErr.Path()))
	case errors.As(err, &ruleErr):
		fields = append(fields, F("category", ruleErr.Category()))
	case errors.As(err, &dbErr):
		fields = append(fields, F("operation", dbErr.Operation()))
	}
	return l.With(fields...)
}

// WithContext is kept for call sites that thread a context; it adds nothing yet.
func (l *Logger) WithContext(_ interface{}) *Logger {
	return l
}

// Info logs at info level.
func (l *Logger) Info(msg string) { l.emit(logrus.InfoLevel, msg) }

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.emit(logrus.InfoLevel, fmt.Sprintf(format, args...))
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string) { l.emit(logrus.WarnLevel, msg) }

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.emit(logrus.WarnLevel, fmt.Sprintf(format, args...))
}

// Error logs at error level.
func (l *Logger) Error(msg string) { l.emit(logrus.ErrorLevel, msg) }

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.emit(logrus.ErrorLevel, fmt.Sprintf(format, args...))
}

// Debug logs at debug level when debugging is enabled.
func (l *Logger) Debug(msg string) {
	if isDebug.Load() {
		l.emit(logrus.DebugLevel, msg)
	}
}

// Debugf logs a formatted message at debug level when debugging is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if isDebug.Load() {
		l.emit(logrus.DebugLevel, fmt.Sprintf(format, args...))
	}
}

// Close releases the log file opened by WithFile, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) emit(level logrus.Level, msg string) {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	if caller := callerLocation(); caller != "" {
		fields["caller"] = caller
	}
	l.base.WithFields(fields).Log(level, msg)
}

// callerLocation returns file:line of the first frame outside this package and logrus.
func callerLocation() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, packagePrefix) &&
			!strings.Contains(frame.Function, "sirupsen/logrus") {
			return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}
		if !more {
			return ""
		}
	}
}

// lineFormatter renders "[2006-01-02 15:04:05] LEVEL: message key=value ...".
type lineFormatter struct{}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] %s: %s", e.Time.Format("2006-01-02 15:04:05"), levelName(e.Level), e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelName(level logrus.Level) string {
	if level == logrus.WarnLevel {
		return "WARN"
	}
	return strings.ToUpper(level.String())
}

// Package-level helpers write through the configured logger.

func Info(msg string)                           { logger.Info(msg) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warn(msg string)                           { logger.Warn(msg) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Error(msg string)                          { logger.Error(msg) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
func Debug(msg string)                          { logger.Debug(msg) }
func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }

// LogWithFields returns the package logger with fields attached.
func LogWithFields(fields ...Field) *Logger {
	return logger.With(fields...)
}

// LogWithError returns the package logger describing err.
func LogWithError(err error) *Logger {
	return logger.WithError(err)
}

// LogError logs err at error level with a message.
func LogError(err error, msg string) {
	logger.WithError(err).Error(msg)
}
