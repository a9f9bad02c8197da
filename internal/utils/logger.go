package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the application logger. It writes JSON lines through logrus.
type Logger struct {
	entry *logrus.Logger
}

// NewLogger creates a new logger at the given level ("debug", "info", ...).
// Unknown levels fall back to info.
func NewLogger(level string) *Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return &Logger{entry: l}
}

// NewTestLogger discards everything.
func NewTestLogger() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{entry: l}
}

// Logrus exposes the underlying logger for libraries that want one.
func (l *Logger) Logrus() *logrus.Logger {
	return l.entry
}

// SetOutput redirects log output.
func (l *Logger) SetOutput(w io.Writer) {
	l.entry.SetOutput(w)
}

// Info logs an informational message
func (l *Logger) Info(format string, v ...interface{}) {
	l.entry.Infof(format, v...)
}

// Warn logs a warning
func (l *Logger) Warn(format string, v ...interface{}) {
	l.entry.Warnf(format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.entry.Errorf(format, v...)
}

// WithFields returns an entry carrying structured fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.entry.WithFields(fields)
}

// LogError records err with the module and function it surfaced in.
func (l *Logger) LogError(module, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   module,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	l.entry.WithFields(fields).Error(err.Error())
}
