package logger

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

// LogrusLogger implements Logger on top of logrus with a JSON formatter.
type LogrusLogger struct {
	logger *logrus.Logger
	entry  *logrus.Entry
}

// NewLogrusLogger creates a JSON-formatted logrus logger writing to stdout.
// Unknown levels fall back to info.
func NewLogrusLogger(level string) *LogrusLogger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return &LogrusLogger{
		logger: l,
		entry:  logrus.NewEntry(l),
	}
}

// Debug logs a debug-level message.
func (l *LogrusLogger) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	l.withFields(fields).Debug(msg)
}

// Info logs an info-level message.
func (l *LogrusLogger) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	l.withFields(fields).Info(msg)
}

// Warn logs a warning-level message.
func (l *LogrusLogger) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	l.withFields(fields).Warn(msg)
}

// Error logs an error-level message.
func (l *LogrusLogger) Error(ctx context.Context, msg string, fields map[string]interface{}) {
	l.withFields(fields).Error(msg)
}

// WithField returns a new logger with the given field added.
func (l *LogrusLogger) WithField(key string, value interface{}) Logger {
	return &LogrusLogger{logger: l.logger, entry: l.entry.WithField(key, value)}
}

// WithFields returns a new logger with the given fields added.
func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &LogrusLogger{logger: l.logger, entry: l.entry.WithFields(fields)}
}

func (l *LogrusLogger) withFields(fields map[string]interface{}) *logrus.Entry {
	if fields == nil {
		return l.entry
	}
	return l.entry.WithFields(fields)
}
