package strongroom

import (
	"github.com/sirupsen/logrus"

	"github.com/strongroom-io/strongroom-client/pkg/pipeline"
)

// Logger is the logging interface shared with the pipeline policies.
type Logger = pipeline.Logger

// logrusLogger adapts a logrus logger to the Logger interface.
type logrusLogger struct {
	inner *logrus.Logger
}

// NewLogrusLogger creates a structured logger at the given level. An
// unparseable level falls back to info.
func NewLogrusLogger(level string) Logger {
	inner := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}

	inner.SetLevel(parsed)

	return &logrusLogger{inner: inner}
}

func (l *logrusLogger) Debug(msg string, fields map[string]interface{}) {
	l.inner.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, fields map[string]interface{}) {
	l.inner.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l *logrusLogger) Warn(msg string, fields map[string]interface{}) {
	l.inner.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, fields map[string]interface{}) {
	l.inner.WithFields(logrus.Fields(fields)).Error(msg)
}

// NoOpLogger discards all log output.
type NoOpLogger struct{}

// NewNoOpLogger creates a logger that discards everything.
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

// Debug does nothing.
func (l *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}

// Info does nothing.
func (l *NoOpLogger) Info(msg string, fields map[string]interface{}) {}

// Warn does nothing.
func (l *NoOpLogger) Warn(msg string, fields map[string]interface{}) {}

// Error does nothing.
func (l *NoOpLogger) Error(msg string, fields map[string]interface{}) {}
