package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger used across fiadb
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

type entryLogger struct {
	entry *logrus.Entry
}

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	return l
}

// Configure sets verbosity from the CLI flags: default shows warnings and
// errors, --debug adds info, --verbose adds debug
func Configure(debug, verbose bool) {
	switch {
	case verbose:
		base.SetLevel(logrus.DebugLevel)
	case debug:
		base.SetLevel(logrus.InfoLevel)
	default:
		base.SetLevel(logrus.WarnLevel)
	}
}

// SetOutput redirects all log output
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// SetJSON switches to JSON formatted output
func SetJSON() {
	base.SetFormatter(&logrus.JSONFormatter{})
}

func root() Logger {
	return &entryLogger{entry: logrus.NewEntry(base)}
}

func Debug(msg string, keyvals ...interface{}) { root().Debug(msg, keyvals...) }
func Info(msg string, keyvals ...interface{})  { root().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...interface{})  { root().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...interface{}) { root().Error(msg, keyvals...) }

// WithField returns a logger carrying one field
func WithField(key string, value interface{}) Logger {
	return root().WithField(key, value)
}

// WithFields returns a logger carrying several fields
func WithFields(fields map[string]interface{}) Logger {
	return root().WithFields(fields)
}

func (l *entryLogger) Debug(msg string, keyvals ...interface{}) {
	l.with(keyvals).Debug(msg)
}

func (l *entryLogger) Info(msg string, keyvals ...interface{}) {
	l.with(keyvals).Info(msg)
}

func (l *entryLogger) Warn(msg string, keyvals ...interface{}) {
	l.with(keyvals).Warn(msg)
}

func (l *entryLogger) Error(msg string, keyvals ...interface{}) {
	l.with(keyvals).Error(msg)
}

func (l *entryLogger) WithField(key string, value interface{}) Logger {
	return &entryLogger{entry: l.entry.WithField(key, value)}
}

func (l *entryLogger) WithFields(fields map[string]interface{}) Logger {
	return &entryLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// with converts trailing key/value pairs into logrus fields
func (l *entryLogger) with(keyvals []interface{}) *logrus.Entry {
	if len(keyvals) == 0 {
		return l.entry
	}
	fields := make(logrus.Fields, len(keyvals)/2+1)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 >= len(keyvals) {
			fields[key] = "(missing)"
			break
		}
		fields[key] = keyvals[i+1]
	}
	return l.entry.WithFields(fields)
}
