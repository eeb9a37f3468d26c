package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns the service logger. Production emits JSON, everything else
// human-readable text with full timestamps.
func New(env string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if env == "production" {
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(logrus.InfoLevel)
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
