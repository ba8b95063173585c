package utils

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// serviceName is attached to every entry so shipped logs can be filtered per service
const serviceName = "auctions"

var logger = newLogger(os.Stdout)

// newLogger builds a JSON logger with ISO 8601 timestamps at info level
func newLogger(out io.Writer) *log.Logger {
	l := log.New()
	l.SetFormatter(&log.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
	l.SetOutput(out)
	l.SetLevel(log.InfoLevel)
	return l
}

func entry(fields map[string]any) *log.Entry {
	return logger.WithField("service", serviceName).WithFields(fields)
}

// Debug logs a message at debug level with optional fields
func Debug(message string, fields map[string]any) {
	entry(fields).Debug(message)
}

// Info logs a message at info level with optional fields
func Info(message string, fields map[string]any) {
	entry(fields).Info(message)
}

// Warn logs a message at warning level with optional fields
func Warn(message string, fields map[string]any) {
	entry(fields).Warn(message)
}

// Error logs a message at error level with optional fields
func Error(message string, fields map[string]any) {
	entry(fields).Error(message)
}

// Fatal logs a message at fatal level and exits the application
func Fatal(message string, fields map[string]any) {
	entry(fields).Fatal(message)
}

// SetLevel changes the minimum level that gets logged, e.g. "debug" or "warn"
func SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}

// SetOutput redirects log output, mostly for tests
func SetOutput(out io.Writer) {
	logger.SetOutput(out)
}
