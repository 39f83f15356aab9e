package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a configured logger instance. The level comes from
// LOG_LEVEL and the format flips to JSON when LOG_FORMAT=json, which
// suits scheduled runs whose output lands in a log collector.
func New() *logrus.Logger {
	logger := logrus.New()
	if os.Getenv("LOG_FORMAT") == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.SetLevel(level())
	return logger
}

func level() logrus.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
