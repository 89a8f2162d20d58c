package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if debugEnabled() {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func enableVerboseLogging() {
	log.SetLevel(logrus.DebugLevel)
}
