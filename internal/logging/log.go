// Package logging wraps charmbracelet/log with the package-level
// helpers the rest of the core calls into, mirroring
// common/log/log.go exactly.
package logging

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var logger *log.Logger

// Init builds the process logger, writing to stderr with timestamps.
// level is the configured log level ("debug", "info", "warn", "error");
// anything else leaves the library default.
func Init(appName, level string) {
	logger = log.New(os.Stderr)
	logger.SetPrefix(appName)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.DateTime)
	if level == "info" {
		logger.SetLevel(log.InfoLevel)
	}
	if level == "debug" {
		logger.SetLevel(log.DebugLevel)
	}
	if level == "warn" {
		logger.SetLevel(log.WarnLevel)
	}
	if level == "error" {
		logger.SetLevel(log.ErrorLevel)
	}
}

func Fatal(format string, args ...any) {
	if len(args) == 0 {
		logger.Fatal(format)
		return
	}
	logger.Fatal(format, args...)
}

func Error(format string, args ...any) {
	if len(args) == 0 {
		logger.Error(format)
		return
	}
	logger.Error(format, args...)
}

func Warn(format string, args ...any) {
	if len(args) == 0 {
		logger.Warn(format)
		return
	}
	logger.Warn(format, args...)
}

func Info(format string, args ...any) {
	if len(args) == 0 {
		logger.Info(format)
		return
	}
	logger.Info(format, args...)
}

func Debug(format string, args ...any) {
	if len(args) == 0 {
		logger.Debug(format)
		return
	}
	logger.Debug(format, args...)
}
