// Package logger configures the process-wide zerolog logger. The server and
// worker default to JSON for log shipping; the console format is for running
// binaries in a terminal.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the application logger instance
var Logger zerolog.Logger

// Init configures the logger. Format "console" (or "text") writes
// human-readable colored lines to stderr; anything else writes JSON to stdout
// with caller annotations.
func Init(level, format string) {
	zerolog.SetGlobalLevel(parseLevel(level))

	switch strings.ToLower(format) {
	case "console", "text":
		output := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
		Logger = zerolog.New(output).With().
			Timestamp().
			Logger()
	default:
		Logger = zerolog.New(os.Stdout).With().
			Timestamp().
			Caller().
			Logger()
	}

	log.Logger = Logger
}

// parseLevel maps a level string to a zerolog level, falling back to info for
// anything unrecognized.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(level)
	if level == "warning" {
		level = "warn"
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// GetLogger returns the configured logger instance
func GetLogger() zerolog.Logger {
	return Logger
}
