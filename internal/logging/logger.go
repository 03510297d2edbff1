// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "warn").
// Format values: "text", "json" (default: "text"). Logs go to stderr so they
// never mix with command output on stdout.
func Setup(level, format string) zerolog.Logger {
	return SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level, format string) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(level))
	var out io.Writer = w
	if strings.ToLower(strings.TrimSpace(format)) != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// ParseLevel converts a string log level, falling back to warn.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "error":
		return zerolog.ErrorLevel
	case "warn", "warning", "":
		return zerolog.WarnLevel
	default:
		if l, err := zerolog.ParseLevel(level); err == nil {
			return l
		}
		return zerolog.WarnLevel
	}
}
