package infra

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var logFile *os.File

// SetupLogger builds the process-wide slog logger from the configured level
// and format, mirroring everything to naldasync.log for support bundles.
func SetupLogger(logLevel, logFormat string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logFile, _ = os.OpenFile("naldasync.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	var out io.Writer = os.Stdout
	if logFile != nil {
		out = io.MultiWriter(os.Stdout, logFile)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if strings.ToUpper(logFormat) == "JSON" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// CloseLogger releases the log file handle on shutdown.
func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
	}
}
