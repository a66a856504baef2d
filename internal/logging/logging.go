// Package logging builds the root *slog.Logger from LogConfig.
//
// Everything else in the codebase only sees *slog.Logger; the concrete handler
// is picked here:
//   - text: charmbracelet/log, coloured when writing to a terminal
//   - json: slog's JSON handler, for log shippers
//
// When a log file is configured, output goes to both the console and a
// lumberjack-rotated file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sakif/habit-coach/internal/config"
)

// New returns the root logger and a close function that flushes the log file.
// The close function is never nil.
func New(cfg config.LogConfig, console io.Writer) (*slog.Logger, func() error, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	out := console
	closeFn := func() error { return nil }
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("logging: creating log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(console, file)
		closeFn = file.Close
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	case "text", "":
		handler = charmlog.NewWithOptions(out, charmlog.Options{
			Level:           charmlog.Level(level),
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
			Prefix:          "habitcoach",
		})
	default:
		return nil, nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	return slog.New(handler), closeFn, nil
}

// parseLevel maps debug/info/warn/error to a slog level.
// charmbracelet/log uses the same numeric values, so the result converts directly.
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("logging: %w", err)
	}
	return level, nil
}
