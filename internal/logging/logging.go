// Package logging builds the slog loggers used across soleklart.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to w. Text output is colourised with tint,
// JSON output uses the standard handler.
func New(level slog.Level, format string, w io.Writer) *slog.Logger {
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		}))
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  level == slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (allowed: debug, info, warn, error)", s)
	}
}
