package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vango-dev/guisync/internal/errors"
)

// ParseLevel converts a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.New("E107").WithDetail(fmt.Sprintf("Log level %q is not supported.", s))
}

// NewLogger builds the process logger described by the log section.
func (c *LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(c.Format) {
	case "", LogFormatText:
		h = slog.NewTextHandler(w, opts)
	case LogFormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, errors.New("E107").WithDetail(fmt.Sprintf("Log format %q is not supported.", c.Format))
	}
	return slog.New(h), nil
}
