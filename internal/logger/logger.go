// Package logger wraps log/slog with level and format selection from
// configuration.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Config controls the handler built by New.
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // json or text
	Output  io.Writer
	Service string
}

// Logger is a thin wrapper over slog.Logger.
type Logger struct {
	*slog.Logger
}

// New builds a logger from config, defaulting to info-level JSON on stdout.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}

	return &Logger{Logger: slog.New(handler)}
}

// Fatal logs at error level and exits. Use only for unrecoverable
// startup failures.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
