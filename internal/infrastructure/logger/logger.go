package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // json, console
	// Instance tags every line; replicas sharing one Redis lock are told
	// apart by it. Defaults to the hostname.
	Instance string
}

// New creates a new zerolog logger based on config.
func New(cfg Config) zerolog.Logger {
	if cfg.Instance == "" {
		cfg.Instance, _ = os.Hostname()
	}
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	output := w

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    w != os.Stdout,
		}
	}

	ctx := zerolog.New(output).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "hongbao")
	if cfg.Instance != "" {
		ctx = ctx.Str("instance", cfg.Instance)
	}

	return ctx.Caller().Logger()
}

// parseLevel falls back to info for empty or unknown names, and refuses to
// disable logging outright.
func parseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel || l == zerolog.Disabled {
		return zerolog.InfoLevel
	}
	return l
}
