// Package logging configures the process-wide slog logger.
//
// Every record carries the module name and version. The level comes from
// LOG_LEVEL (debug, info, warn, error) unless an option overrides it, and
// output goes to stderr, optionally teed into a rotated log file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvLogLevel selects the default log level.
const EnvLogLevel = "LOG_LEVEL"

// Rotation defaults for file output.
const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 5
	defaultMaxAgeDays = 28
)

type config struct {
	level  *slog.Level
	json   bool
	file   string
	output io.Writer
}

// Option configures the logger.
type Option func(*config)

// WithLevel overrides LOG_LEVEL.
func WithLevel(l slog.Level) Option {
	return func(c *config) {
		c.level = &l
	}
}

// WithDebug forces debug level when enabled.
func WithDebug(enabled bool) Option {
	return func(c *config) {
		if enabled {
			l := slog.LevelDebug
			c.level = &l
		}
	}
}

// WithJSON switches from text to JSON records.
func WithJSON(enabled bool) Option {
	return func(c *config) {
		c.json = enabled
	}
}

// WithFile also writes records to path, rotated by size.
func WithFile(path string) Option {
	return func(c *config) {
		c.file = path
	}
}

// WithOutput replaces stderr as the primary destination.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.output = w
	}
}

// ParseLevel maps a level name to a slog.Level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewStructuredLogger builds a logger tagged with module and version.
// The returned closer releases the log file, if any.
func NewStructuredLogger(module, version string, opts ...Option) (*slog.Logger, io.Closer) {
	cfg := &config{output: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}

	level := ParseLevel(os.Getenv(EnvLogLevel))
	if cfg.level != nil {
		level = *cfg.level
	}

	var closer io.Closer = nopCloser{}
	out := cfg.output
	if cfg.file != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.file,
			MaxSize:    defaultMaxSizeMB,
			MaxBackups: defaultMaxBackups,
			MaxAge:     defaultMaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(cfg.output, lj)
		closer = lj
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var h slog.Handler
	if cfg.json {
		h = slog.NewJSONHandler(out, handlerOpts)
	} else {
		h = slog.NewTextHandler(out, handlerOpts)
	}

	return slog.New(h).With(
		slog.String("module", module),
		slog.String("version", version),
	), closer
}

// SetDefaultStructuredLogger installs the logger as slog's default.
func SetDefaultStructuredLogger(module, version string, opts ...Option) io.Closer {
	logger, closer := NewStructuredLogger(module, version, opts...)
	slog.SetDefault(logger)
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
