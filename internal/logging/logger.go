// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config controls log destinations and verbosity.
type Config struct {
	Level      slog.Level
	FilePath   string // Empty disables file output
	MaxSizeMB  int64  // Rotation threshold per log file
	MaxBackups int
	Console    bool
}

// DefaultConfig returns console-only logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:      slog.LevelInfo,
		MaxSizeMB:  100,
		MaxBackups: 5,
		Console:    true,
	}
}

// ParseLevel converts a string log level to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// NewLogger builds a JSON slog.Logger writing to the configured outputs.
func NewLogger(cfg Config) (*slog.Logger, error) {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, os.Stderr)
	}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0750); err != nil {
			return nil, err
		}
		fw, err := NewRotatingFileWriter(cfg.FilePath, cfg.MaxSizeMB*1024*1024, cfg.MaxBackups)
		if err != nil {
			return nil, err
		}
		writers = append(writers, fw)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = os.Stderr
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	return slog.New(handler), nil
}

// SetDefault installs a logger built from cfg as the slog default.
func SetDefault(cfg Config) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
