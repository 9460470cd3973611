// Package logger builds the slog logger. The TUI owns the terminal, so
// records go to a file or nowhere.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config describes logger settings.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger for cfg and the file it writes to. Relative paths
// resolve against baseDir. A disabled config yields a discarding logger.
func New(cfg Config, baseDir string) (*slog.Logger, io.Closer, error) {
	if !cfg.Enabled || cfg.File == "" {
		return Discard(), nopCloser{}, nil
	}

	path := expandPath(cfg.File, baseDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Discard(), nopCloser{}, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return Discard(), nopCloser{}, fmt.Errorf("logger: open log file: %w", err)
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	return slog.New(slog.NewTextHandler(f, opts)), f, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
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

func expandPath(path, baseDir string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	if baseDir != "" {
		return filepath.Join(baseDir, path)
	}
	return path
}
