// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabrielfornes/teagrid/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Mode selects where logs go when no file is configured.
type Mode int

const (
	// ModeCLI logs warnings and above to stderr.
	ModeCLI Mode = iota
	// ModeUI never writes to the terminal, which belongs to the program.
	ModeUI
)

func (m Mode) String() string {
	if m == ModeUI {
		return "ui"
	}
	return "cli"
}

// Init installs the default logger and returns a function that closes the
// log file.
func Init(cfg config.Log, mode Mode) (func() error, error) {
	level := ParseLevel(cfg.Level)
	writer, closeFn, err := resolveWriter(cfg, mode)
	if err != nil {
		return nil, err
	}
	if mode == ModeCLI && strings.TrimSpace(cfg.File) == "" {
		level = max(level, slog.LevelWarn)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}
	slog.SetDefault(slog.New(handler).With(
		slog.String("app", "teagrid"),
		slog.String("mode", mode.String()),
	))
	return closeFn, nil
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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

func resolveWriter(cfg config.Log, mode Mode) (io.Writer, func() error, error) {
	path := strings.TrimSpace(cfg.File)
	if path == "" {
		if mode == ModeUI {
			return io.Discard, func() error { return nil }, nil
		}
		return os.Stderr, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("logging: create log dir: %w", err)
	}
	rot := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    orDefault(cfg.MaxSizeMB, 10),
		MaxBackups: orDefault(cfg.MaxBackups, 3),
		MaxAge:     orDefault(cfg.MaxAgeDays, 14),
	}
	return rot, rot.Close, nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
