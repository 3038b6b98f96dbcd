package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/audiolibrelab/loopcapture/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// multiHandler fans one record out to every sink. Each sink applies its own
// minimum level, so the errors-only file stays quiet while the console and
// the rotating files receive the full stream.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// ParseLevel maps a config level string to a slog.Level, defaulting to info.
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

// Setup installs the default slog logger with four sinks: a rotating plain
// text file, a rotating JSON file for machine parsing, a rotating errors-only
// file, and the console. Rotation is size-based with a bounded number of
// retained backups.
func Setup(cfg config.LogConfig, debug bool) error {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return err
	}

	level := ParseLevel(cfg.Level)
	if debug {
		level = slog.LevelDebug
	}

	rotating := func(name string) *lumberjack.Logger {
		return &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Directory, name),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.BackupCount,
		}
	}

	handler := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(rotating("app.log"), &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(rotating("app.json.log"), &slog.HandlerOptions{Level: level}),
		slog.NewTextHandler(rotating("errors.log"), &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}}

	slog.SetDefault(slog.New(handler))

	slog.Info("Logging initialized",
		"directory", cfg.Directory,
		"level", level.String(),
		"max_size_mb", cfg.MaxSizeMB,
		"backup_count", cfg.BackupCount)

	return nil
}

// SetupConsole configures console-only logging for CLI commands that do not
// need the file sinks.
func SetupConsole(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
