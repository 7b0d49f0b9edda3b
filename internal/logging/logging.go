// Package logging wraps log/slog behind the printf-style call-site idiom the
// teacher uses everywhere (log.Printf("...", args...)), so call sites read
// the same while gaining structured fields via With.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Config controls level/format/output, mirroring the teacher's own Config
// shape for the rest of the ambient stack.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

var (
	currentLevel atomic.Int32

	mu      sync.RWMutex
	slogger = slog.New(slog.NewTextHandler(os.Stdout, nil))
)

func init() {
	currentLevel.Store(int32(slog.LevelInfo))
}

// Init rebuilds the package logger from cfg, applying every field it is
// given. The config watcher (internal/config) does not call it.
func Init(cfg Config) error {
	var out io.Writer = os.Stdout
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("logging: open %q: %w", cfg.Output, err)
		}
		out = f
	}

	level := parseLevel(cfg.Level)
	currentLevel.Store(int32(level))

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	mu.Lock()
	slogger = slog.New(handler)
	mu.Unlock()
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel hot-swaps only the minimum level. The config watcher does not
// call it.
func SetLevel(level string) {
	currentLevel.Store(int32(parseLevel(level)))
}

func logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// With returns a logger with pre-bound fields, e.g. a per-session logger
// tagged with session_id.
func With(args ...any) *slog.Logger {
	return logger().With(args...)
}

func Debugf(format string, v ...any) {
	if slog.LevelDebug < slog.Level(currentLevel.Load()) {
		return
	}
	logger().Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...any) {
	if slog.LevelInfo < slog.Level(currentLevel.Load()) {
		return
	}
	logger().Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	if slog.LevelWarn < slog.Level(currentLevel.Load()) {
		return
	}
	logger().Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	logger().Error(fmt.Sprintf(format, v...))
}
