package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// defaultLogPath returns the per-day diagnostic log location,
// e.g. logs/stint_2026-08-30.log.
func defaultLogPath() string {
	return filepath.Join("logs", "stint_"+time.Now().Format("2006-01-02")+".log")
}

// newLogger builds the diagnostic logger for one run: stderr plus an
// optional append-mode log file. The returned closer releases the file.
// The logger is passed down explicitly; nothing holds it globally.
func newLogger() (*slog.Logger, func(), error) {
	var level slog.Level
	switch viper.GetString("log_level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	w := io.Writer(os.Stderr)
	closer := func() {}

	if path := viper.GetString("log_file"); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = func() { f.Close() }
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closer, nil
}
