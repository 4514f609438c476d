package logger

import (
	"log/slog"
	"os"
	"strings"

	gcplogger "github.com/kawabatas/payroll-batch/internal/infra/platform/gcp/logger"
)

// New は LOG_PROVIDER に応じたロガーを返します。gcp が既定、text はローカル開発用。
func New(provider string, level slog.Level) *slog.Logger {
	switch strings.ToLower(provider) {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	case "gcp":
		return gcplogger.New(level)
	default:
		return gcplogger.New(level)
	}
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "-4", "debug":
		return slog.LevelDebug
	case "0", "info":
		return slog.LevelInfo
	case "4", "warn":
		return slog.LevelWarn
	case "8", "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
