package runtime

import (
	"io"
	"log/slog"
	"os"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// NewLogger builds the process logger for env: colored text for local, JSON
// at debug for dev, JSON at info otherwise.
func NewLogger(service, env string) *slog.Logger {
	return newLogger(os.Stdout, service, env)
}

func newLogger(w io.Writer, service, env string) *slog.Logger {
	var h slog.Handler
	switch env {
	case EnvLocal:
		h = NewPrettyHandler(w, slog.LevelDebug)
	case EnvDev:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(h).With("service", service)
}
