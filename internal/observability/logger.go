package observability

import (
	"log/slog"
	"os"
)

// NewLogger returns the service-wide JSON logger. Debug output is on outside
// prod-like environments.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	switch env {
	case "dev", "local", "test":
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(NewTraceHandler(handler)).With(
		slog.String("service", ServiceName),
		slog.String("env", env),
	)
}
