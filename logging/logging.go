package logging

import (
	"log/slog"
	"os"

	"github.com/use-agent/ownerlookup/config"
)

// Init configures the default slog logger based on the LogConfig.
func Init(cfg config.LogConfig) {
	slog.SetDefault(slog.New(NewHandler(cfg)))
}

// NewHandler builds the JSON or text handler selected by cfg.
func NewHandler(cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.NewTextHandler(os.Stdout, opts)
}

// ParseLevel maps a config level name to a slog.Level. Unknown names fall
// back to info.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
