package app

import (
	"io"
	"log/slog"
)

// logLevels maps the accepted -log-level values to slog levels. NewConfig
// validates against the same table, so newLogger can index it directly.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger builds the application's isolated logger from a validated
// config. It does not set the global logger.
func newLogger(config *Config, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevels[config.LogLevel]}
	if config.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
