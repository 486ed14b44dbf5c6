// Package app wires the sweep engine together: it owns the logger, loads
// the sweep plan and base solver configuration, and hands both to the
// driver.
package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/sweepgridgo/internal/sweep"
)

// PlanLoader loads a sweep plan from a specification file.
type PlanLoader interface {
	Load(ctx context.Context, path string) (*sweep.Plan, error)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logW   io.Writer
	logger *slog.Logger
	config *Config
	loader PlanLoader
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger. Results are printed
// to outW; logs go to logW.
func NewApp(outW, logW io.Writer, config *Config, loader PlanLoader) *App {
	logger := newLogger(config, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logW:   logW,
		logger: logger,
		config: config,
		loader: loader,
	}
}
