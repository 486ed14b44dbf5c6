package app

import (
	"errors"

	"github.com/vk/sweepgridgo/internal/solver"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SweepPath string

	LogFormat string
	LogLevel  string

	// RunRoot is the directory run namespaces are created under.
	RunRoot string

	// JournalPath, when non-empty, enables the SQLite run journal.
	JournalPath string

	// Parallel is the maximum number of concurrently executing runs.
	Parallel int

	// Tools configures the external solver binaries.
	Tools solver.Tools
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.SweepPath == "" {
		return nil, errors.New("SweepPath is a required configuration field and cannot be empty")
	}
	if cfg.Tools.AnalysisBin == "" {
		return nil, errors.New("Tools.AnalysisBin is a required configuration field and cannot be empty")
	}
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	if cfg.RunRoot == "" {
		cfg.RunRoot = "."
	}
	return &cfg, nil
}
