package solver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/vk/sweepgridgo/internal/ctxlog"
	"github.com/vk/sweepgridgo/internal/solverconfig"
)

// KeyConfigFilename names the per-run configuration file handed to the
// external binaries. The sweep driver points it into the run's namespace.
const KeyConfigFilename = "CONFIG_FILENAME"

const defaultConfigFilename = "config_run.cfg"

// Tools holds everything the command adapter needs to invoke the external
// binaries. It is passed in explicitly at construction; the adapter never
// reads executable paths or partition counts from ambient process state.
type Tools struct {
	// DecomposeBin is the domain decomposition executable.
	DecomposeBin string

	// AnalysisBin is the solver executable.
	AnalysisBin string

	// MPIExec, when set together with Partitions > 1, launches the
	// analysis as `MPIExec -n Partitions AnalysisBin ...`.
	MPIExec string

	// Partitions is the number of mesh partitions. Values below 2 skip
	// the decomposition step entirely.
	Partitions int

	// WorkDir is the directory the binaries execute in. Empty means the
	// current directory.
	WorkDir string

	// SkipDecomposed skips the decomposition step for configurations
	// already marked decomposed and not re-perturbed since. The default
	// (false) re-decomposes on every run.
	SkipDecomposed bool
}

// CommandAdapter runs the external solver binaries via os/exec.
type CommandAdapter struct {
	tools Tools
}

// NewCommand returns an Adapter invoking the binaries described by tools.
func NewCommand(tools Tools) *CommandAdapter {
	return &CommandAdapter{tools: tools}
}

// Decompose implements Adapter. On success the configuration is marked
// decomposed. Single-partition configurations need no decomposition and are
// marked not decomposed.
func (a *CommandAdapter) Decompose(ctx context.Context, cfg *solverconfig.Config) error {
	logger := ctxlog.FromContext(ctx)

	if a.tools.Partitions < 2 {
		logger.Debug("Single partition, skipping decomposition.")
		cfg.SetDecomposed(false)
		return nil
	}
	if a.tools.SkipDecomposed && cfg.Decomposed() && !cfg.Perturbed() {
		logger.Debug("Configuration already decomposed, skipping.")
		return nil
	}

	cfg.Set("NUMBER_PART", float64(a.tools.Partitions))
	if err := a.invoke(ctx, cfg, "decompose", a.tools.DecomposeBin, false); err != nil {
		return err
	}
	cfg.SetDecomposed(true)
	return nil
}

// RunAnalysis implements Adapter.
func (a *CommandAdapter) RunAnalysis(ctx context.Context, cfg *solverconfig.Config) error {
	return a.invoke(ctx, cfg, "analysis", a.tools.AnalysisBin, true)
}

// invoke writes the configuration next to the run's other artifacts, execs
// the binary on it and streams the process output to a step log file.
func (a *CommandAdapter) invoke(ctx context.Context, cfg *solverconfig.Config, step, bin string, parallel bool) error {
	logger := ctxlog.FromContext(ctx)

	if bin == "" {
		return &InvocationError{Step: step, Config: cfg.Clone(), Err: fmt.Errorf("no %s executable configured", step)}
	}

	cfgPath := a.configPath(cfg)
	if err := cfg.Write(cfgPath); err != nil {
		return &InvocationError{Step: step, Config: cfg.Clone(), Err: err}
	}

	name := bin
	args := []string{cfgPath}
	if parallel && a.tools.Partitions > 1 && a.tools.MPIExec != "" {
		name = a.tools.MPIExec
		args = append([]string{"-n", strconv.Itoa(a.tools.Partitions), bin}, args...)
	}

	logFile, err := os.Create(a.logPath(cfgPath, step))
	if err != nil {
		return &InvocationError{Step: step, Config: cfg.Clone(), Err: err}
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = a.tools.WorkDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	logger.Debug("Invoking external solver step.", "step", step, "cmd", name, "args", args)
	if err := cmd.Run(); err != nil {
		return &InvocationError{Step: step, Config: cfg.Clone(), Err: err}
	}
	logger.Debug("External solver step finished.", "step", step)
	return nil
}

// configPath resolves where the per-run configuration file is written,
// relative to the adapter's working directory.
func (a *CommandAdapter) configPath(cfg *solverconfig.Config) string {
	name, err := cfg.GetString(KeyConfigFilename)
	if err != nil || name == "" {
		name = defaultConfigFilename
	}
	if filepath.IsAbs(name) || a.tools.WorkDir == "" {
		return name
	}
	return filepath.Join(a.tools.WorkDir, name)
}

func (a *CommandAdapter) logPath(cfgPath, step string) string {
	return filepath.Join(filepath.Dir(cfgPath), "log_"+step+".out")
}
