package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/sweepgridgo/internal/ctxlog"
	"github.com/vk/sweepgridgo/internal/journal"
	"github.com/vk/sweepgridgo/internal/namespace"
	"github.com/vk/sweepgridgo/internal/solver"
	"github.com/vk/sweepgridgo/internal/solverconfig"
	"github.com/vk/sweepgridgo/internal/state"
	"github.com/vk/sweepgridgo/internal/sweep"
)

// Run executes the sweep described by the application configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	plan, err := a.loader.Load(ctx, a.config.SweepPath)
	if err != nil {
		return fmt.Errorf("failed to load sweep plan: %w", err)
	}

	baseCfg, err := solverconfig.Load(plan.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load base solver config: %w", err)
	}
	a.logger.Debug("Base solver configuration loaded.", "path", plan.ConfigPath, "keys", len(baseCfg.Keys()))

	master := state.New()
	master.FindFiles(baseCfg)

	var jr *journal.Journal
	if a.config.JournalPath != "" {
		jr, err = journal.Open(a.config.JournalPath)
		if err != nil {
			return err
		}
		defer jr.Close()
		a.logger.Debug("Run journal opened.", "path", a.config.JournalPath)
	}

	driver := &sweep.Driver{
		Adapter:      solver.NewCommand(a.config.Tools),
		Namespaces:   &namespace.Manager{Root: a.config.RunRoot},
		Journal:      jr,
		Parallel:     a.config.Parallel,
		FuncFilename: plan.FuncFilename,
		GradFilename: plan.GradFilename,
	}

	result, err := driver.Run(ctx, baseCfg, master, plan.Runs)
	if err != nil && !errors.Is(err, sweep.ErrRunsFailed) {
		return err
	}

	a.printSummary(result)
	return err
}

// printSummary writes the per-run outcomes and merged results to the
// application's output writer in a stable order.
func (a *App) printSummary(result *sweep.Result) {
	for _, run := range result.Runs {
		if run.Status == sweep.StatusSucceeded {
			fmt.Fprintf(a.outW, "run %-12s %s\n", run.Name, run.Status)
		} else {
			fmt.Fprintf(a.outW, "run %-12s %s: %v\n", run.Name, run.Status, run.Err)
		}
	}

	if len(result.State.Functions) > 0 {
		fmt.Fprintln(a.outW, "\nFUNCTIONS")
		for _, key := range sortedStateKeys(result.State.Functions) {
			fmt.Fprintf(a.outW, "  %s = %g\n", key, result.State.Functions[key])
		}
	}
	if len(result.State.Gradients) > 0 {
		fmt.Fprintln(a.outW, "\nGRADIENTS")
		for _, key := range sortedStateKeys(result.State.Gradients) {
			fmt.Fprintf(a.outW, "  %s = %v\n", key, result.State.Gradients[key])
		}
	}
}

func sortedStateKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
