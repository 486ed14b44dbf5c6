package sweep

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vk/sweepgridgo/internal/ctxlog"
	"github.com/vk/sweepgridgo/internal/journal"
	"github.com/vk/sweepgridgo/internal/namespace"
	"github.com/vk/sweepgridgo/internal/plot"
	"github.com/vk/sweepgridgo/internal/solver"
	"github.com/vk/sweepgridgo/internal/solverconfig"
	"github.com/vk/sweepgridgo/internal/state"
	"github.com/vk/sweepgridgo/internal/stepper"
)

// Driver executes a sweep of runs over one base configuration.
type Driver struct {
	// Adapter invokes the external solver.
	Adapter solver.Adapter

	// Namespaces allocates per-run working directories.
	Namespaces *namespace.Manager

	// Journal, when non-nil, records one row per run.
	Journal *journal.Journal

	// Parallel is the maximum number of concurrently executing runs.
	// Values below 2 run the sweep strictly sequentially.
	Parallel int

	// FuncFilename and GradFilename override the plot artifact names.
	// Empty means DefaultFuncFilename / DefaultGradFilename.
	FuncFilename string
	GradFilename string
}

// Run executes every run of the plan. The master config and state are
// mutated only at the merge step: successful runs fold their scoped results
// into master and propagate the decomposition flag back into cfg. It returns
// ErrRunsFailed when at least one run failed; the Result is valid either
// way.
func (d *Driver) Run(ctx context.Context, cfg *solverconfig.Config, master *state.State, runs []RunSpec) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	if err := validateNames(runs); err != nil {
		return nil, err
	}

	limit := d.Parallel
	if limit < 1 {
		limit = 1
	}
	logger.Info("Starting sweep.", "runs", len(runs), "parallel", limit)

	result := &Result{State: master, Runs: make([]RunResult, len(runs))}

	// mergeMu serializes the CLONE and MERGE steps: the master
	// accumulator, the master config and the journal are the only shared
	// mutable state, and a clone must never observe a half-applied merge.
	var mergeMu sync.Mutex

	var g errgroup.Group
	g.SetLimit(limit)
	for i, spec := range runs {
		g.Go(func() error {
			mergeMu.Lock()
			konfig := cfg.Clone()
			ztate := master.Clone()
			mergeMu.Unlock()

			res := d.runOne(ctx, konfig, ztate, spec)

			mergeMu.Lock()
			defer mergeMu.Unlock()
			if res.Status == StatusSucceeded {
				master.Update(scoped(spec.Name, res.State))
				if decomposed, ok := res.konfig.Get(solverconfig.KeyDecomposed); ok {
					cfg.Set(solverconfig.KeyDecomposed, decomposed)
				}
			}
			if d.Journal != nil {
				if err := d.Journal.Record(journalEntry(res)); err != nil {
					logger.Warn("Failed to journal run.", "run", spec.Name, "error", err)
				}
			}
			result.Runs[i] = res.RunResult
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	failed := result.Failed()
	logger.Info("Sweep finished.", "runs", len(runs), "failed", len(failed))
	if len(failed) > 0 {
		return result, ErrRunsFailed
	}
	return result, nil
}

// runOutcome is a RunResult plus the run-local config, needed once more at
// the merge step for flag propagation.
type runOutcome struct {
	RunResult
	konfig *solverconfig.Config
}

// runOne executes a single run over its private config and state clones:
// optional perturbation, namespace allocation, decomposition, analysis and
// collection. All failures are returned in the outcome; they never propagate
// as panics or abort the sweep.
func (d *Driver) runOne(ctx context.Context, konfig *solverconfig.Config, ztate *state.State, spec RunSpec) runOutcome {
	logger := ctxlog.FromContext(ctx).With("run", spec.Name, "mode", spec.Mode.String())

	out := runOutcome{RunResult: RunResult{
		ID:        uuid.New(),
		Name:      spec.Name,
		Mode:      spec.Mode,
		Status:    StatusFailed,
		StartedAt: time.Now(),
	}}
	out.konfig = konfig
	fail := func(err error) runOutcome {
		out.Err = err
		out.FinishedAt = time.Now()
		logger.Error("Run failed.", "error", err)
		return out
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	for _, key := range sortedKeys(spec.Parameters) {
		konfig.Set(key, spec.Parameters[key])
	}

	if spec.Step != nil {
		logger.Debug("Applying design-variable perturbation.")
		dv, err := konfig.DVs()
		if err != nil {
			return fail(err)
		}
		dvOld, dvNew, err := stepper.Make(dv.Count(), *spec.Step)
		if err != nil {
			return fail(err)
		}
		if err := konfig.UnpackDVs(dvNew, dvOld); err != nil {
			return fail(err)
		}
		konfig.Set(solverconfig.KeyGeoMode, spec.Mode.String())
	}

	dir, err := d.Namespaces.Prepare(spec.Name)
	if err != nil {
		return fail(err)
	}
	out.Dir = dir
	d.Namespaces.Redirect(konfig, spec.Name)
	konfig.Set(solver.KeyConfigFilename, filepath.Join(dir, "config_run.cfg"))

	logger.Debug("Decomposing domain.")
	if err := d.Adapter.Decompose(ctx, konfig); err != nil {
		return fail(err)
	}

	logger.Info("Running solver analysis.", "dir", dir)
	if err := d.Adapter.RunAnalysis(ctx, konfig); err != nil {
		return fail(err)
	}

	collected, err := plot.Collect(spec.Mode,
		filepath.Join(dir, d.funcFilename()),
		filepath.Join(dir, d.gradFilename()),
	)
	if err != nil {
		return fail(err)
	}
	ztate.Update(collected)

	out.State = collected
	out.Status = StatusSucceeded
	out.FinishedAt = time.Now()
	logger.Info("Run succeeded.", "functions", len(collected.Functions), "gradients", len(collected.Gradients))
	return out
}

func (d *Driver) funcFilename() string {
	if d.FuncFilename != "" {
		return d.FuncFilename
	}
	return DefaultFuncFilename
}

func (d *Driver) gradFilename() string {
	if d.GradFilename != "" {
		return d.GradFilename
	}
	return DefaultGradFilename
}

func journalEntry(res runOutcome) journal.Entry {
	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
	}
	return journal.Entry{
		ID:         res.ID,
		Name:       res.Name,
		Mode:       res.Mode.String(),
		Namespace:  res.Dir,
		Status:     string(res.Status),
		Error:      errMsg,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
