package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/sweepgridgo/internal/ctxlog"
	"github.com/vk/sweepgridgo/internal/journal"
	"github.com/vk/sweepgridgo/internal/namespace"
	"github.com/vk/sweepgridgo/internal/plot"
	"github.com/vk/sweepgridgo/internal/solver"
	"github.com/vk/sweepgridgo/internal/solver/solvertest"
	"github.com/vk/sweepgridgo/internal/solverconfig"
	"github.com/vk/sweepgridgo/internal/state"
	"github.com/vk/sweepgridgo/internal/stepper"
)

func quietCtx() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func baseConfig() *solverconfig.Config {
	cfg := solverconfig.New()
	cfg.Set("GEO_PARAM", "AIRFOIL_AREA")
	cfg.Set("GEO_MODE", "FUNCTION")
	cfg.Set("CONV_FILENAME", "history")
	cfg.Set("RESTART_FLOW_FILENAME", "restart_flow.dat")
	cfg.Set("VOLUME_FLOW_FILENAME", "flow")
	cfg.Set("SURFACE_FLOW_FILENAME", "surface_flow")
	cfg.Set(solverconfig.KeyDefinitionDV, &solverconfig.DVDefinition{
		Kind:    []string{"HICKS_HENNE", "HICKS_HENNE"},
		Scale:   []float64{1, 1},
		Markers: [][]string{{"airfoil"}, {"airfoil"}},
		Params:  [][]float64{{0, 0.25}, {0, 0.75}},
	})
	return cfg
}

// runDir resolves the namespace directory of the run-local config seen by
// the fake adapter.
func runDir(cfg *solverconfig.Config) string {
	cfgPath, _ := cfg.GetString(solver.KeyConfigFilename)
	return filepath.Dir(cfgPath)
}

// writeFuncPlot drops an of_func.dat whose values depend on the run's
// COMPONENTALITY parameter, so results of different runs are tellable apart.
func writeFuncPlot(cfg *solverconfig.Config) error {
	comp, err := cfg.GetFloat("COMPONENTALITY")
	if err != nil {
		return err
	}
	content := fmt.Sprintf("DRAG, %g\nLIFT, %g\n", comp, comp*10)
	return os.WriteFile(filepath.Join(runDir(cfg), DefaultFuncFilename), []byte(content), 0o644)
}

func TestRunComponentSweep(t *testing.T) {
	fake := &solvertest.Fake{OnAnalysis: writeFuncPlot}
	root := t.TempDir()
	d := &Driver{Adapter: fake, Namespaces: &namespace.Manager{Root: root}}

	runs := []RunSpec{
		{Name: "1c", Parameters: map[string]any{"COMPONENTALITY": 1.0}},
		{Name: "2c", Parameters: map[string]any{"COMPONENTALITY": 2.0}},
		{Name: "3c", Parameters: map[string]any{"COMPONENTALITY": 3.0}},
	}
	cfg := baseConfig()
	master := state.New()

	result, err := d.Run(quietCtx(), cfg, master, runs)
	require.NoError(t, err)
	require.Len(t, result.Runs, 3)

	// Every run succeeded and wrote only into its own directory.
	for i, name := range []string{"1c", "2c", "3c"} {
		run := result.Runs[i]
		assert.Equal(t, name, run.Name)
		assert.Equal(t, StatusSucceeded, run.Status)
		assert.Equal(t, filepath.Join(root, name), run.Dir)
		assert.FileExists(t, filepath.Join(root, name, DefaultFuncFilename))
	}

	// The merged master state holds three distinguishable result sets.
	assert.Equal(t, map[string]float64{
		"1c/DRAG": 1, "1c/LIFT": 10,
		"2c/DRAG": 2, "2c/LIFT": 20,
		"3c/DRAG": 3, "3c/LIFT": 30,
	}, master.Functions)

	// Decomposition ran once per run: no caching across perturbations.
	assert.Len(t, fake.DecomposeCalls(), 3)

	// Each solver invocation saw redirected output filenames.
	calls := fake.AnalysisCalls()
	require.Len(t, calls, 3)
	for i, name := range []string{"1c", "2c", "3c"} {
		conv, err := calls[i].GetString("CONV_FILENAME")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, name, "history"), conv)
	}

	// The decomposition flag propagated back into the master config, and
	// the master config itself was never perturbed or redirected.
	assert.True(t, cfg.Decomposed())
	conv, err := cfg.GetString("CONV_FILENAME")
	require.NoError(t, err)
	assert.Equal(t, "history", conv)
}

func TestRunPartialFailure(t *testing.T) {
	boom := errors.New("boom")
	fake := &solvertest.Fake{OnAnalysis: func(cfg *solverconfig.Config) error {
		if comp, _ := cfg.GetFloat("COMPONENTALITY"); comp == 2 {
			return boom
		}
		return writeFuncPlot(cfg)
	}}
	d := &Driver{Adapter: fake, Namespaces: &namespace.Manager{Root: t.TempDir()}}

	runs := []RunSpec{
		{Name: "1c", Parameters: map[string]any{"COMPONENTALITY": 1.0}},
		{Name: "2c", Parameters: map[string]any{"COMPONENTALITY": 2.0}},
		{Name: "3c", Parameters: map[string]any{"COMPONENTALITY": 3.0}},
	}
	master := state.New()

	result, err := d.Run(quietCtx(), baseConfig(), master, runs)
	require.ErrorIs(t, err, ErrRunsFailed)

	// Runs 1 and 3 completed despite the failure of run 2.
	assert.Equal(t, StatusSucceeded, result.Runs[0].Status)
	assert.Equal(t, StatusFailed, result.Runs[1].Status)
	assert.Equal(t, StatusSucceeded, result.Runs[2].Status)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "2c", failed[0].Name)
	var invErr *solver.InvocationError
	require.ErrorAs(t, failed[0].Err, &invErr)
	assert.Equal(t, "analysis", invErr.Step)

	// The failed run left no results in the master state.
	assert.Contains(t, master.Functions, "1c/DRAG")
	assert.Contains(t, master.Functions, "3c/DRAG")
	assert.NotContains(t, master.Functions, "2c/DRAG")
}

func TestRunGradientPerturbation(t *testing.T) {
	fake := &solvertest.Fake{OnAnalysis: func(cfg *solverconfig.Config) error {
		content := "DRAG, 0.1, 0.2\nLIFT, -0.3, -0.4\n"
		return os.WriteFile(filepath.Join(runDir(cfg), DefaultGradFilename), []byte(content), 0o644)
	}}
	d := &Driver{Adapter: fake, Namespaces: &namespace.Manager{Root: t.TempDir()}}

	step := stepper.Vector([]float64{1e-3, 2e-3})
	runs := []RunSpec{{Name: "grad", Step: &step, Mode: plot.ModeGradient}}
	master := state.New()

	_, err := d.Run(quietCtx(), baseConfig(), master, runs)
	require.NoError(t, err)

	assert.Equal(t, map[string][]float64{
		"grad/DRAG": {0.1, 0.2},
		"grad/LIFT": {-0.3, -0.4},
	}, master.Gradients)

	// The run-local config carried the composed perturbation vectors.
	calls := fake.AnalysisCalls()
	require.Len(t, calls, 1)
	vNew, _ := calls[0].Get(solverconfig.KeyDVValueNew)
	assert.Equal(t, []float64{1e-3, 2e-3}, vNew)
	vOld, _ := calls[0].Get(solverconfig.KeyDVValueOld)
	assert.Equal(t, []float64{0, 0}, vOld)
	mode, err := calls[0].GetString(solverconfig.KeyGeoMode)
	require.NoError(t, err)
	assert.Equal(t, "GRADIENT", mode)
}

func TestRunStepLengthMismatch(t *testing.T) {
	fake := &solvertest.Fake{}
	d := &Driver{Adapter: fake, Namespaces: &namespace.Manager{Root: t.TempDir()}}

	step := stepper.Vector([]float64{1e-3}) // config defines two variables
	runs := []RunSpec{{Name: "grad", Step: &step, Mode: plot.ModeGradient}}

	result, err := d.Run(quietCtx(), baseConfig(), state.New(), runs)
	require.ErrorIs(t, err, ErrRunsFailed)

	var lenErr *stepper.LengthError
	require.ErrorAs(t, result.Runs[0].Err, &lenErr)
	assert.Empty(t, fake.AnalysisCalls(), "the solver is never invoked for an invalid step")
}

func TestRunMissingOutputFile(t *testing.T) {
	// Analysis "succeeds" but produces nothing: a consistency violation.
	fake := &solvertest.Fake{}
	d := &Driver{Adapter: fake, Namespaces: &namespace.Manager{Root: t.TempDir()}}

	runs := []RunSpec{{Name: "1c"}}
	result, err := d.Run(quietCtx(), baseConfig(), state.New(), runs)
	require.ErrorIs(t, err, ErrRunsFailed)

	var missing *plot.MissingFileError
	require.ErrorAs(t, result.Runs[0].Err, &missing)
}

func TestRunDuplicateNames(t *testing.T) {
	d := &Driver{Adapter: &solvertest.Fake{}, Namespaces: &namespace.Manager{Root: t.TempDir()}}

	_, err := d.Run(quietCtx(), baseConfig(), state.New(), []RunSpec{{Name: "1c"}, {Name: "1c"}})
	assert.ErrorContains(t, err, "duplicate run name")
}

func TestRunParallel(t *testing.T) {
	fake := &solvertest.Fake{OnAnalysis: writeFuncPlot}
	d := &Driver{
		Adapter:    fake,
		Namespaces: &namespace.Manager{Root: t.TempDir()},
		Parallel:   3,
	}

	var runs []RunSpec
	for i := 1; i <= 6; i++ {
		runs = append(runs, RunSpec{
			Name:       fmt.Sprintf("%dc", i),
			Parameters: map[string]any{"COMPONENTALITY": float64(i)},
		})
	}
	master := state.New()

	result, err := d.Run(quietCtx(), baseConfig(), master, runs)
	require.NoError(t, err)

	assert.Len(t, result.Failed(), 0)
	assert.Len(t, master.Functions, 12)
	for i := 1; i <= 6; i++ {
		assert.Equal(t, float64(i), master.Functions[fmt.Sprintf("%dc/DRAG", i)])
	}
}

// TestRunParallelCloneMergeOverlap drives enough concurrent runs that CLONE
// steps of late runs overlap MERGE steps of early ones. Run with -race: the
// master config and state must only ever be touched under the driver's lock.
func TestRunParallelCloneMergeOverlap(t *testing.T) {
	fake := &solvertest.Fake{OnAnalysis: writeFuncPlot}
	d := &Driver{
		Adapter:    fake,
		Namespaces: &namespace.Manager{Root: t.TempDir()},
		Parallel:   8,
	}

	var runs []RunSpec
	for i := 1; i <= 64; i++ {
		runs = append(runs, RunSpec{
			Name:       fmt.Sprintf("%dc", i),
			Parameters: map[string]any{"COMPONENTALITY": float64(i)},
		})
	}
	cfg := baseConfig()
	master := state.New()

	result, err := d.Run(quietCtx(), cfg, master, runs)
	require.NoError(t, err)

	assert.Empty(t, result.Failed())
	assert.Len(t, master.Functions, 128)
	assert.True(t, cfg.Decomposed())
}

func TestRunJournalsEveryRun(t *testing.T) {
	jr, err := journal.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer jr.Close()

	boom := errors.New("boom")
	fake := &solvertest.Fake{OnAnalysis: func(cfg *solverconfig.Config) error {
		if comp, _ := cfg.GetFloat("COMPONENTALITY"); comp == 2 {
			return boom
		}
		return writeFuncPlot(cfg)
	}}
	d := &Driver{
		Adapter:    fake,
		Namespaces: &namespace.Manager{Root: t.TempDir()},
		Journal:    jr,
	}

	runs := []RunSpec{
		{Name: "1c", Parameters: map[string]any{"COMPONENTALITY": 1.0}},
		{Name: "2c", Parameters: map[string]any{"COMPONENTALITY": 2.0}},
	}
	_, err = d.Run(quietCtx(), baseConfig(), state.New(), runs)
	require.ErrorIs(t, err, ErrRunsFailed)

	entries, err := jr.Runs()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]journal.Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.Equal(t, "SUCCEEDED", byName["1c"].Status)
	assert.Equal(t, "FAILED", byName["2c"].Status)
	assert.Contains(t, byName["2c"].Error, "analysis step failed")
}
