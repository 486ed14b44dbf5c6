package solver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/sweepgridgo/internal/solverconfig"
)

func TestDecomposeSinglePartition(t *testing.T) {
	a := NewCommand(Tools{AnalysisBin: "solver", Partitions: 1})
	cfg := solverconfig.New()

	require.NoError(t, a.Decompose(context.Background(), cfg))
	assert.False(t, cfg.Decomposed(), "single partition needs no decomposition")
}

func TestDecomposeSkipsWhenOptedIn(t *testing.T) {
	// No DecomposeBin configured: reaching the invocation would fail, so a
	// nil error proves the step was skipped.
	a := NewCommand(Tools{AnalysisBin: "solver", Partitions: 4, SkipDecomposed: true})
	cfg := solverconfig.New()
	cfg.SetDecomposed(true)

	require.NoError(t, a.Decompose(context.Background(), cfg))
}

func TestDecomposeRedecomposesPerturbedConfigs(t *testing.T) {
	a := NewCommand(Tools{AnalysisBin: "solver", Partitions: 4, SkipDecomposed: true})
	cfg := solverconfig.New()
	cfg.Set(solverconfig.KeyDefinitionDV, &solverconfig.DVDefinition{
		Kind:    []string{"HICKS_HENNE"},
		Scale:   []float64{1},
		Markers: [][]string{{"airfoil"}},
		Params:  [][]float64{{0, 0.5}},
	})
	cfg.SetDecomposed(true)
	require.NoError(t, cfg.UnpackDVs([]float64{1e-3}, []float64{0}))

	err := a.Decompose(context.Background(), cfg)
	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr,
		"a perturbed config must re-decompose even when already decomposed")
	assert.Equal(t, "decompose", invErr.Step)
}

func TestInvokeWithoutBinary(t *testing.T) {
	a := NewCommand(Tools{Partitions: 1})
	cfg := solverconfig.New()

	err := a.RunAnalysis(context.Background(), cfg)
	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "analysis", invErr.Step)
	assert.NotNil(t, invErr.Config, "the error carries a config snapshot for diagnostics")
}

func TestRunAnalysisFailureWritesConfig(t *testing.T) {
	dir := t.TempDir()
	a := NewCommand(Tools{AnalysisBin: filepath.Join(dir, "no-such-solver"), Partitions: 1})

	cfg := solverconfig.New()
	cfg.Set("MACH_NUMBER", 0.8)
	cfg.Set(KeyConfigFilename, filepath.Join(dir, "config_run.cfg"))

	err := a.RunAnalysis(context.Background(), cfg)
	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)

	// The per-run config file was materialized before the exec attempt.
	reread, err := solverconfig.Load(filepath.Join(dir, "config_run.cfg"))
	require.NoError(t, err)
	mach, err := reread.GetFloat("MACH_NUMBER")
	require.NoError(t, err)
	assert.Equal(t, 0.8, mach)
}

func TestConfigPathResolution(t *testing.T) {
	t.Run("relative to workdir", func(t *testing.T) {
		a := NewCommand(Tools{WorkDir: "/work"})
		cfg := solverconfig.New()
		cfg.Set(KeyConfigFilename, "runs/1c/config_run.cfg")
		assert.Equal(t, "/work/runs/1c/config_run.cfg", a.configPath(cfg))
	})

	t.Run("absolute path wins", func(t *testing.T) {
		a := NewCommand(Tools{WorkDir: "/work"})
		cfg := solverconfig.New()
		cfg.Set(KeyConfigFilename, "/abs/config_run.cfg")
		assert.Equal(t, "/abs/config_run.cfg", a.configPath(cfg))
	})

	t.Run("default filename", func(t *testing.T) {
		a := NewCommand(Tools{})
		assert.Equal(t, defaultConfigFilename, a.configPath(solverconfig.New()))
	})
}
