package sweep

import (
	"context"

	"github.com/vk/sweepgridgo/internal/plot"
	"github.com/vk/sweepgridgo/internal/solver"
	"github.com/vk/sweepgridgo/internal/solverconfig"
	"github.com/vk/sweepgridgo/internal/state"
	"github.com/vk/sweepgridgo/internal/stepper"
)

// Geometry runs a single geometry analysis over cfg in the current
// directory: decompose, analyze, collect. The analysis mode comes from the
// config's GEO_MODE; the design variables are perturbed by step relative to
// the unperturbed baseline, so a zero step reproduces the baseline values.
// The caller's config receives the updated decomposition flag; all other
// mutations stay on the run-local clone.
//
// It fails with *solverconfig.KeyError when GEO_PARAM or DEFINITION_DV is
// absent.
func Geometry(ctx context.Context, adapter solver.Adapter, cfg *solverconfig.Config, step stepper.Step) (*state.State, error) {
	konfig := cfg.Clone()

	if _, err := konfig.GetString(solverconfig.KeyGeoParam); err != nil {
		return nil, err
	}

	modeStr, err := konfig.GetString(solverconfig.KeyGeoMode)
	if err != nil {
		modeStr = "FUNCTION"
	}
	mode, err := plot.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}

	dv, err := konfig.DVs()
	if err != nil {
		return nil, err
	}
	dvOld, dvNew, err := stepper.Make(dv.Count(), step)
	if err != nil {
		return nil, err
	}
	if err := konfig.UnpackDVs(dvNew, dvOld); err != nil {
		return nil, err
	}

	if err := adapter.Decompose(ctx, konfig); err != nil {
		return nil, err
	}
	if err := adapter.RunAnalysis(ctx, konfig); err != nil {
		return nil, err
	}

	info, err := plot.Collect(mode, DefaultFuncFilename, DefaultGradFilename)
	if err != nil {
		return nil, err
	}

	if decomposed, ok := konfig.Get(solverconfig.KeyDecomposed); ok {
		cfg.Set(solverconfig.KeyDecomposed, decomposed)
	}
	return info, nil
}
