// Package solvertest provides an in-process fake of the solver.Adapter
// contract for tests that exercise the engine without external binaries.
package solvertest

import (
	"context"
	"sync"

	"github.com/vk/sweepgridgo/internal/solver"
	"github.com/vk/sweepgridgo/internal/solverconfig"
)

// Fake implements solver.Adapter. Hooks run with the live run-local config;
// snapshots of every invocation are recorded for assertions.
type Fake struct {
	// OnDecompose, when set, replaces the default decompose behavior.
	OnDecompose func(cfg *solverconfig.Config) error

	// OnAnalysis, when set, runs instead of a no-op analysis. Tests use
	// it to drop plot files into the run's namespace or to inject
	// failures for selected runs.
	OnAnalysis func(cfg *solverconfig.Config) error

	mu         sync.Mutex
	decomposed []*solverconfig.Config
	analyzed   []*solverconfig.Config
}

// Decompose implements solver.Adapter. Without a hook it marks the
// configuration decomposed and succeeds.
func (f *Fake) Decompose(_ context.Context, cfg *solverconfig.Config) error {
	f.mu.Lock()
	f.decomposed = append(f.decomposed, cfg.Clone())
	f.mu.Unlock()

	if f.OnDecompose != nil {
		if err := f.OnDecompose(cfg); err != nil {
			return &solver.InvocationError{Step: "decompose", Config: cfg.Clone(), Err: err}
		}
	}
	cfg.SetDecomposed(true)
	return nil
}

// RunAnalysis implements solver.Adapter.
func (f *Fake) RunAnalysis(_ context.Context, cfg *solverconfig.Config) error {
	f.mu.Lock()
	f.analyzed = append(f.analyzed, cfg.Clone())
	f.mu.Unlock()

	if f.OnAnalysis != nil {
		if err := f.OnAnalysis(cfg); err != nil {
			return &solver.InvocationError{Step: "analysis", Config: cfg.Clone(), Err: err}
		}
	}
	return nil
}

// DecomposeCalls returns config snapshots taken at each Decompose call.
func (f *Fake) DecomposeCalls() []*solverconfig.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*solverconfig.Config(nil), f.decomposed...)
}

// AnalysisCalls returns config snapshots taken at each RunAnalysis call.
func (f *Fake) AnalysisCalls() []*solverconfig.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*solverconfig.Config(nil), f.analyzed...)
}
