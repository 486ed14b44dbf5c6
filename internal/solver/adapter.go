// Package solver defines the contract through which the engine drives the
// external solver binaries: a domain decomposition step followed by the
// analysis itself. The binaries are opaque collaborators; both calls block
// until the external process exits and leave their output files in the
// current run's namespace.
package solver

import (
	"context"
	"fmt"

	"github.com/vk/sweepgridgo/internal/solverconfig"
)

// Adapter drives the two external solver operations over one configuration.
type Adapter interface {
	// Decompose triggers the geometry/domain decomposition step. It is
	// invoked for every run, even when a prior run of the sweep already
	// decomposed the base configuration: the engine never caches
	// decomposition results across distinct perturbations.
	Decompose(ctx context.Context, cfg *solverconfig.Config) error

	// RunAnalysis invokes the solver synchronously. On return the
	// configured output files are present in the run's namespace.
	RunAnalysis(ctx context.Context, cfg *solverconfig.Config) error
}

// InvocationError reports a failed external solver step. It carries the
// failing step name and a snapshot of the configuration for diagnostics.
type InvocationError struct {
	Step   string
	Config *solverconfig.Config
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("solver: %s step failed: %v", e.Step, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
