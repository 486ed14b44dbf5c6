// Package sweep drives a campaign of related solver runs over one base
// configuration: for each perturbation it clones the configuration and
// state, applies parameter overrides or a design-variable step, allocates an
// isolated namespace, invokes the external solver and folds the collected
// results back into a master accumulator. One failing run never aborts the
// rest of the sweep.
package sweep

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/sweepgridgo/internal/plot"
	"github.com/vk/sweepgridgo/internal/state"
	"github.com/vk/sweepgridgo/internal/stepper"
)

// Default plot artifact filenames produced by the solver.
const (
	DefaultFuncFilename = "of_func.dat"
	DefaultGradFilename = "of_grad.dat"
)

// ErrRunsFailed is returned by Driver.Run when at least one run of the sweep
// failed. The Result still carries every successful run's data.
var ErrRunsFailed = errors.New("sweep: one or more runs failed")

// Plan is a full sweep campaign: the base configuration and an ordered
// sequence of perturbation descriptors.
type Plan struct {
	// ConfigPath locates the base solver configuration file.
	ConfigPath string

	// FuncFilename and GradFilename override the plot artifact names the
	// solver writes. Empty means the defaults.
	FuncFilename string
	GradFilename string

	// Runs are executed in order.
	Runs []RunSpec
}

// RunSpec describes one perturbation of the sweep: the namespace it writes
// into and either fixed parameter overrides, a design-variable step, or
// both.
type RunSpec struct {
	// Name is the run's namespace (directory) name. Must be unique
	// within a sweep.
	Name string

	// Parameters are fixed overrides applied to the run's config clone.
	Parameters map[string]any

	// Step, when non-nil, perturbs the design variables before the run.
	Step *stepper.Step

	// Mode selects which plot artifact the run collects.
	Mode plot.Mode
}

// Status is the terminal state of one run.
type Status string

const (
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// RunResult is the outcome of one run of the sweep.
type RunResult struct {
	ID         uuid.UUID
	Name       string
	Mode       plot.Mode
	Status     Status
	Dir        string
	StartedAt  time.Time
	FinishedAt time.Time

	// State holds the run-local collected results; nil when the run
	// failed before collection.
	State *state.State

	// Err is the per-run failure, nil on success.
	Err error
}

// Result is the outcome of a whole sweep.
type Result struct {
	// State is the merged master accumulator. Each run's result keys are
	// scoped by its name (`<run>/<key>`), so results of different runs
	// stay distinguishable.
	State *state.State

	// Runs holds per-run outcomes in plan order.
	Runs []RunResult
}

// Failed returns the runs that did not succeed.
func (r *Result) Failed() []RunResult {
	var out []RunResult
	for _, run := range r.Runs {
		if run.Status != StatusSucceeded {
			out = append(out, run)
		}
	}
	return out
}

// validateNames rejects plans with duplicate namespace names: two runs
// preparing the same directory would destroy each other's outputs.
func validateNames(runs []RunSpec) error {
	seen := make(map[string]bool, len(runs))
	for _, r := range runs {
		if r.Name == "" {
			return fmt.Errorf("sweep: run with empty name")
		}
		if seen[r.Name] {
			return fmt.Errorf("sweep: duplicate run name %q", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// scoped returns a copy of st with every result key prefixed by the run
// name, keeping runs distinguishable after the merge into the master state.
func scoped(name string, st *state.State) *state.State {
	out := state.New()
	for k, v := range st.Functions {
		out.Functions[name+"/"+k] = v
	}
	for k, v := range st.Gradients {
		out.Gradients[name+"/"+k] = append([]float64(nil), v...)
	}
	for k, v := range st.Files {
		out.Files[name+"/"+k] = v
	}
	return out
}
