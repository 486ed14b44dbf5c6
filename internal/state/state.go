// Package state holds the accumulating analysis results of a run or a whole
// sweep: scalar function values, gradient rows and discovered files. One
// master State exists per sweep; each run works on its own clone and the
// run-local results are folded back with Update.
package state

import (
	"os"

	"github.com/vk/sweepgridgo/internal/solverconfig"
)

// Configuration keys whose files, when already present on disk, are recorded
// into the FILES category before a sweep starts.
var fileKeys = []string{
	"MESH_FILENAME",
	"SOLUTION_FLOW_FILENAME",
	"SOLUTION_ADJ_FILENAME",
	"RESTART_FLOW_FILENAME",
}

// State maps result categories to key-value result data.
type State struct {
	// Functions holds scalar objective values, one per function name.
	Functions map[string]float64

	// Gradients holds full gradient rows, one per function name.
	Gradients map[string][]float64

	// Files records input artifacts found on disk, keyed by config key.
	Files map[string]string
}

// New returns an empty State with all categories initialized.
func New() *State {
	return &State{
		Functions: make(map[string]float64),
		Gradients: make(map[string][]float64),
		Files:     make(map[string]string),
	}
}

// Clone returns a deep, fully independent copy.
func (s *State) Clone() *State {
	out := New()
	out.Update(s)
	return out
}

// Update merges src into s. The merge is additive: keys present only in src
// are added, keys present in both take src's value, and no key of s is ever
// dropped. Gradient rows are copied, never aliased.
func (s *State) Update(src *State) {
	if src == nil {
		return
	}
	for k, v := range src.Functions {
		s.Functions[k] = v
	}
	for k, v := range src.Gradients {
		s.Gradients[k] = append([]float64(nil), v...)
	}
	for k, v := range src.Files {
		s.Files[k] = v
	}
}

// FindFiles records solution and mesh files named by cfg that already exist
// on disk into the FILES category.
func (s *State) FindFiles(cfg *solverconfig.Config) {
	for _, key := range fileKeys {
		name, err := cfg.GetString(key)
		if err != nil || name == "" {
			continue
		}
		if _, err := os.Stat(name); err == nil {
			s.Files[key] = name
		}
	}
}
