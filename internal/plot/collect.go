package plot

import (
	"fmt"
	"strings"

	"github.com/vk/sweepgridgo/internal/state"
)

// Mode selects which plot artifact a run produces and how its rows are
// projected into the accumulating state.
type Mode uint8

const (
	// ModeFunction collapses each row to its first value (FUNCTIONS).
	ModeFunction Mode = iota

	// ModeGradient keeps each row's full numeric sequence (GRADIENTS).
	ModeGradient
)

func (m Mode) String() string {
	switch m {
	case ModeFunction:
		return "FUNCTION"
	case ModeGradient:
		return "GRADIENT"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode converts a configuration value such as "FUNCTION" or "GRADIENT"
// (case-insensitive) into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FUNCTION":
		return ModeFunction, nil
	case "GRADIENT":
		return ModeGradient, nil
	default:
		return 0, fmt.Errorf("plot: unknown analysis mode %q", s)
	}
}

// Collect reads the artifact selected by mode and projects it into a fresh
// State: function mode reduces each row of funcFile to its first value,
// gradient mode keeps the full rows of gradFile. An absent artifact fails
// with *MissingFileError.
func Collect(mode Mode, funcFile, gradFile string) (*state.State, error) {
	st := state.New()
	switch mode {
	case ModeFunction:
		rows, err := Read(funcFile)
		if err != nil {
			return nil, err
		}
		for _, key := range rows.Keys() {
			values, _ := rows.Get(key)
			st.Functions[key] = values[0]
		}
	case ModeGradient:
		rows, err := Read(gradFile)
		if err != nil {
			return nil, err
		}
		for _, key := range rows.Keys() {
			values, _ := rows.Get(key)
			st.Gradients[key] = append([]float64(nil), values...)
		}
	default:
		return nil, fmt.Errorf("plot: unknown analysis mode %v", mode)
	}
	return st, nil
}
