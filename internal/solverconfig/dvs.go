package solverconfig

import "fmt"

// DVDefinition describes the design variables of a configuration, one entry
// per variable: its kind identifier, scale factor, the geometry markers it
// applies to and its shape parameters.
type DVDefinition struct {
	Kind    []string
	Scale   []float64
	Markers [][]string
	Params  [][]float64
}

// Count returns the number of design variables.
func (d *DVDefinition) Count() int {
	return len(d.Kind)
}

// Clone returns a deep copy of the definition.
func (d *DVDefinition) Clone() *DVDefinition {
	out := &DVDefinition{
		Kind:    append([]string(nil), d.Kind...),
		Scale:   append([]float64(nil), d.Scale...),
		Markers: make([][]string, len(d.Markers)),
		Params:  make([][]float64, len(d.Params)),
	}
	for i, m := range d.Markers {
		out.Markers[i] = append([]string(nil), m...)
	}
	for i, p := range d.Params {
		out.Params[i] = append([]float64(nil), p...)
	}
	return out
}

// UnpackDVs applies a design-variable perturbation by writing the new and
// old value vectors, together with the per-variable kind, marker and
// parameter fields consumed by the solver binaries, into the configuration.
// The solver interface expects an explicit before/after pair rather than a
// single delta. The config is marked perturbed, which the decomposition step
// consumes.
//
// It fails with a *KeyError when DEFINITION_DV is absent, and with a plain
// error when the vector lengths do not match the variable count.
func (c *Config) UnpackDVs(dvNew, dvOld []float64) error {
	dv, err := c.DVs()
	if err != nil {
		return err
	}
	n := dv.Count()
	if len(dvNew) != n {
		return fmt.Errorf("solver config: DV_VALUE_NEW has %d entries, definition has %d variables", len(dvNew), n)
	}
	if len(dvOld) != n {
		return fmt.Errorf("solver config: DV_VALUE_OLD has %d entries, definition has %d variables", len(dvOld), n)
	}

	markers := make([]string, 0, n)
	seen := make(map[string]bool)
	for _, group := range dv.Markers {
		for _, m := range group {
			if !seen[m] {
				seen[m] = true
				markers = append(markers, m)
			}
		}
	}

	c.Set(KeyDVKind, append([]string(nil), dv.Kind...))
	c.Set(KeyDVMarker, markers)
	params := make([][]float64, len(dv.Params))
	for i, p := range dv.Params {
		params[i] = append([]float64(nil), p...)
	}
	c.Set(KeyDVParam, params)
	c.Set(KeyDVValueOld, append([]float64(nil), dvOld...))
	c.Set(KeyDVValueNew, append([]float64(nil), dvNew...))
	c.perturbed = true
	return nil
}
