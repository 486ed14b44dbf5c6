// Package schema declares the HCL structure of a sweep specification file.
package schema

import "github.com/hashicorp/hcl/v2"

// Sweep represents the top-level structure of a sweep file: the base solver
// configuration and the ordered run blocks.
type Sweep struct {
	Config       string `hcl:"config"`
	FunctionFile string `hcl:"function_file,optional"`
	GradientFile string `hcl:"gradient_file,optional"`
	Runs         []*Run `hcl:"run,block"`
}

// Run represents a `run` block. Its label names the run's namespace
// directory. A run carries fixed parameter overrides, a design-variable
// step (scalar or per-variable list) with an analysis mode, or both.
type Run struct {
	Name       string         `hcl:"name,label"`
	Mode       string         `hcl:"mode,optional"`
	Step       hcl.Expression `hcl:"step,optional"`
	Parameters hcl.Expression `hcl:"parameters,optional"`
}
