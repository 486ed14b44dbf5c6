package hclspec

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/sweepgridgo/internal/plot"
	"github.com/vk/sweepgridgo/internal/schema"
	"github.com/vk/sweepgridgo/internal/stepper"
	"github.com/vk/sweepgridgo/internal/sweep"
)

// translate converts the HCL-specific sweep schema into the agnostic plan.
func translate(spec *schema.Sweep) (*sweep.Plan, error) {
	if spec.Config == "" {
		return nil, errors.New("config attribute is required")
	}
	plan := &sweep.Plan{
		ConfigPath:   spec.Config,
		FuncFilename: spec.FunctionFile,
		GradFilename: spec.GradientFile,
	}
	if len(spec.Runs) == 0 {
		return nil, errors.New("at least one run block is required")
	}
	for _, r := range spec.Runs {
		rs, err := translateRun(r)
		if err != nil {
			return nil, fmt.Errorf("run %q: %w", r.Name, err)
		}
		plan.Runs = append(plan.Runs, rs)
	}
	return plan, nil
}

func translateRun(r *schema.Run) (sweep.RunSpec, error) {
	rs := sweep.RunSpec{Name: r.Name, Mode: plot.ModeFunction}

	if r.Mode != "" {
		mode, err := plot.ParseMode(r.Mode)
		if err != nil {
			return rs, err
		}
		rs.Mode = mode
	}

	if r.Step != nil {
		val, diags := r.Step.Value(nil)
		if diags.HasErrors() {
			return rs, fmt.Errorf("evaluate step: %w", diags)
		}
		if !val.IsNull() {
			step, err := translateStep(val)
			if err != nil {
				return rs, err
			}
			rs.Step = &step
		}
	}

	if r.Parameters != nil {
		val, diags := r.Parameters.Value(nil)
		if diags.HasErrors() {
			return rs, fmt.Errorf("evaluate parameters: %w", diags)
		}
		if !val.IsNull() {
			params, err := translateParameters(val)
			if err != nil {
				return rs, err
			}
			rs.Parameters = params
		}
	}

	return rs, nil
}

// translateStep accepts a single number (broadcast to all design variables)
// or a list of numbers (one per variable).
func translateStep(val cty.Value) (stepper.Step, error) {
	if val.Type() == cty.Number {
		f, _ := val.AsBigFloat().Float64()
		return stepper.Scalar(f), nil
	}
	if val.Type().IsTupleType() || val.Type().IsListType() {
		var vs []float64
		for i, v := range val.AsValueSlice() {
			if v.Type() != cty.Number {
				return stepper.Step{}, fmt.Errorf("step[%d]: expected a number, got %s", i, v.Type().FriendlyName())
			}
			f, _ := v.AsBigFloat().Float64()
			vs = append(vs, f)
		}
		return stepper.Vector(vs), nil
	}
	return stepper.Step{}, fmt.Errorf("step: expected a number or list of numbers, got %s", val.Type().FriendlyName())
}

// translateParameters accepts an object of string, number or bool values.
// Booleans map to the solver's YES/NO convention.
func translateParameters(val cty.Value) (map[string]any, error) {
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("parameters: expected an object, got %s", val.Type().FriendlyName())
	}
	out := make(map[string]any)
	for name, v := range val.AsValueMap() {
		switch v.Type() {
		case cty.String:
			out[name] = v.AsString()
		case cty.Number:
			f, _ := v.AsBigFloat().Float64()
			out[name] = f
		case cty.Bool:
			if v.True() {
				out[name] = "YES"
			} else {
				out[name] = "NO"
			}
		default:
			return nil, fmt.Errorf("parameters: %s: unsupported value type %s", name, v.Type().FriendlyName())
		}
	}
	return out, nil
}
