// Package stepper produces the before/after design-variable value vectors
// that perturb a configuration for finite-difference runs.
package stepper

import "fmt"

// LengthError reports a step vector whose length does not match the number
// of design variables.
type LengthError struct {
	Want int
	Got  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("stepper: step vector has %d entries, config defines %d design variables", e.Got, e.Want)
}

// Step is a finite-difference step size: either a single scalar broadcast to
// every design variable, or an explicit per-variable vector.
type Step struct {
	scalar float64
	vector []float64
	isVec  bool
}

// Scalar returns a step broadcast to all design variables.
func Scalar(v float64) Step {
	return Step{scalar: v}
}

// Vector returns an explicit per-variable step.
func Vector(vs []float64) Step {
	return Step{vector: append([]float64(nil), vs...), isVec: true}
}

// IsVector reports whether the step is an explicit per-variable vector.
func (s Step) IsVector() bool {
	return s.isVec
}

// Make returns the (old, new) value vectors for n design variables. The old
// vector is all-zero: perturbations are taken relative to the unperturbed
// state, assuming linear superposition of design variables. A vector step
// whose length differs from n fails with a *LengthError.
func Make(n int, step Step) (dvOld, dvNew []float64, err error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("stepper: negative design variable count %d", n)
	}
	dvNew = make([]float64, n)
	if step.isVec {
		if len(step.vector) != n {
			return nil, nil, &LengthError{Want: n, Got: len(step.vector)}
		}
		copy(dvNew, step.vector)
	} else {
		for i := range dvNew {
			dvNew[i] = step.scalar
		}
	}
	return make([]float64, n), dvNew, nil
}
