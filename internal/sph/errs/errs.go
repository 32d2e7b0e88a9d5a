// Package errs defines the SPH core's error taxonomy.
//
// Errors fall into two classes: locally-recovered (ConvergenceFailure,
// NeighborTruncation, TreeOverflow) which the caller logs and continues
// past, and fatal (BoundaryViolation, NumericInstability) which abort
// the driver. ConfigurationError is raised only by the parameter
// builder, never at simulation runtime.
package errs

import "errors"

var (
	ErrConvergenceFailure = errors.New("sph: smoothing length did not converge")
	ErrNeighborTruncation = errors.New("sph: neighbor collector truncated")
	ErrBoundaryViolation  = errors.New("sph: real particle outside domain after wrap")
	ErrNumericInstability = errors.New("sph: NaN or Inf in integrated quantity")
	ErrConfiguration      = errors.New("sph: invalid parameter combination")
	ErrTreeOverflow       = errors.New("sph: max tree level exceeded with non-empty leaf")
)

// StepError wraps a sentinel error kind with the step context needed
// to report it (spec §7: particle id, current h, density, mass).
type StepError struct {
	Step    int
	Time    float64
	Kind    error
	Context map[string]any
}

func (e *StepError) Error() string {
	return e.Kind.Error()
}

func (e *StepError) Unwrap() error {
	return e.Kind
}

// Fatal reports whether an error kind aborts the driver immediately.
func Fatal(kind error) bool {
	return kind == ErrBoundaryViolation || kind == ErrNumericInstability
}
