package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for propagation and the algebra kernel.
var (
	// ErrDegenerateInput indicates a zero-length vector, a singular matrix or a
	// vehicle without mass.
	ErrDegenerateInput = errors.New("dynamo: degenerate input")

	// ErrDomainViolation indicates a force model evaluated outside its valid region.
	ErrDomainViolation = errors.New("dynamo: outside model domain")

	// ErrConvergence indicates an implicit stage did not settle within MaxIter sweeps.
	ErrConvergence = errors.New("dynamo: implicit iteration did not converge")

	// ErrCapacity indicates an object count above NMax.
	ErrCapacity = errors.New("dynamo: object count exceeds capacity")

	// ErrInvalidState indicates a state with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	ErrContextCanceled = errors.New("dynamo: propagation canceled by context")
)

// SimulationError wraps an error with propagation context.
type SimulationError struct {
	Step    uint64
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// Capacity checks an object count against NMax.
func Capacity(size int) error {
	if size < 0 || size > NMax {
		return fmt.Errorf("size %d: %w", size, ErrCapacity)
	}
	return nil
}
