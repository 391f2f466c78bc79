// Package dynamo holds the shared vocabulary of the propagator: sentinel
// errors, capacity limits and the tolerances used by the implicit solver and
// the adaptive step controller.
//
// Errors are wrapped with fmt.Errorf("...: %w") by every layer above and are
// matched with errors.Is:
//
//   - [ErrDegenerateInput]: zero vectors, singular matrices, massless bodies
//   - [ErrDomainViolation]: force models evaluated outside their domain
//   - [ErrConvergence]: implicit stages exceeding [MaxIter]
//   - [ErrCapacity]: more than [NMax] objects
package dynamo
