package physics

import (
	"fmt"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// InterpolateObjects fills the object records of curr at time t: mass by
// linear interpolation, inertia scaled by the mass ratio to prev, momenta
// taken from next.
func InterpolateObjects(size int, prev, next *vehicle.State, t float64, curr *vehicle.State) error {
	if err := dynamo.Capacity(size); err != nil {
		return err
	}
	span := next.Clock.T - prev.Clock.T
	if span == 0 {
		return fmt.Errorf("interpolate: empty interval at t=%g: %w", prev.Clock.T, linalg.ErrDivideByZero)
	}
	s := (t - prev.Clock.T) / span
	for i := 0; i < size; i++ {
		a, b := &prev.Objects[i], &next.Objects[i]
		m := linalg.Lerp(a.Mass, b.Mass, s)
		curr.Objects[i] = vehicle.Object{
			Mass:            m,
			Inertia:         scaleInertia(a.Inertia, m, a.Mass),
			Momentum:        b.Momentum,
			AngularMomentum: b.AngularMomentum,
		}
	}
	return nil
}

// InterpolateState reconstructs curr at time t between two accepted samples:
// cubic Hermite for position and velocity, squad for attitude and body rate.
func InterpolateState(size int, prev, next *vehicle.State, t float64, curr *vehicle.State) error {
	a, b := &prev.System, &next.System
	t0, t1 := prev.Clock.T, next.Clock.T

	r, v, err := linalg.Hermite(t0, t1, a.R, a.V, b.R, b.V, t)
	if err != nil {
		return fmt.Errorf("interpolate: %w", err)
	}
	q, w, err := linalg.Squad(t0, t1, a.Q, a.W, b.Q, b.W, t)
	if err != nil {
		return fmt.Errorf("interpolate: %w", err)
	}
	if err := InterpolateObjects(size, prev, next, t, curr); err != nil {
		return err
	}
	curr.Clock.T = t
	curr.System = vehicle.System{R: r, Q: q, V: v, W: w}
	return nil
}
