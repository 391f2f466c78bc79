package physics

import (
	"fmt"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// ApplyChange folds the pending events of ch into next, in and em and
// reports whether anything was applied. Applied events are reset to NoOp;
// events addressed to a nil buffer stay pending. Every slot is validated
// before the first write, so a failing call commits nothing.
func ApplyChange(size int, ch *vehicle.Change, prev, next *vehicle.State, in *vehicle.Input, em *vehicle.EM) (bool, error) {
	if err := dynamo.Capacity(size); err != nil {
		return false, err
	}

	for i := 0; i < size; i++ {
		switch e := ch.Objects[i].(type) {
		case nil, vehicle.NoOp, vehicle.InputMerge, vehicle.FieldMerge:
		case vehicle.StateMerge:
			if next == nil {
				continue
			}
			if m := prev.Objects[i].Mass + e.Mass; m < 0 {
				return false, fmt.Errorf("change: object %d mass %g: %w", i, m, dynamo.ErrDegenerateInput)
			}
		default:
			return false, fmt.Errorf("change: object %d: unknown event %T: %w", i, e, dynamo.ErrDegenerateInput)
		}
	}

	applied := false
	for i := 0; i < size; i++ {
		switch e := ch.Objects[i].(type) {
		case vehicle.StateMerge:
			if next == nil {
				continue
			}
			a := prev.Objects[i]
			m := a.Mass + e.Mass
			next.Objects[i] = vehicle.Object{
				Mass:            m,
				Inertia:         scaleInertia(a.Inertia, m, a.Mass),
				Momentum:        a.Momentum.Add(e.Momentum),
				AngularMomentum: a.AngularMomentum.Add(e.AngularMomentum),
			}
		case vehicle.InputMerge:
			if in == nil {
				continue
			}
			o := &in.Objects[i]
			o.MassFlow += e.MassFlow
			o.Force = o.Force.Add(e.Force)
			o.Torque = o.Torque.Add(e.Torque)
		case vehicle.FieldMerge:
			if em == nil {
				continue
			}
			o := &em.Objects[i]
			o.Charge += e.Charge
			o.ElectricDipole = o.ElectricDipole.Add(e.ElectricDipole)
			o.MagneticDipole = o.MagneticDipole.Add(e.MagneticDipole)
		default:
			ch.Objects[i] = vehicle.NoOp{}
			continue
		}
		applied = true
		ch.Objects[i] = vehicle.NoOp{}
	}
	return applied, nil
}
