package physics

import (
	"fmt"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// Aggregate computes the composite mass, centre of mass and inertia about the
// centre of mass of the first size objects.
func Aggregate(size int, cfg *vehicle.Config, st *vehicle.State) (vehicle.Output, error) {
	if err := dynamo.Capacity(size); err != nil {
		return vehicle.Output{}, err
	}
	if size == 0 {
		return vehicle.Output{}, fmt.Errorf("aggregate: no objects: %w", dynamo.ErrDegenerateInput)
	}

	var out vehicle.Output
	var moment linalg.Vec
	for i := 0; i < size; i++ {
		c, o := &cfg.Objects[i], &st.Objects[i]
		out.Mass += o.Mass
		moment = moment.Add(c.Position.Scale(o.Mass))

		rot := c.Attitude.Mat()
		local := rot.Mul(o.Inertia.Mat()).Mul(rot.T())
		rx := c.Position.CrossMat()
		out.Inertia = out.Inertia.Add(local).Sub(rx.Mul(rx).Scale(o.Mass))
	}
	if out.Mass == 0 {
		return vehicle.Output{}, fmt.Errorf("aggregate: zero total mass: %w", dynamo.ErrDegenerateInput)
	}

	out.Center = moment.Scale(1 / out.Mass)
	cx := out.Center.CrossMat()
	out.Inertia = out.Inertia.Add(cx.Mul(cx).Scale(out.Mass))
	return out, nil
}

// AggregateEM sums object charges and dipoles into the system entry of em.
// Fields E and B are left alone.
func AggregateEM(size int, cfg *vehicle.Config, em *vehicle.EM) error {
	if err := dynamo.Capacity(size); err != nil {
		return err
	}
	sys := &em.System
	sys.Charge = 0
	sys.ElectricDipole = linalg.Vec{}
	sys.MagneticDipole = linalg.Vec{}
	for i := 0; i < size; i++ {
		c, o := &cfg.Objects[i], &em.Objects[i]
		sys.Charge += o.Charge
		sys.ElectricDipole = sys.ElectricDipole.
			Add(c.Position.Scale(o.Charge)).
			Add(c.Attitude.Rotate(o.ElectricDipole))
		sys.MagneticDipole = sys.MagneticDipole.Add(c.Attitude.Rotate(o.MagneticDipole))
	}
	return nil
}
