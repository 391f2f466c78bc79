package physics

import (
	"fmt"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// Load is the net force and torque on the composite, both in the body frame,
// the torque taken about the system origin.
type Load struct {
	Force  linalg.Vec
	Torque linalg.Vec
}

// AccumulateLoads folds the system input (inertial force, body torque) and
// the object inputs (object frame) into a body-frame Load.
func AccumulateLoads(size int, cfg *vehicle.Config, st *vehicle.State, in *vehicle.Input) (Load, error) {
	if err := dynamo.Capacity(size); err != nil {
		return Load{}, err
	}
	l := Load{
		Force:  st.System.Q.InvRotate(in.System.Force),
		Torque: in.System.Torque,
	}
	for i := 0; i < size; i++ {
		c, o := &cfg.Objects[i], &in.Objects[i]
		f := c.Attitude.Rotate(o.Force)
		l.Force = l.Force.Add(f)
		l.Torque = l.Torque.Add(c.Position.Cross(f)).Add(c.Attitude.Rotate(o.Torque))
	}
	return l, nil
}

// SolveDerivative applies Euler's rigid-body equations about the centre of
// mass and returns the state derivative. The inertial net force, net torque
// and the accelerations are written to in.System.
func SolveDerivative(st *vehicle.State, out *vehicle.Output, load Load, in *vehicle.Input) (vehicle.System, error) {
	if out.Mass == 0 {
		return vehicle.System{}, fmt.Errorf("derivative: zero mass: %w", dynamo.ErrDegenerateInput)
	}
	inv, err := out.Inertia.Inv()
	if err != nil {
		return vehicle.System{}, fmt.Errorf("derivative: inertia: %w", err)
	}
	sys := &st.System
	c, w := out.Center, sys.W

	wdot := inv.MulVec(load.Torque.
		Sub(c.Cross(load.Force)).
		Sub(w.Cross(out.Inertia.MulVec(w))))
	force := sys.Q.Rotate(load.Force)
	vdot := sys.Q.Rotate(c.Cross(wdot).Sub(w.Cross(w.Cross(c)))).
		Add(force.Scale(1 / out.Mass))

	in.System.Force = force
	in.System.Torque = load.Torque
	in.System.VDot = vdot
	in.System.WDot = wdot

	return vehicle.System{R: sys.V, Q: vehicle.Rate(w), V: vdot, W: wdot}, nil
}

// Coast predicts next from prev by one configured step of constant velocity
// and body rate, integrating object mass flows. It returns the time advance.
func Coast(size int, cfg *vehicle.Config, prev, next *vehicle.State, in *vehicle.Input) (float64, error) {
	if err := dynamo.Capacity(size); err != nil {
		return 0, err
	}
	dt := cfg.Clock.Step
	var objs [vehicle.NMax]vehicle.Object
	for i := 0; i < size; i++ {
		p := prev.Objects[i]
		m := p.Mass + in.Objects[i].MassFlow*dt
		if m < 0 {
			return 0, fmt.Errorf("coast: object %d mass %g: %w", i, m, dynamo.ErrDegenerateInput)
		}
		objs[i] = p
		objs[i].Mass = m
		objs[i].Inertia = scaleInertia(p.Inertia, m, p.Mass)
	}

	next.Clock.T = prev.Clock.T + dt
	next.System = vehicle.System{
		R: prev.System.R.Add(prev.System.V.Scale(dt)),
		Q: prev.System.Q.Mul(linalg.Exp(prev.System.W.Scale(dt / 2))),
		V: prev.System.V,
		W: prev.System.W,
	}
	copy(next.Objects[:size], objs[:size])
	return dt, nil
}

func scaleInertia(i linalg.Diag, m, m0 float64) linalg.Diag {
	if m0 == 0 {
		return i
	}
	return i.Scale(m / m0)
}

// SolveDelta carries linear and angular momentum across a discrete change of
// the object records from prev to next and writes the resulting velocity and
// body rate into next. It returns the mass properties of next.
func SolveDelta(size int, cfg *vehicle.Config, prev, next *vehicle.State) (vehicle.Output, error) {
	before, err := Aggregate(size, cfg, prev)
	if err != nil {
		return vehicle.Output{}, err
	}
	sys := &prev.System
	p := sys.Q.InvRotate(sys.V).Sub(before.Center.Cross(sys.W)).Scale(before.Mass)
	h := before.Inertia.MulVec(sys.W).Add(before.Center.Cross(p))

	for i := 0; i < size; i++ {
		c := &cfg.Objects[i]
		a, b := &prev.Objects[i], &next.Objects[i]
		dp := c.Attitude.Rotate(b.Momentum.Sub(a.Momentum))
		p = p.Sub(dp)
		h = h.Sub(c.Attitude.Rotate(b.AngularMomentum.Sub(a.AngularMomentum)).Add(c.Position.Cross(dp)))
	}

	after, err := Aggregate(size, cfg, next)
	if err != nil {
		return vehicle.Output{}, err
	}
	inv, err := after.Inertia.Inv()
	if err != nil {
		return vehicle.Output{}, fmt.Errorf("delta: inertia: %w", err)
	}
	w := inv.MulVec(h.Sub(after.Center.Cross(p)))
	next.System.W = w
	next.System.V = next.System.Q.Rotate(p.Scale(1 / after.Mass).Add(after.Center.Cross(w)))
	return after, nil
}
