package models

import (
	"fmt"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// inverseSquare returns |r|² and μ/|r|³ for the body at r.
func inverseSquare(mu float64, r linalg.Vec) (r2, g float64, err error) {
	n := r.Norm()
	if n < dynamo.AbsTol {
		return 0, 0, fmt.Errorf("position at Earth centre: %w", dynamo.ErrDomainViolation)
	}
	return n * n, mu / (n * n * n), nil
}

// PointMass is central gravity acting on the composite as a whole, with the
// gravity-gradient torque of its inertia.
type PointMass struct {
	Mu float64
}

func NewPointMass() *PointMass {
	return &PointMass{Mu: Mu}
}

func (g *PointMass) Name() string { return "gravity" }

func (g *PointMass) Apply(size int, cfg *vehicle.Config, st *vehicle.State, in *vehicle.Input, out *vehicle.Output, em *vehicle.EM) error {
	sys := &st.System
	rb := sys.Q.InvRotate(sys.R).Add(out.Center)
	r2, k, err := inverseSquare(g.Mu, rb)
	if err != nil {
		return err
	}

	f := rb.Scale(-out.Mass * k)
	in.System.Force = in.System.Force.Add(sys.Q.Rotate(f))
	in.System.Torque = in.System.Torque.
		Add(out.Center.Cross(f)).
		Add(rb.Cross(out.Inertia.MulVec(rb)).Scale(3 * k / r2))
	return nil
}
