package models

import (
	"fmt"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// First-degree IGRF Gauss coefficients, tesla.
const (
	G10 = -29404.5e-9
	G11 = -1450.7e-9
	H11 = 4652.9e-9
)

// dipoleField returns the Earth-fixed field of the centred dipole at r.
func dipoleField(r linalg.Vec) (linalg.Vec, error) {
	n := r.Norm()
	if n < dynamo.AbsTol {
		return linalg.Vec{}, fmt.Errorf("field at Earth centre: %w", dynamo.ErrDomainViolation)
	}
	g := linalg.Vec{G11, H11, G10}
	u := r.Scale(1 / n)
	k := RadiusEquator / n
	return u.Scale(3 * g.Dot(u)).Sub(g).Scale(k * k * k), nil
}

// Geomagnetic adds the Earth's dipole field at the centre of mass to the
// system magnetic field.
type Geomagnetic struct{}

func NewGeomagnetic() *Geomagnetic { return &Geomagnetic{} }

func (g *Geomagnetic) Name() string { return "geomag" }

func (g *Geomagnetic) Apply(size int, cfg *vehicle.Config, st *vehicle.State, in *vehicle.Input, out *vehicle.Output, em *vehicle.EM) error {
	sys := &st.System
	rf, qf := fixedPosition(st.Clock.T, sys.R.Add(sys.Q.Rotate(out.Center)))
	b, err := dipoleField(rf)
	if err != nil {
		return err
	}
	em.System.B = em.System.B.Add(qf.Rotate(b))
	return nil
}

// Lorentz applies the system field to the aggregated charge and dipoles. It
// reads em.System.E and B, so it runs after the field models.
type Lorentz struct{}

func NewLorentz() *Lorentz { return &Lorentz{} }

func (l *Lorentz) Name() string { return "em" }

func (l *Lorentz) Apply(size int, cfg *vehicle.Config, st *vehicle.State, in *vehicle.Input, out *vehicle.Output, em *vehicle.EM) error {
	sys, f := &st.System, &em.System
	in.System.Force = in.System.Force.Add(f.E.Add(sys.V.Cross(f.B)).Scale(f.Charge))

	e, b := sys.Q.InvRotate(f.E), sys.Q.InvRotate(f.B)
	in.System.Torque = in.System.Torque.
		Add(f.ElectricDipole.Cross(e)).
		Add(f.MagneticDipole.Cross(b))
	return nil
}
