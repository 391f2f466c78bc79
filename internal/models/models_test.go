package models

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

const j2 = 1.0826266835531513e-3

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func vehicleAt(t *testing.T, r, v linalg.Vec) *vehicle.Vehicle {
	t.Helper()
	veh, err := vehicle.New(1)
	if err != nil {
		t.Fatal(err)
	}
	veh.State.Clock.T = 946728000
	veh.State.System.R = r
	veh.State.System.V = v
	veh.State.Objects[0].Mass = 1
	veh.State.Objects[0].Inertia = linalg.Diag{1, 1, 1}
	veh.Config.Objects[0].Box = linalg.Diag{1, 2, 3}
	return veh
}

func TestGMST(t *testing.T) {
	theta := math.Mod(GMST(946728000), 360)
	if !near(theta, 280.46, 0.01) {
		t.Errorf("expected GMST 280.46 deg at J2000, got %f", theta)
	}

	q := EarthRotation(946728000)
	x := q.Rotate(linalg.Vec{1, 0, 0})
	rad := theta * math.Pi / 180
	if !near(x[0], math.Cos(rad), 1e-9) || !near(x[1], math.Sin(rad), 1e-9) || !near(x[2], 0, 1e-12) {
		t.Errorf("unexpected rotated axis %v", x)
	}
}

func TestGeodetic(t *testing.T) {
	polar := RadiusEquator * (1 - 1/InvFlattening)
	tests := []struct {
		name     string
		r        linalg.Vec
		lat, alt float64
	}{
		{"equator", linalg.Vec{RadiusEquator + 1000, 0, 0}, 0, 1000},
		{"equator_y", linalg.Vec{0, RadiusEquator + 400e3, 0}, 0, 400e3},
		{"north_pole", linalg.Vec{0, 0, polar + 500}, math.Pi / 2, 500},
		{"south_pole", linalg.Vec{0, 0, -polar - 500}, -math.Pi / 2, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, _, alt, err := Geodetic(tt.r)
			if err != nil {
				t.Fatal(err)
			}
			if !near(lat, tt.lat, 1e-9) {
				t.Errorf("expected latitude %f, got %f", tt.lat, lat)
			}
			if !near(alt, tt.alt, 1e-3) {
				t.Errorf("expected altitude %f, got %f", tt.alt, alt)
			}
		})
	}

	if _, _, _, err := Geodetic(linalg.Vec{}); !errors.Is(err, dynamo.ErrDomainViolation) {
		t.Errorf("expected domain violation at origin, got %v", err)
	}
}

func TestStandardAtmosphere(t *testing.T) {
	air, err := StandardAtmosphere(0)
	if err != nil {
		t.Fatal(err)
	}
	if !near(air.Density, 1.225, 1e-3) || air.Temperature != SeaTemp || air.Pressure != SeaPressure {
		t.Errorf("unexpected sea level %+v", air)
	}

	// 11 km geopotential
	z := RadiusPolar * 11e3 / (RadiusPolar - 11e3)
	air, err = StandardAtmosphere(z)
	if err != nil {
		t.Fatal(err)
	}
	if !near(air.Pressure, 22632, 1) {
		t.Errorf("expected 22632 Pa at tropopause, got %f", air.Pressure)
	}
	if !near(air.Density, 0.3639, 1e-3) {
		t.Errorf("expected 0.3639 kg/m3 at tropopause, got %f", air.Density)
	}
	if !near(air.Temperature, 216.65, 1e-9) {
		t.Errorf("expected 216.65 K at tropopause, got %f", air.Temperature)
	}

	for i, zk := range upperZ {
		air, err := StandardAtmosphere(zk)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(air.Density/upperRho[i]-1) > 1e-9 {
			t.Errorf("density at knot %g: expected %g, got %g", zk, upperRho[i], air.Density)
		}
	}

	low, _ := StandardAtmosphere(86e3 - 1)
	if math.Abs(low.Pressure/upperP[0]-1) > 0.02 {
		t.Errorf("pressure discontinuity at 86 km: %g vs %g", low.Pressure, upperP[0])
	}

	if _, err := StandardAtmosphere(1001e3); !errors.Is(err, dynamo.ErrDomainViolation) {
		t.Errorf("expected domain violation above ceiling, got %v", err)
	}
}

func TestPointMass(t *testing.T) {
	r := 7000e3
	veh := vehicleAt(t, linalg.Vec{r, 0, 0}, linalg.Vec{})
	out := vehicle.Output{Mass: 2, Inertia: linalg.Identity()}

	g := NewPointMass()
	if err := g.Apply(1, &veh.Config, &veh.State, &veh.Input, &out, &veh.EM); err != nil {
		t.Fatal(err)
	}
	f := veh.Input.System.Force
	if math.Abs(f[0]/(-2*Mu/(r*r))-1) > 1e-12 || f[1] != 0 || f[2] != 0 {
		t.Errorf("unexpected gravity force %v", f)
	}
	if veh.Input.System.Torque.Norm() > 1e-12 {
		t.Errorf("expected no torque on a symmetric body, got %v", veh.Input.System.Torque)
	}
}

func TestGravityGradient(t *testing.T) {
	r := 7000e3
	veh := vehicleAt(t, linalg.Vec{r / math.Sqrt2, r / math.Sqrt2, 0}, linalg.Vec{})
	out := vehicle.Output{Mass: 1, Inertia: linalg.DiagMat(linalg.Vec{1, 2, 3})}

	if err := NewPointMass().Apply(1, &veh.Config, &veh.State, &veh.Input, &out, &veh.EM); err != nil {
		t.Fatal(err)
	}
	m := veh.Input.System.Torque
	want := 1.5 * Mu / (r * r * r)
	if math.Abs(m[2]/want-1) > 1e-9 || math.Abs(m[0]) > 1e-20 || math.Abs(m[1]) > 1e-20 {
		t.Errorf("expected gradient torque (0,0,%g), got %v", want, m)
	}
}

func TestPointMassOrigin(t *testing.T) {
	veh := vehicleAt(t, linalg.Vec{}, linalg.Vec{})
	out := vehicle.Output{Mass: 1, Inertia: linalg.Identity()}
	err := NewPointMass().Apply(1, &veh.Config, &veh.State, &veh.Input, &out, &veh.EM)
	if !errors.Is(err, dynamo.ErrDomainViolation) {
		t.Errorf("expected domain violation, got %v", err)
	}
}

func TestGeopotentialOblateness(t *testing.T) {
	g := Mu / (RadiusEquator * RadiusEquator)

	f, err := geopotential(Mu, 1, linalg.Vec{RadiusEquator, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if f[0] >= 0 || math.Abs(f[0]/(-1.5*j2*g)-1) > 0.03 {
		t.Errorf("expected extra inward pull ~%g at the equator, got %v", -1.5*j2*g, f)
	}

	f, err = geopotential(Mu, 1, linalg.Vec{0, 0, RadiusEquator})
	if err != nil {
		t.Fatal(err)
	}
	if f[2] <= 0 || math.Abs(f[2]/(3*j2*g)-1) > 0.03 {
		t.Errorf("expected outward push ~%g at the pole, got %v", 3*j2*g, f)
	}
	if !f.IsFinite() {
		t.Errorf("expected finite force on the polar axis, got %v", f)
	}
}

func TestGeopotentialApply(t *testing.T) {
	veh := vehicleAt(t, linalg.Vec{RadiusEquator + 500e3, 0, 0}, linalg.Vec{})
	out := vehicle.Output{Mass: 1, Inertia: linalg.Identity()}
	if err := NewGeopotential().Apply(1, &veh.Config, &veh.State, &veh.Input, &out, &veh.EM); err != nil {
		t.Fatal(err)
	}
	if veh.Input.System.Force[0] >= 0 {
		t.Errorf("expected inward oblateness force over the equator, got %v", veh.Input.System.Force)
	}
}

func TestDipoleField(t *testing.T) {
	tests := []struct {
		name string
		r    linalg.Vec
		want linalg.Vec
	}{
		{"north_pole", linalg.Vec{0, 0, RadiusEquator}, linalg.Vec{-G11, -H11, 2 * G10}},
		{"equator", linalg.Vec{RadiusEquator, 0, 0}, linalg.Vec{2 * G11, -H11, -G10}},
		{"equator_far", linalg.Vec{2 * RadiusEquator, 0, 0}, linalg.Vec{2 * G11 / 8, -H11 / 8, -G10 / 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := dipoleField(tt.r)
			if err != nil {
				t.Fatal(err)
			}
			if b.Sub(tt.want).Norm() > 1e-15 {
				t.Errorf("expected %v, got %v", tt.want, b)
			}
		})
	}
}

func TestGeomagneticApply(t *testing.T) {
	r := linalg.Vec{RadiusEquator + 500e3, 0, 0}
	veh := vehicleAt(t, r, linalg.Vec{})
	out := vehicle.Output{Mass: 1, Inertia: linalg.Identity()}
	if err := NewGeomagnetic().Apply(1, &veh.Config, &veh.State, &veh.Input, &out, &veh.EM); err != nil {
		t.Fatal(err)
	}
	want, _ := dipoleField(EarthRotation(veh.State.Clock.T).InvRotate(r))
	if !near(veh.EM.System.B.Norm(), want.Norm(), 1e-15) {
		t.Errorf("expected |B| %g, got %g", want.Norm(), veh.EM.System.B.Norm())
	}
}

func TestLorentz(t *testing.T) {
	veh := vehicleAt(t, linalg.Vec{RadiusEquator, 0, 0}, linalg.Vec{0, 1, 0})
	veh.EM.System.Charge = 2
	veh.EM.System.E = linalg.Vec{1, 0, 0}
	veh.EM.System.B = linalg.Vec{0, 0, 1}
	veh.EM.System.MagneticDipole = linalg.Vec{1, 0, 0}

	out := vehicle.Output{Mass: 1, Inertia: linalg.Identity()}
	if err := NewLorentz().Apply(1, &veh.Config, &veh.State, &veh.Input, &out, &veh.EM); err != nil {
		t.Fatal(err)
	}
	if veh.Input.System.Force != (linalg.Vec{4, 0, 0}) {
		t.Errorf("expected force (4,0,0), got %v", veh.Input.System.Force)
	}
	if veh.Input.System.Torque != (linalg.Vec{0, -1, 0}) {
		t.Errorf("expected torque (0,-1,0), got %v", veh.Input.System.Torque)
	}
}

func TestAtmosphereDrag(t *testing.T) {
	speed := 7600.0
	veh := vehicleAt(t, linalg.Vec{RadiusEquator + 400e3, 0, 0}, linalg.Vec{0, speed, 0})
	out := vehicle.Output{Mass: 1, Inertia: linalg.Identity()}
	if err := NewAtmosphere().Apply(1, &veh.Config, &veh.State, &veh.Input, &out, &veh.EM); err != nil {
		t.Fatal(err)
	}

	air, _ := StandardAtmosphere(400e3)
	want := -air.Density * speed * speed * 3
	f := veh.Input.System.Force
	if math.Abs(f[1]/want-1) > 1e-6 || f[0] != 0 || f[2] != 0 {
		t.Errorf("expected drag (0,%g,0), got %v", want, f)
	}
}

func TestAtmosphereCeiling(t *testing.T) {
	veh := vehicleAt(t, linalg.Vec{RadiusEquator + 2000e3, 0, 0}, linalg.Vec{0, 7000, 0})
	out := vehicle.Output{Mass: 1, Inertia: linalg.Identity()}
	if err := NewAtmosphere().Apply(1, &veh.Config, &veh.State, &veh.Input, &out, &veh.EM); err != nil {
		t.Fatal(err)
	}
	if veh.Input.System.Force != (linalg.Vec{}) {
		t.Errorf("expected no drag above the ceiling, got %v", veh.Input.System.Force)
	}
}
