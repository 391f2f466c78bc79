package models

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// 1976 standard atmosphere sea-level constants.
const (
	GasConstant  = 8.31432
	SeaGravity   = 9.80665
	MolarMass    = 28.9644e-3
	SeaTemp      = 288.15
	SeaPressure  = 101325.0
	ModelCeiling = 1000e3
)

// Air is the state of the atmosphere at one altitude.
type Air struct {
	Temperature float64 // K
	Pressure    float64 // Pa
	Density     float64 // kg/m³
}

type lapse struct {
	base, top, rate float64
}

var lowerLayers = []lapse{
	{0, 11e3, -6.5e-3},
	{11e3, 20e3, 0},
	{20e3, 32e3, 1e-3},
	{32e3, 47e3, 2.8e-3},
	{47e3, 51e3, 0},
	{51e3, 71e3, -2.8e-3},
	{71e3, RadiusPolar * 86e3 / (RadiusPolar + 86e3), -2e-3},
}

// Upper-atmosphere knots from 86 to 1000 km.
var (
	upperZ = []float64{86e3, 100e3, 115e3, 130e3, 150e3, 175e3, 200e3, 250e3,
		300e3, 400e3, 500e3, 600e3, 700e3, 800e3, 900e3, 1000e3}
	upperP = []float64{3.7338e-1, 3.2011e-2, 4.0096e-3, 1.2505e-3, 4.5422e-4, 1.7936e-4,
		8.4736e-5, 2.4767e-5, 8.7704e-6, 1.4518e-6, 3.0236e-7, 8.2130e-8, 3.1908e-8,
		1.7036e-8, 1.0873e-8, 7.5138e-9}
	upperRho = []float64{6.958e-06, 5.604e-07, 4.289e-08, 8.152e-09, 2.076e-09, 6.339e-10,
		2.541e-10, 6.073e-11, 1.916e-11, 2.803e-12, 5.215e-13, 1.137e-13, 3.070e-14,
		1.136e-14, 5.759e-15, 3.561e-15}
)

var logP, logRho = mustFitLog(upperP), mustFitLog(upperRho)

func mustFitLog(q []float64) *interp.NaturalCubic {
	y := make([]float64, len(q))
	for i, v := range q {
		y[i] = math.Log(v)
	}
	var s interp.NaturalCubic
	if err := s.Fit(upperZ, y); err != nil {
		panic(err)
	}
	return &s
}

// StandardAtmosphere evaluates the 1976 standard atmosphere at geometric
// altitude z. Below 86 km it integrates the layered lapse rates over
// geopotential altitude; above it interpolates the log of the tabulated
// pressure and density.
func StandardAtmosphere(z float64) (Air, error) {
	if z > ModelCeiling {
		return Air{}, fmt.Errorf("atmosphere: altitude %g m: %w", z, dynamo.ErrDomainViolation)
	}
	if z < 86e3 {
		c := SeaGravity * MolarMass / GasConstant
		h := RadiusPolar * z / (RadiusPolar + z)
		air := Air{Temperature: SeaTemp, Pressure: SeaPressure}
		for _, l := range lowerLayers {
			if h <= l.base {
				break
			}
			span := math.Min(h, l.top) - l.base
			if l.rate == 0 {
				air.Pressure *= math.Exp(-c * span / air.Temperature)
				continue
			}
			dt := l.rate * span
			air.Pressure *= math.Pow(air.Temperature/(air.Temperature+dt), c/l.rate)
			air.Temperature += dt
		}
		air.Density = air.Pressure * MolarMass / (GasConstant * air.Temperature)
		return air, nil
	}

	var air Air
	switch {
	case z < 91e3:
		air.Temperature = 186.8673
	case z < 110e3:
		x := (z - 91e3) / -19.9429e3
		air.Temperature = 263.1905 - 76.3232*math.Sqrt(1-x*x)
	case z < 120e3:
		air.Temperature = 240 + 12e-3*(z-110e3)
	default:
		air.Temperature = 1000 - 640*math.Exp(-0.01875e-3*(z-120e3)*(RadiusPolar+120e3)/(RadiusPolar+z))
	}
	air.Pressure = math.Exp(logP.Predict(z))
	air.Density = math.Exp(logRho.Predict(z))
	return air, nil
}

// Atmosphere is aerodynamic drag on each object's bounding box, one flat
// plate per box axis. Above the model ceiling it adds nothing.
type Atmosphere struct{}

func NewAtmosphere() *Atmosphere { return &Atmosphere{} }

func (a *Atmosphere) Name() string { return "stdatm" }

var axes = [3]linalg.Vec{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func (a *Atmosphere) Apply(size int, cfg *vehicle.Config, st *vehicle.State, in *vehicle.Input, out *vehicle.Output, em *vehicle.EM) error {
	sys := &st.System
	_, _, z, err := Geodetic(sys.R)
	if err != nil {
		return err
	}
	air, err := StandardAtmosphere(z)
	if errors.Is(err, dynamo.ErrDomainViolation) {
		return nil
	}
	if err != nil {
		return err
	}

	speed := sys.V.Norm()
	vb := sys.Q.InvRotate(sys.V)
	var total linalg.Vec
	for i := 0; i < size; i++ {
		c := &cfg.Objects[i]
		box := c.Box
		areas := [3]float64{box[1] * box[2], box[2] * box[0], box[0] * box[1]}
		for k, axis := range axes {
			n := c.Attitude.Rotate(axis)
			f := n.Scale(-air.Density * speed * vb.Dot(n) * areas[k])
			total = total.Add(f)
			in.System.Torque = in.System.Torque.Add(c.Position.Cross(f))
		}
	}
	in.System.Force = in.System.Force.Add(sys.Q.Rotate(total))
	return nil
}
