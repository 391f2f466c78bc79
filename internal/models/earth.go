// Package models holds the environmental force models of the composite:
// Earth gravity (point mass and geopotential), the geomagnetic dipole, the
// Lorentz load of charges and dipoles, and standard-atmosphere drag.
package models

import (
	"fmt"
	"math"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
)

const (
	Mu            = 3.986004415e14
	RadiusEquator = 6378136.3
	RadiusPolar   = 6356766.0
	InvFlattening = 298.4579673659263
)

// GMST polynomial in Julian centuries since J2000, degrees.
var gmst0 = linalg.Poly{Deg: 3, Coeff: [linalg.PolyMaxDeg + 1]float64{
	100.4606184,
	36000.77004,
	0.000387933,
	-2.583e-8,
}}

// GMST returns the Greenwich mean sidereal angle in degrees at Unix time t,
// unreduced.
func GMST(t float64) float64 {
	jd := t/86400 + 2440587.5
	j0 := math.Floor(jd+0.5) - 0.5
	ut := 24 * (jd - j0)
	t0 := (j0 - 2451545) / 36525
	return gmst0.Eval(t0) + (360.98564724/24)*ut
}

// EarthRotation returns the inertial-to-Earth-fixed rotation at Unix time t.
func EarthRotation(t float64) linalg.Quat {
	return linalg.Exp(linalg.Vec{0, 0, 0.5 * GMST(t) * math.Pi / 180})
}

// Geodetic converts an Earth-fixed position to geodetic latitude, longitude
// (radians) and altitude (metres) by Newton iteration on the ellipsoid.
func Geodetic(r linalg.Vec) (lat, lon, alt float64, err error) {
	p2 := r[0]*r[0] + r[1]*r[1]
	z2 := r[2] * r[2]
	if p2+z2 < dynamo.AbsTol*dynamo.AbsTol {
		return 0, 0, 0, fmt.Errorf("geodetic: position at origin: %w", dynamo.ErrDomainViolation)
	}
	p := math.Sqrt(p2)
	e2 := (2 - 1/InvFlattening) / InvFlattening
	ae2 := RadiusEquator * e2
	invK0 := (1 - 1/InvFlattening) * (1 - 1/InvFlattening)
	k := 1 / invK0

	done := false
	for n := 0; n < dynamo.MaxIter; n++ {
		c := math.Pow(p2+invK0*z2*k*k, 1.5) / ae2
		dk := (c+invK0*z2*k*k*k)/(c-p2) - k
		k += dk
		if done = math.Abs(dk) < dynamo.AbsTol+dynamo.RelTol*math.Abs(k); done {
			break
		}
	}
	if !done {
		return 0, 0, 0, fmt.Errorf("geodetic: %w", dynamo.ErrConvergence)
	}

	lat = math.Atan(k * r[2] / p)
	lon = math.Atan2(r[1], r[0])
	alt = (1/k - invK0) * math.Sqrt(p2+z2*k*k) / e2
	return lat, lon, alt, nil
}

// fixedPosition returns the Earth-fixed position of the centre of mass and
// the rotation used to reach it.
func fixedPosition(t float64, r linalg.Vec) (linalg.Vec, linalg.Quat) {
	qf := EarthRotation(t)
	return qf.InvRotate(r), qf
}
