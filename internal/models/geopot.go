package models

import (
	"math"

	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// Degree and order of the geopotential expansion.
const Degree = 4

// Fully normalized Stokes coefficients {C, S} indexed n(n+1)/2+m.
var stokes = [(Degree + 1) * (Degree + 2) / 2][2]float64{
	{0, 0},
	{0, 0}, {0, 0},
	{-0.484165371736e-03, 0}, {-0.186987635955e-09, 0.119528012031e-08}, {0.243914352398e-05, -0.140016683654e-05},
	{0.957254173792e-06, 0}, {0.202998882184e-05, 0.248513158716e-06}, {0.904627768605e-06, -0.619025944205e-06}, {0.721072657057e-06, 0.141435626958e-05},
	{0.539873863789e-06, 0}, {-0.536321616971e-06, -0.473440265853e-06}, {0.350694105785e-06, 0.662671572540e-06}, {0.990771803829e-06, -0.200928369177e-06}, {-0.188560802735e-06, 0.308853169333e-06},
}

func nm(n, m int) int { return n*(n+1)/2 + m }

// legendre fills p with fully normalized associated Legendre functions of
// sin(latitude) up to Degree, without the Condon-Shortley phase.
func legendre(s, c float64, p *[(Degree + 2) * (Degree + 3) / 2]float64) {
	p[0] = 1
	for m := 1; m <= Degree+1; m++ {
		f := math.Sqrt(float64(2*m+1) / float64(2*m))
		if m == 1 {
			f = math.Sqrt(3)
		}
		p[nm(m, m)] = f * c * p[nm(m-1, m-1)]
	}
	for m := 0; m <= Degree+1; m++ {
		for n := m + 1; n <= Degree+1; n++ {
			a := math.Sqrt(float64((2*n-1)*(2*n+1)) / float64((n-m)*(n+m)))
			v := a * s * p[nm(n-1, m)]
			if n-2 >= m {
				b := math.Sqrt(float64((2*n+1)*(n+m-1)*(n-m-1)) / float64((n-m)*(n+m)*(2*n-3)))
				v -= b * p[nm(n-2, m)]
			}
			p[nm(n, m)] = v
		}
	}
}

// spherical splits an Earth-fixed position into radius, the sine and cosine
// of latitude and of longitude. On the polar axis the longitude is taken as 0
// and the latitude cosine is floored so the expansion stays finite.
func spherical(r linalg.Vec) (rad, sphi, cphi, slam, clam float64) {
	rad = r.Norm()
	rho := math.Hypot(r[0], r[1])
	sphi = r[2] / rad
	clam, slam = 1, 0
	if rho > 0 {
		clam, slam = r[0]/rho, r[1]/rho
	}
	cphi = math.Max(rho/rad, 1e-12)
	return
}

// geopotential returns the Earth-fixed force of the n >= 2 terms of the
// gravity field on mass m at r.
func geopotential(mu, m float64, r linalg.Vec) (linalg.Vec, error) {
	if _, _, err := inverseSquare(mu, r); err != nil {
		return linalg.Vec{}, err
	}
	rad, sphi, cphi, slam, clam := spherical(r)

	var p [(Degree + 2) * (Degree + 3) / 2]float64
	legendre(sphi, cphi, &p)

	var cm, sm [Degree + 1]float64
	cm[0] = 1
	for k := 1; k <= Degree; k++ {
		cm[k] = clam*cm[k-1] - slam*sm[k-1]
		sm[k] = slam*cm[k-1] + clam*sm[k-1]
	}

	// Radial, latitude and longitude gradient sums in units of mu/r².
	var dr, dphi, dlam float64
	tphi := sphi / cphi
	ratio := RadiusEquator / rad
	scale := ratio
	for n := 2; n <= Degree; n++ {
		scale *= ratio
		for k := 0; k <= n; k++ {
			cs, ss := stokes[nm(n, k)][0], stokes[nm(n, k)][1]
			t := cs*cm[k] + ss*sm[k]
			u := ss*cm[k] - cs*sm[k]
			pn := p[nm(n, k)]

			norm := float64((n - k) * (n + k + 1))
			if k == 0 {
				norm /= 2
			}
			dp := math.Sqrt(norm)*p[nm(n, k+1)] - float64(k)*tphi*pn

			dr -= float64(n+1) * scale * pn * t
			dphi += scale * dp * t
			dlam += scale * float64(k) * pn / cphi * u
		}
	}

	g := mu * m / (rad * rad)
	fr, fphi, flam := g*dr, g*dphi, g*dlam
	horiz := fr*cphi - fphi*sphi
	return linalg.Vec{
		horiz*clam - flam*slam,
		horiz*slam + flam*clam,
		fr*sphi + fphi*cphi,
	}, nil
}

// Geopotential adds the non-central terms of the Earth's gravity field up to
// degree and order 4, evaluated in the Earth-fixed frame.
type Geopotential struct {
	Mu float64
}

func NewGeopotential() *Geopotential {
	return &Geopotential{Mu: Mu}
}

func (g *Geopotential) Name() string { return "geopot" }

func (g *Geopotential) Apply(size int, cfg *vehicle.Config, st *vehicle.State, in *vehicle.Input, out *vehicle.Output, em *vehicle.EM) error {
	sys := &st.System
	rf, qf := fixedPosition(st.Clock.T, sys.R.Add(sys.Q.Rotate(out.Center)))
	f, err := geopotential(g.Mu, out.Mass, rf)
	if err != nil {
		return err
	}
	f = qf.Rotate(f)
	in.System.Force = in.System.Force.Add(f)
	in.System.Torque = in.System.Torque.Add(out.Center.Cross(sys.Q.InvRotate(f)))
	return nil
}
