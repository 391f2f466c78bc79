package linalg

import (
	"gonum.org/v1/gonum/floats"
)

// PolyMaxDeg bounds the degree of a Poly.
const PolyMaxDeg = 5

// Poly is a real polynomial Σ Coeff[i] xⁱ of degree Deg.
type Poly struct {
	Deg   int
	Coeff [PolyMaxDeg + 1]float64
}

// NewPoly builds a polynomial from ascending coefficients, trimming
// trailing zeros.
func NewPoly(coeff ...float64) (Poly, error) {
	if len(coeff) > PolyMaxDeg+1 {
		return Poly{}, ErrDegree
	}
	var p Poly
	copy(p.Coeff[:], coeff)
	p.Deg = len(coeff) - 1
	return p.trim(), nil
}

func (p Poly) trim() Poly {
	for p.Deg > 0 && p.Coeff[p.Deg] == 0 {
		p.Deg--
	}
	if p.Deg < 0 {
		p.Deg = 0
	}
	return p
}

func (p Poly) IsZero() bool { return p.trim().Deg == 0 && p.Coeff[0] == 0 }

func (p Poly) Add(q Poly) Poly {
	floats.Add(p.Coeff[:], q.Coeff[:])
	p.Deg = max(p.Deg, q.Deg)
	return p.trim()
}

func (p Poly) Sub(q Poly) Poly {
	floats.Sub(p.Coeff[:], q.Coeff[:])
	p.Deg = max(p.Deg, q.Deg)
	return p.trim()
}

func (p Poly) Scale(s float64) Poly {
	floats.Scale(s, p.Coeff[:])
	return p.trim()
}

// Mul fails with ErrDegree when the product would exceed PolyMaxDeg.
func (p Poly) Mul(q Poly) (Poly, error) {
	p, q = p.trim(), q.trim()
	if p.IsZero() || q.IsZero() {
		return Poly{}, nil
	}
	if p.Deg+q.Deg > PolyMaxDeg {
		return Poly{}, ErrDegree
	}
	var out Poly
	out.Deg = p.Deg + q.Deg
	for i := 0; i <= p.Deg; i++ {
		for j := 0; j <= q.Deg; j++ {
			out.Coeff[i+j] += p.Coeff[i] * q.Coeff[j]
		}
	}
	return out.trim(), nil
}

// Div returns the quotient and remainder of p / d.
func (p Poly) Div(d Poly) (quo, rem Poly, err error) {
	d = d.trim()
	if d.IsZero() {
		return Poly{}, Poly{}, ErrDivideByZero
	}
	rem = p.trim()
	lead := d.Coeff[d.Deg]
	for !rem.IsZero() && rem.Deg >= d.Deg {
		shift := rem.Deg - d.Deg
		c := rem.Coeff[rem.Deg] / lead
		quo.Coeff[shift] = c
		quo.Deg = max(quo.Deg, shift)
		for i := 0; i <= d.Deg; i++ {
			rem.Coeff[i+shift] -= c * d.Coeff[i]
		}
		rem.Coeff[rem.Deg] = 0
		if rem.Deg == 0 {
			break
		}
		rem.Deg--
		rem = rem.trim()
	}
	return quo.trim(), rem.trim(), nil
}

// Diff returns dp/dx.
func (p Poly) Diff() Poly {
	var out Poly
	for i := 1; i <= p.Deg; i++ {
		out.Coeff[i-1] = float64(i) * p.Coeff[i]
	}
	out.Deg = max(p.Deg-1, 0)
	return out.trim()
}

// Int returns the antiderivative with zero constant term.
func (p Poly) Int() (Poly, error) {
	p = p.trim()
	if p.IsZero() {
		return Poly{}, nil
	}
	if p.Deg+1 > PolyMaxDeg {
		return Poly{}, ErrDegree
	}
	var out Poly
	for i := 0; i <= p.Deg; i++ {
		out.Coeff[i+1] = p.Coeff[i] / float64(i+1)
	}
	out.Deg = p.Deg + 1
	return out, nil
}

// Eval evaluates p at x by Horner's rule.
func (p Poly) Eval(x float64) float64 {
	y := 0.0
	for i := p.Deg; i >= 0; i-- {
		y = y*x + p.Coeff[i]
	}
	return y
}
