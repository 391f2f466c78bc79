package linalg

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// GN is the dimension of the generalized state (r, q, v, ω).
const GN = 13

// GVec is the generalized 13-vector laid out as r[0:3], q[3:7], v[7:10], ω[10:13].
type GVec [GN]float64

// Join packs the four blocks into a generalized vector.
func Join(r Vec, q Quat, v, w Vec) GVec {
	var g GVec
	copy(g[0:3], r[:])
	copy(g[3:7], q[:])
	copy(g[7:10], v[:])
	copy(g[10:13], w[:])
	return g
}

func (g GVec) R() Vec  { return Vec{g[0], g[1], g[2]} }
func (g GVec) Q() Quat { return Quat{g[3], g[4], g[5], g[6]} }
func (g GVec) V() Vec  { return Vec{g[7], g[8], g[9]} }
func (g GVec) W() Vec  { return Vec{g[10], g[11], g[12]} }

func (g GVec) Add(h GVec) GVec {
	floats.Add(g[:], h[:])
	return g
}

func (g GVec) Sub(h GVec) GVec {
	floats.Sub(g[:], h[:])
	return g
}

func (g GVec) Scale(s float64) GVec {
	floats.Scale(s, g[:])
	return g
}

func (g GVec) Dot(h GVec) float64 { return floats.Dot(g[:], h[:]) }

func (g GVec) Norm() float64 { return floats.Norm(g[:], 2) }

// Outer returns g hᵀ.
func (g GVec) Outer(h GVec) GMat {
	var m GMat
	for i := range g {
		for j := range h {
			m[i][j] = g[i] * h[j]
		}
	}
	return m
}

// GMat is a 13x13 matrix.
type GMat [GN][GN]float64

func GIdentity() GMat {
	var m GMat
	for i := 0; i < GN; i++ {
		m[i][i] = 1
	}
	return m
}

func (m *GMat) dense() *mat.Dense {
	d := mat.NewDense(GN, GN, nil)
	for i := 0; i < GN; i++ {
		d.SetRow(i, m[i][:])
	}
	return d
}

func fromDense(d *mat.Dense) GMat {
	var m GMat
	for i := 0; i < GN; i++ {
		mat.Row(m[i][:], i, d)
	}
	return m
}

func (m GMat) Add(n GMat) GMat {
	for i := range m {
		floats.Add(m[i][:], n[i][:])
	}
	return m
}

func (m GMat) Scale(s float64) GMat {
	for i := range m {
		floats.Scale(s, m[i][:])
	}
	return m
}

func (m GMat) Mul(n GMat) GMat {
	var out mat.Dense
	out.Mul(m.dense(), n.dense())
	return fromDense(&out)
}

func (m GMat) MulVec(g GVec) GVec {
	var out GVec
	for i := range m {
		out[i] = floats.Dot(m[i][:], g[:])
	}
	return out
}

func (m GMat) Inv() (GMat, error) {
	var inv mat.Dense
	if err := inv.Inverse(m.dense()); err != nil {
		return GMat{}, ErrSingular
	}
	return fromDense(&inv), nil
}

// Step advances g by h along the ambient derivative k and renormalizes the
// attitude block.
func (g GVec) Step(h float64, k GVec) GVec {
	out := g.Add(k.Scale(h))
	if q, err := out.Q().Unit(); err == nil {
		copy(out[3:7], q[:])
	}
	return out
}

// Lead returns the derivative g with the position and attitude rates led by
// half a step of acceleration, evaluated at the attitude of y.
func (g GVec) Lead(y GVec, h float64) GVec {
	out := g
	for i := 0; i < 3; i++ {
		out[i] += h / 2 * g[7+i]
	}
	qd := y.Q().Mul(Quat{0, g[10], g[11], g[12]}).Scale(h / 4)
	for i := 0; i < 4; i++ {
		out[3+i] += qd[i]
	}
	return out
}

func (g GVec) Vec() GVec { return g }
