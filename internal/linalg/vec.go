package linalg

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec is a 3-vector.
type Vec [3]float64

func (u Vec) Add(w Vec) Vec { return Vec(mgl64.Vec3(u).Add(mgl64.Vec3(w))) }

func (u Vec) Sub(w Vec) Vec { return Vec(mgl64.Vec3(u).Sub(mgl64.Vec3(w))) }

func (u Vec) Scale(s float64) Vec { return Vec(mgl64.Vec3(u).Mul(s)) }

func (u Vec) Neg() Vec { return Vec{-u[0], -u[1], -u[2]} }

func (u Vec) Dot(w Vec) float64 { return mgl64.Vec3(u).Dot(mgl64.Vec3(w)) }

func (u Vec) Cross(w Vec) Vec { return Vec(mgl64.Vec3(u).Cross(mgl64.Vec3(w))) }

func (u Vec) Norm() float64 { return mgl64.Vec3(u).Len() }

// Unit returns u scaled to unit length.
func (u Vec) Unit() (Vec, error) {
	n := u.Norm()
	if n == 0 {
		return Vec{}, ErrDivideByZero
	}
	return u.Scale(1 / n), nil
}

// CrossMat returns [u×], the matrix with CrossMat(u).MulVec(w) == u.Cross(w).
func (u Vec) CrossMat() Mat {
	return Mat{
		{0, -u[2], u[1]},
		{u[2], 0, -u[0]},
		{-u[1], u[0], 0},
	}
}

// Outer returns u wᵀ.
func (u Vec) Outer(w Vec) Mat {
	return fromMgl(mgl64.Vec3(u).OuterProd3(mgl64.Vec3(w)))
}

func (u Vec) IsFinite() bool {
	for _, x := range u {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Diag is a diagonal 3x3 matrix stored by its diagonal.
type Diag [3]float64

func (d Diag) MulVec(u Vec) Vec { return Vec{d[0] * u[0], d[1] * u[1], d[2] * u[2]} }

func (d Diag) Scale(s float64) Diag { return Diag{d[0] * s, d[1] * s, d[2] * s} }

func (d Diag) Add(e Diag) Diag { return Diag{d[0] + e[0], d[1] + e[1], d[2] + e[2]} }

// Inv fails when any diagonal entry is zero.
func (d Diag) Inv() (Diag, error) {
	if d[0] == 0 || d[1] == 0 || d[2] == 0 {
		return Diag{}, ErrSingular
	}
	return Diag{1 / d[0], 1 / d[1], 1 / d[2]}, nil
}

func (d Diag) Mat() Mat {
	return Mat{{d[0], 0, 0}, {0, d[1], 0}, {0, 0, d[2]}}
}
