package linalg

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quat is a quaternion stored as (w, x, y, z).
type Quat [4]float64

func One() Quat { return Quat{1, 0, 0, 0} }

func (q Quat) num() quat.Number {
	return quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
}

func fromNum(n quat.Number) Quat { return Quat{n.Real, n.Imag, n.Jmag, n.Kmag} }

func pure(u Vec) quat.Number { return quat.Number{Imag: u[0], Jmag: u[1], Kmag: u[2]} }

// Vector returns the imaginary part.
func (q Quat) Vector() Vec { return Vec{q[1], q[2], q[3]} }

func (q Quat) Add(p Quat) Quat { return fromNum(quat.Add(q.num(), p.num())) }

func (q Quat) Scale(s float64) Quat { return fromNum(quat.Scale(s, q.num())) }

func (q Quat) Mul(p Quat) Quat { return fromNum(quat.Mul(q.num(), p.num())) }

func (q Quat) Conj() Quat { return fromNum(quat.Conj(q.num())) }

func (q Quat) Norm() float64 { return quat.Abs(q.num()) }

// Unit returns q scaled to unit norm.
func (q Quat) Unit() (Quat, error) {
	n := q.Norm()
	if n == 0 {
		return Quat{}, ErrDivideByZero
	}
	return q.Scale(1 / n), nil
}

// Rotate returns the vector part of q u q*.
func (q Quat) Rotate(u Vec) Vec {
	n := q.num()
	r := quat.Mul(quat.Mul(n, pure(u)), quat.Conj(n))
	return Vec{r.Imag, r.Jmag, r.Kmag}
}

// InvRotate returns the vector part of q* u q.
func (q Quat) InvRotate(u Vec) Vec {
	return q.Conj().Rotate(u)
}

// Exp returns (cos|v|, sin|v| v̂). There is no half-angle factor: a rotation
// by θ about n is Exp(n θ/2).
func Exp(v Vec) Quat { return fromNum(quat.Exp(pure(v))) }

// Log is the inverse of Exp on unit quaternions.
func (q Quat) Log() Vec {
	if q[1] == 0 && q[2] == 0 && q[3] == 0 {
		return Vec{}
	}
	l := quat.Log(q.num())
	return Vec{l.Imag, l.Jmag, l.Kmag}
}

// Pow returns q^t.
func (q Quat) Pow(t float64) Quat {
	if q[1] == 0 && q[2] == 0 && q[3] == 0 {
		if q[0] < 0 {
			return q
		}
		return Quat{math.Pow(q[0], t), 0, 0, 0}
	}
	return fromNum(quat.PowReal(q.num(), t))
}

// Mat returns the rotation matrix R with R u == q.Rotate(u) for unit q.
func (q Quat) Mat() Mat {
	w, x, y, z := q[0], q[1], q[2], q[3]
	return Mat{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
}
