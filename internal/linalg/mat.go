package linalg

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Mat is a row-major 3x3 matrix.
type Mat [3][3]float64

func Identity() Mat { return Mat{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} }

// DiagMat returns diag(d[0], d[1], d[2]).
func DiagMat(d Vec) Mat { return Diag(d).Mat() }

func (a Mat) mgl() mgl64.Mat3 {
	return mgl64.Mat3FromRows(mgl64.Vec3(a[0]), mgl64.Vec3(a[1]), mgl64.Vec3(a[2]))
}

func fromMgl(m mgl64.Mat3) Mat {
	r0, r1, r2 := m.Rows()
	return Mat{r0, r1, r2}
}

func (a Mat) Add(b Mat) Mat { return fromMgl(a.mgl().Add(b.mgl())) }

func (a Mat) Sub(b Mat) Mat { return fromMgl(a.mgl().Sub(b.mgl())) }

func (a Mat) Scale(s float64) Mat { return fromMgl(a.mgl().Mul(s)) }

func (a Mat) Mul(b Mat) Mat { return fromMgl(a.mgl().Mul3(b.mgl())) }

func (a Mat) MulVec(u Vec) Vec { return Vec(a.mgl().Mul3x1(mgl64.Vec3(u))) }

func (a Mat) T() Mat { return fromMgl(a.mgl().Transpose()) }

// Inv returns a⁻¹, failing with ErrSingular when a is singular or too badly
// conditioned to invert.
func (a Mat) Inv() (Mat, error) {
	d := mat.NewDense(3, 3, []float64{
		a[0][0], a[0][1], a[0][2],
		a[1][0], a[1][1], a[1][2],
		a[2][0], a[2][1], a[2][2],
	})
	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		return Mat{}, ErrSingular
	}
	var out Mat
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = inv.At(i, j)
		}
	}
	return out, nil
}
