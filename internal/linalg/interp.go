package linalg

// Cubic Hermite and Bezier-in-exponential bases on s ∈ [0, 1], ascending
// coefficients.
var (
	h00 = Poly{Deg: 3, Coeff: [6]float64{1, 0, -3, 2}}
	h10 = Poly{Deg: 3, Coeff: [6]float64{0, 1, -2, 1}}
	h01 = Poly{Deg: 3, Coeff: [6]float64{0, 0, 3, -2}}
	h11 = Poly{Deg: 3, Coeff: [6]float64{0, 0, -1, 1}}

	bz1 = Poly{Deg: 3, Coeff: [6]float64{0, 3, -3, 1}}
	bz2 = Poly{Deg: 3, Coeff: [6]float64{0, 0, 3, -2}}
	bz3 = Poly{Deg: 3, Coeff: [6]float64{0, 0, 0, 1}}
)

func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

func VLerp(a, b Vec, t float64) Vec { return a.Add(b.Sub(a).Scale(t)) }

// Slerp returns q0 (q0* q1)^t.
func Slerp(q0, q1 Quat, t float64) Quat {
	return q0.Mul(q0.Conj().Mul(q1).Pow(t))
}

func param(x0, x1, x float64) (s, dx float64, err error) {
	dx = x1 - x0
	if dx == 0 {
		return 0, 0, ErrDivideByZero
	}
	return (x - x0) / dx, dx, nil
}

// Hermite interpolates a curve through (x0, p0) and (x1, p1) with tangents
// m0, m1 (derivatives with respect to x) and returns the value and
// derivative at x.
func Hermite(x0, x1 float64, p0, m0, p1, m1 Vec, x float64) (Vec, Vec, error) {
	s, dx, err := param(x0, x1, x)
	if err != nil {
		return Vec{}, Vec{}, err
	}
	p := p0.Scale(h00.Eval(s)).
		Add(p1.Scale(h01.Eval(s))).
		Add(m0.Scale(dx * h10.Eval(s))).
		Add(m1.Scale(dx * h11.Eval(s)))
	m := p0.Scale(h00.Diff().Eval(s)).
		Add(p1.Scale(h01.Diff().Eval(s))).
		Scale(1 / dx).
		Add(m0.Scale(h10.Diff().Eval(s))).
		Add(m1.Scale(h11.Diff().Eval(s)))
	return p, m, nil
}

// Squad interpolates an attitude between (x0, q0) and (x1, q1) given the
// body angular velocities w0, w1 at the ends, and returns the attitude and
// body angular velocity at x. The end rates are matched exactly.
func Squad(x0, x1 float64, q0 Quat, w0 Vec, q1 Quat, w1 Vec, x float64) (Quat, Vec, error) {
	s, dx, err := param(x0, x1, x)
	if err != nil {
		return Quat{}, Vec{}, err
	}
	om1 := w0.Scale(dx / 6)
	om3 := w1.Scale(dx / 6)
	om2 := q0.Mul(Exp(om1)).Conj().Mul(q1).Mul(Exp(om3).Conj()).Log()

	e1 := Exp(om1.Scale(bz1.Eval(s)))
	e2 := Exp(om2.Scale(bz2.Eval(s)))
	e3 := Exp(om3.Scale(bz3.Eval(s)))
	q := q0.Mul(e1).Mul(e2).Mul(e3)

	w := e2.InvRotate(om1.Scale(bz1.Diff().Eval(s))).
		Add(om2.Scale(bz2.Diff().Eval(s)))
	w = e3.InvRotate(w).Add(om3.Scale(bz3.Diff().Eval(s)))
	return q, w.Scale(2 / dx), nil
}
