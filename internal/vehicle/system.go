package vehicle

import "github.com/san-kum/epicycle/internal/linalg"

// A System value doubles as its own time derivative. In a derivative R and
// V hold ṙ and v̇, W holds ω̇, and Q holds the body-frame tangent (0, ω/2) so
// that q̇ = q ∘ Q.

func (s System) Add(o System) System {
	return System{R: s.R.Add(o.R), Q: s.Q.Add(o.Q), V: s.V.Add(o.V), W: s.W.Add(o.W)}
}

func (s System) Sub(o System) System {
	return System{R: s.R.Sub(o.R), Q: s.Q.Add(o.Q.Scale(-1)), V: s.V.Sub(o.V), W: s.W.Sub(o.W)}
}

func (s System) Scale(h float64) System {
	return System{R: s.R.Scale(h), Q: s.Q.Scale(h), V: s.V.Scale(h), W: s.W.Scale(h)}
}

// Step returns s advanced by h along the derivative k. The attitude moves on
// the unit sphere: q ⊗ exp(h·tangent).
func (s System) Step(h float64, k System) System {
	return System{
		R: s.R.Add(k.R.Scale(h)),
		Q: s.Q.Mul(linalg.Exp(k.Q.Vector().Scale(h))),
		V: s.V.Add(k.V.Scale(h)),
		W: s.W.Add(k.W.Scale(h)),
	}
}

// Lead returns the derivative s with its position and attitude rates led by
// half a step of acceleration.
func (s System) Lead(_ System, h float64) System {
	out := s
	out.R = s.R.Add(s.V.Scale(h / 2))
	tangent := s.Q.Vector().Add(s.W.Scale(h / 4))
	out.Q = linalg.Quat{0, tangent[0], tangent[1], tangent[2]}
	return out
}

func (s System) Vec() linalg.GVec { return linalg.Join(s.R, s.Q, s.V, s.W) }

func SystemFromVec(g linalg.GVec) System {
	return System{R: g.R(), Q: g.Q(), V: g.V(), W: g.W()}
}

// Rate returns the attitude tangent stored in a derivative for body rate w.
func Rate(w linalg.Vec) linalg.Quat {
	return linalg.Quat{0, w[0] / 2, w[1] / 2, w[2] / 2}
}
