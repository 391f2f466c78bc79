package integrators

import (
	"fmt"

	"github.com/san-kum/epicycle/internal/dynamo"
)

// Step advances y0 by one step of size h. y2 is the embedded estimate and is
// meaningful only when embedded is true.
func Step[S State[S]](m Method, f Func[S], t0 float64, y0 S, h float64) (y1, y2 S, embedded bool, err error) {
	switch m.kind {
	case explicitRK:
		return explicitStep(m, f, t0, y0, h)
	case velocityVerlet:
		y1, err = verletStep(f, t0, y0, h)
		return y1, y2, false, err
	case implicitRK:
		return implicitStep(m, f, t0, y0, h)
	}
	return y1, y2, false, fmt.Errorf("integrator %q: unsupported kind", m.name)
}

func explicitStep[S State[S]](m Method, f Func[S], t0 float64, y0 S, h float64) (y1, y2 S, embedded bool, err error) {
	tab := m.tab
	k := make([]S, len(tab.A)+1)
	if k[0], err = f(t0, y0); err != nil {
		return y1, y2, false, err
	}
	y := y0
	for i, row := range tab.A {
		y = applyStage(y0, h, row, k)
		if k[i+1], err = f(t0+tab.c[i]*h, y); err != nil {
			return y1, y2, false, err
		}
	}

	if tab.b != nil {
		y1 = applyStage(y0, h, tab.b, k)
	} else {
		y1 = y
	}
	if tab.b2 == nil {
		return y1, y2, false, nil
	}
	return y1, applyStage(y0, h, tab.b2, k), true, nil
}

// verletStep is velocity Verlet: positions and attitude advance with the
// half-step lead of the initial acceleration, velocities with the average of
// the accelerations at both ends.
func verletStep[S State[S]](f Func[S], t0 float64, y0 S, h float64) (S, error) {
	var zero S
	k0, err := f(t0, y0)
	if err != nil {
		return zero, err
	}
	drift := y0.Step(h, k0.Lead(y0, h))
	k1, err := f(t0+h, drift)
	if err != nil {
		return zero, err
	}
	return y0.Step(h, k0.Add(k1).Scale(0.5)), nil
}

// implicitStep solves the stage equations k_i = f(t0 + c_i h, y0 ⊕ h Σ a_ij k_j)
// by fixed-point iteration started from k_i = f(t0, y0).
func implicitStep[S State[S]](m Method, f Func[S], t0 float64, y0 S, h float64) (y1, y2 S, embedded bool, err error) {
	tab := m.tab
	k0, err := f(t0, y0)
	if err != nil {
		return y1, y2, false, err
	}
	k := make([]S, len(tab.A))
	for i := range k {
		k[i] = k0
	}

	done := false
	for n := 0; n < dynamo.MaxIter; n++ {
		done = true
		for i, row := range tab.A {
			kn, err := f(t0+tab.c[i]*h, applyStage(y0, h, row, k))
			if err != nil {
				return y1, y2, false, err
			}
			done = settled(kn.Sub(k[i]).Vec(), kn.Vec()) && done
			k[i] = kn
		}
		if n >= 2 && done {
			break
		}
	}
	if !done {
		return y1, y2, false, fmt.Errorf("%s: %d sweeps: %w", m.name, dynamo.MaxIter, dynamo.ErrConvergence)
	}

	y1 = applyStage(y0, h, tab.b, k)
	switch {
	case tab.b2 != nil:
		return y1, applyStage(y0, h, tab.b2, k), true, nil
	case m.predictor:
		return y1, y0.Step(h, k0), true, nil
	}
	return y1, y2, false, nil
}
