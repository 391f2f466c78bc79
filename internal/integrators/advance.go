package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/epicycle/internal/dynamo"
)

const defaultMaxSteps = 1_000_000

// Options configure Advance. A zero Step covers the interval in one step
// (fixed methods) or starts the adaptive loop with the whole interval. A nil
// Control runs embedded-capable methods at fixed steps, except for methods
// that are always adaptive, which fall back to DefaultControl.
type Options struct {
	Step     float64
	Control  Controller
	MinStep  float64
	MaxSteps int
}

// Result of an Advance call. Next is the step size proposed for the
// following interval.
type Result[S any] struct {
	Y        S
	T        float64
	Steps    int
	Rejected int
	Next     float64
}

// Advance integrates y0 from t0 to exactly t1. On error the zero Result is
// returned.
func Advance[S State[S]](m Method, f Func[S], t0 float64, y0 S, t1 float64, opts Options) (Result[S], error) {
	span := t1 - t0
	if span < 0 {
		return Result[S]{}, fmt.Errorf("advance: end %g before start %g: %w", t1, t0, dynamo.ErrInvalidState)
	}
	if span == 0 {
		return Result[S]{Y: y0, T: t0, Next: opts.Step}, nil
	}
	h := opts.Step
	if h <= 0 || h > span {
		h = span
	}
	ctrl := opts.Control
	if ctrl == nil && m.adaptive {
		ctrl = DefaultControl()
	}
	if ctrl == nil || !m.Embedded() {
		return advanceFixed(m, f, t0, y0, t1, h)
	}

	minStep := opts.MinStep
	if minStep <= 0 {
		minStep = span * 1e-12
	}
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}

	res := Result[S]{Y: y0, T: t0}
	for res.T < t1 {
		if res.Steps+res.Rejected >= maxSteps {
			return Result[S]{}, fmt.Errorf("%s: %d attempts at t=%g: %w", m.name, maxSteps, res.T, dynamo.ErrStepTooSmall)
		}
		last := res.T+h >= t1
		if last {
			h = t1 - res.T
		}
		y1, y2, _, err := Step(m, f, res.T, res.Y, h)
		if err != nil {
			return Result[S]{}, err
		}
		next, ok := ctrl.Adjust(res.Y.Vec(), y1.Vec(), y2.Vec(), m.order, h)
		if ok {
			res.Y = y1
			res.Steps++
			if last {
				res.T = t1
			} else {
				res.T += h
			}
		} else {
			res.Rejected++
			if next < minStep {
				return Result[S]{}, fmt.Errorf("%s: step %g at t=%g: %w", m.name, next, res.T, dynamo.ErrStepTooSmall)
			}
		}
		h = next
	}
	res.Next = h
	return res, nil
}

func advanceFixed[S State[S]](m Method, f Func[S], t0 float64, y0 S, t1, step float64) (Result[S], error) {
	span := t1 - t0
	n := int(math.Ceil(span/step - 1e-9))
	if n < 1 {
		n = 1
	}
	h := span / float64(n)

	y := y0
	for i := 0; i < n; i++ {
		y1, _, _, err := Step(m, f, t0+float64(i)*h, y, h)
		if err != nil {
			return Result[S]{}, err
		}
		y = y1
	}
	return Result[S]{Y: y, T: t1, Steps: n, Next: step}, nil
}
