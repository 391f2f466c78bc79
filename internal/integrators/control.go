package integrators

import (
	"math"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
)

// Controller decides whether a step is accepted and proposes the next step
// size from the published solution y1 and the embedded estimate y2.
type Controller interface {
	Adjust(y0, y1, y2 linalg.GVec, order int, h float64) (next float64, accept bool)
}

// StepControl is the mixed absolute/relative error controller.
type StepControl struct {
	Abs, Rel dynamo.Tolerance
}

func DefaultControl() StepControl {
	return StepControl{Abs: dynamo.DefaultTolerance.Abs, Rel: dynamo.DefaultTolerance.Rel}
}

func (c StepControl) Adjust(y0, y1, y2 linalg.GVec, order int, h float64) (float64, bool) {
	return AdjustStep(y0, y1, y2, c.Abs, c.Rel, order, h)
}

// AdjustStep scales h by 0.9·clamp(E^(-1/(q+1)), 0.5, 2) where E is the
// worst weighted error, floored at AbsTol. The step is accepted when E <= 1.
func AdjustStep(y0, y1, y2 linalg.GVec, abs, rel dynamo.Tolerance, q int, h float64) (float64, bool) {
	e := dynamo.AbsTol
	for i := range y1 {
		err := math.Abs(y1[i] - y2[i])
		tol := abs.Scale(i) + rel.Scale(i)*math.Max(math.Abs(y0[i]), math.Abs(y1[i]))
		e = math.Max(e, err/tol)
	}
	scale := math.Max(0.5, math.Min(math.Pow(e, -1/float64(q+1)), 2))
	return h * 0.9 * scale, e <= 1
}
