package integrators

import (
	"math"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
)

// State is a point of the integrated manifold that doubles as its own
// tangent type. Add, Sub and Scale combine derivatives linearly; Step is the
// retraction y ⊕ h·k; Lead advances a derivative's position rates by half a
// step of acceleration for velocity Verlet.
type State[S any] interface {
	Add(S) S
	Sub(S) S
	Scale(float64) S
	Step(h float64, k S) S
	Lead(y S, h float64) S
	Vec() linalg.GVec
}

// Func is a right-hand side y' = f(t, y).
type Func[S any] func(t float64, y S) (S, error)

// applyStage composes the stage increments one after another:
// y0 ⊕ a0·h·k0 ⊕ a1·h·k1 ⊕ ...
func applyStage[S State[S]](y0 S, h float64, a []float64, k []S) S {
	y := y0
	for i, ai := range a {
		if math.Abs(ai) < dynamo.AbsTol {
			continue
		}
		y = y.Step(ai*h, k[i])
	}
	return y
}

// blocks of the generalized layout checked independently for convergence.
var blocks = [4][2]int{{0, 3}, {3, 7}, {7, 10}, {10, 13}}

func blockNorm(g linalg.GVec, lo, hi int) float64 {
	s := 0.0
	for i := lo; i < hi; i++ {
		s += g[i] * g[i]
	}
	return math.Sqrt(s)
}

// settled reports whether a fixed-point update dk of stage derivative k is
// within AbsTol + RelTol·|k| in every block.
func settled(dk, k linalg.GVec) bool {
	for _, b := range blocks {
		if !(blockNorm(dk, b[0], b[1]) < dynamo.AbsTol+dynamo.RelTol*blockNorm(k, b[0], b[1])) {
			return false
		}
	}
	return true
}
