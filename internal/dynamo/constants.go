package dynamo

import "math"

// NMax is the fixed capacity of every per-object array.
const NMax = 16

// Implicit solver and step controller limits.
const (
	MaxIter = 50
	AbsTol  = 1.48e-8
	RelTol  = 1.22e-4
)

const (
	ArcMin = math.Pi / 180 / 2 / 60
	ArcSec = ArcMin / 60
)

// Tolerance holds per-block error weights for the generalized state
// (position, attitude, velocity, angular velocity).
type Tolerance struct {
	R, Q, V, W float64
}

// Scale returns the tolerance of the 13-component layout at index i.
func (t Tolerance) Scale(i int) float64 {
	switch {
	case i < 3:
		return t.R
	case i < 7:
		return t.Q
	case i < 10:
		return t.V
	default:
		return t.W
	}
}

// DefaultTolerance is the step controller's error budget.
var DefaultTolerance = struct {
	Abs, Rel Tolerance
}{
	Abs: Tolerance{R: 1e-3, Q: ArcMin / 2, V: 1e-3, W: ArcMin},
	Rel: Tolerance{R: 1e-9, Q: ArcSec / 2, V: 1e-6, W: ArcSec},
}
