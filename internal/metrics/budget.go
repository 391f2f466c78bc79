package metrics

import (
	"math"

	"github.com/san-kum/epicycle/internal/vehicle"
)

// QuatNorm is the worst departure of the attitude quaternion from unit norm.
type QuatNorm struct {
	worst float64
}

func NewQuatNorm() *QuatNorm { return &QuatNorm{} }

func (q *QuatNorm) Name() string { return "quat_norm" }

func (q *QuatNorm) Observe(st *vehicle.State, _ *vehicle.Output) {
	q.worst = math.Max(q.worst, math.Abs(st.System.Q.Norm()-1))
}

func (q *QuatNorm) Value() float64 { return q.worst }
func (q *QuatNorm) Reset()         { q.worst = 0 }

// MassBudget reports the composite mass at the last sample.
type MassBudget struct {
	mass float64
}

func NewMassBudget() *MassBudget { return &MassBudget{} }

func (m *MassBudget) Name() string { return "mass" }

func (m *MassBudget) Observe(_ *vehicle.State, out *vehicle.Output) { m.mass = out.Mass }

func (m *MassBudget) Value() float64 { return m.mass }
func (m *MassBudget) Reset()         { m.mass = 0 }
