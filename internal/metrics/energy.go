// Package metrics holds run diagnostics observed at every sample of a
// propagation.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/epicycle/internal/vehicle"
)

// SpecificEnergy tracks the largest relative drift of the two-body orbital
// energy v²/2 − μ/r from its first observed value.
type SpecificEnergy struct {
	name     string
	mu       float64
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewSpecificEnergy(mu float64) *SpecificEnergy {
	return &SpecificEnergy{
		name: "energy_drift",
		mu:   mu,
	}
}

func (e *SpecificEnergy) Name() string { return e.name }

// Energy is the specific orbital energy of st, or NaN at the origin.
func (e *SpecificEnergy) Energy(st *vehicle.State) float64 {
	r := st.System.R.Norm()
	if r == 0 {
		return math.NaN()
	}
	v := st.System.V
	return 0.5*v.Dot(v) - e.mu/r
}

func (e *SpecificEnergy) Observe(st *vehicle.State, _ *vehicle.Output) {
	energy := e.Energy(st)
	if math.IsNaN(energy) {
		return
	}
	if e.samples == 0 {
		e.initial = energy
	}
	e.current = energy
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *SpecificEnergy) Value() float64 {
	return e.maxDrift
}

func (e *SpecificEnergy) Reset() {
	e.initial = 0
	e.current = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift reports the coefficient of variation of the specific
// angular momentum magnitude |r×v| over the run.
type MomentumDrift struct {
	values []float64
}

func NewMomentumDrift() *MomentumDrift { return &MomentumDrift{} }

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) Observe(st *vehicle.State, _ *vehicle.Output) {
	m.values = append(m.values, st.System.R.Cross(st.System.V).Norm())
}

func (m *MomentumDrift) Value() float64 {
	if len(m.values) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(m.values, nil)
	if mean == 0 {
		return 0
	}
	return std / math.Abs(mean)
}

func (m *MomentumDrift) Reset() { m.values = m.values[:0] }
