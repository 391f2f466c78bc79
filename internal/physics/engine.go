package physics

import (
	"fmt"

	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// ForceModel adds environmental loads or fields to the scratch buffers. Models
// run in order after the mass properties are known; they add to in.System
// (inertial force, body torque) and em.System (inertial E and B).
type ForceModel interface {
	Name() string
	Apply(size int, cfg *vehicle.Config, st *vehicle.State, in *vehicle.Input, out *vehicle.Output, em *vehicle.EM) error
}

// Engine evaluates the composite's state derivative under a fixed list of
// force models. It holds no state between evaluations.
type Engine struct {
	models []ForceModel
}

func NewEngine(models ...ForceModel) *Engine {
	return &Engine{models: models}
}

func (e *Engine) Models() []ForceModel { return e.models }

// Evaluate runs one derivative evaluation at st.
func (e *Engine) Evaluate(size int, cfg *vehicle.Config, st *vehicle.State, in *vehicle.Input, em *vehicle.EM) (vehicle.System, vehicle.Output, error) {
	if err := AggregateEM(size, cfg, em); err != nil {
		return vehicle.System{}, vehicle.Output{}, err
	}
	in.System.Force = linalg.Vec{}
	in.System.Torque = linalg.Vec{}
	em.System.E = linalg.Vec{}
	em.System.B = linalg.Vec{}

	out, err := Aggregate(size, cfg, st)
	if err != nil {
		return vehicle.System{}, vehicle.Output{}, err
	}
	for _, m := range e.models {
		if err := m.Apply(size, cfg, st, in, &out, em); err != nil {
			return vehicle.System{}, out, fmt.Errorf("%s: %w", m.Name(), err)
		}
	}

	load, err := AccumulateLoads(size, cfg, st, in)
	if err != nil {
		return vehicle.System{}, out, err
	}
	k, err := SolveDerivative(st, &out, load, in)
	return k, out, err
}

// Func returns the integrator right-hand side over [prev.T, next.T]. Object
// records are interpolated at each evaluation time.
func (e *Engine) Func(size int, cfg *vehicle.Config, prev, next *vehicle.State, in *vehicle.Input, em *vehicle.EM) func(float64, vehicle.System) (vehicle.System, error) {
	var st vehicle.State
	return func(t float64, y vehicle.System) (vehicle.System, error) {
		st.Clock = vehicle.Clock{N: prev.Clock.N, T: t}
		st.System = y
		if err := InterpolateObjects(size, prev, next, t, &st); err != nil {
			return vehicle.System{}, err
		}
		k, _, err := e.Evaluate(size, cfg, &st, in, em)
		return k, err
	}
}
