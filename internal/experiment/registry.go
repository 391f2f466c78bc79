package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/epicycle/internal/integrators"
	"github.com/san-kum/epicycle/internal/metrics"
	"github.com/san-kum/epicycle/internal/models"
	"github.com/san-kum/epicycle/internal/physics"
	"github.com/san-kum/epicycle/internal/sim"
)

// AltitudeFloor is the geodetic altitude below which the altitude metric
// counts a sample as a violation.
const AltitudeFloor = 100e3

type Registry struct {
	models map[string]func() physics.ForceModel
}

func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string]func() physics.ForceModel),
	}

	r.models["gravity"] = func() physics.ForceModel { return models.NewPointMass() }
	r.models["geopot"] = func() physics.ForceModel { return models.NewGeopotential() }
	r.models["geomag"] = func() physics.ForceModel { return models.NewGeomagnetic() }
	r.models["em"] = func() physics.ForceModel { return models.NewLorentz() }
	r.models["stdatm"] = func() physics.ForceModel { return models.NewAtmosphere() }

	return r
}

// Register adds or replaces a force model constructor.
func (r *Registry) Register(name string, fn func() physics.ForceModel) {
	r.models[name] = fn
}

func (r *Registry) GetModel(name string) (physics.ForceModel, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (integrators.Method, error) {
	return integrators.Lookup(name)
}

// Engine composes the named force models in order.
func (r *Registry) Engine(names []string) (*physics.Engine, error) {
	fms := make([]physics.ForceModel, 0, len(names))
	for _, name := range names {
		fm, err := r.GetModel(name)
		if err != nil {
			return nil, err
		}
		fms = append(fms, fm)
	}
	return physics.NewEngine(fms...), nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

// DefaultMetrics returns the diagnostics that make sense for the given
// force models. Orbital metrics need a central body.
func (r *Registry) DefaultMetrics(names []string) []sim.Metric {
	out := []sim.Metric{
		metrics.NewQuatNorm(),
		metrics.NewMassBudget(),
	}
	for _, name := range names {
		if name == "gravity" || name == "geopot" {
			out = append(out,
				metrics.NewSpecificEnergy(models.Mu),
				metrics.NewMomentumDrift(),
				metrics.NewAltitude(AltitudeFloor),
			)
			break
		}
	}
	return out
}
