// Package experiment turns a scenario configuration into a ready vehicle and
// propagator.
package experiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/integrators"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/sim"
	"github.com/san-kum/epicycle/internal/telemetry"
	"github.com/san-kum/epicycle/internal/vehicle"
)

type Experiment struct {
	cfg        *config.Config
	veh        *vehicle.Vehicle
	propagator *sim.Propagator
	metrics    []sim.Metric
}

// New validates cfg and builds the vehicle, the engine and the propagator
// with the registry's default metrics attached.
func New(cfg *config.Config, reg *Registry, log zerolog.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	method, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	engine, err := reg.Engine(cfg.Models)
	if err != nil {
		return nil, err
	}
	veh, err := BuildVehicle(cfg)
	if err != nil {
		return nil, err
	}

	p := sim.New(veh, engine, method)
	p.SetLogger(log)
	if cfg.Adaptive {
		p.SetControl(integrators.DefaultControl())
	}
	counters, err := telemetry.NewCounters(nil, method.Name())
	if err != nil {
		return nil, err
	}
	p.SetCounters(counters)

	e := &Experiment{cfg: cfg, veh: veh, propagator: p}
	for _, m := range reg.DefaultMetrics(cfg.Models) {
		e.metrics = append(e.metrics, m)
		p.AddMetric(m)
	}
	return e, nil
}

func quat(q [4]float64) (linalg.Quat, error) {
	if q == [4]float64{} {
		return linalg.One(), nil
	}
	return linalg.Quat(q).Unit()
}

// BuildVehicle lays the configured objects and initial state into a vehicle
// image. The clock starts at the configured epoch.
func BuildVehicle(cfg *config.Config) (*vehicle.Vehicle, error) {
	v, err := vehicle.New(len(cfg.Objects))
	if err != nil {
		return nil, err
	}
	v.Config.Clock.Step = cfg.Dt
	v.Config.System.Symbol = vehicle.NewSymbol(cfg.Name)

	q, err := quat(cfg.Initial.Q)
	if err != nil {
		return nil, fmt.Errorf("initial attitude: %w", err)
	}
	v.State.Clock.T = cfg.Epoch
	v.State.System = vehicle.System{
		R: linalg.Vec(cfg.Initial.R),
		Q: q,
		V: linalg.Vec(cfg.Initial.V),
		W: linalg.Vec(cfg.Initial.W),
	}

	for i, o := range cfg.Objects {
		att, err := quat(o.Attitude)
		if err != nil {
			return nil, fmt.Errorf("object %d attitude: %w", i, err)
		}
		v.Config.Objects[i] = vehicle.ConfigObject{
			Symbol:   vehicle.NewSymbol(o.Symbol),
			Box:      linalg.Diag(o.Box),
			Position: linalg.Vec(o.Position),
			Attitude: att,
		}
		v.State.Objects[i].Mass = o.Mass
		v.State.Objects[i].Inertia = linalg.Diag(o.Inertia)
		v.EM.Objects[i].Charge = o.Charge
		v.EM.Objects[i].MagneticDipole = linalg.Vec(o.MagneticDipole)
	}
	return v, nil
}

// SimConfig converts the scenario into a run description. Event times are
// offsets from the epoch.
func SimConfig(cfg *config.Config) (sim.Config, error) {
	events := make([]sim.Event, 0, len(cfg.Events))
	for i, spec := range cfg.Events {
		ev, err := spec.Event()
		if err != nil {
			return sim.Config{}, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, sim.Event{Time: cfg.Epoch + spec.Time, Object: spec.Object, Change: ev})
	}
	return sim.Config{
		Duration:      cfg.Duration,
		Sample:        cfg.Sample,
		Events:        events,
		ValidateState: true,
	}, nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	simCfg, err := SimConfig(e.cfg)
	if err != nil {
		return nil, err
	}
	return e.propagator.Run(ctx, simCfg)
}

// Stream runs the scenario, handing each sample to fn.
func (e *Experiment) Stream(ctx context.Context, fn func(sim.Sample) bool) error {
	simCfg, err := SimConfig(e.cfg)
	if err != nil {
		return err
	}
	return e.propagator.Stream(ctx, simCfg, fn)
}

func (e *Experiment) Config() *config.Config      { return e.cfg }
func (e *Experiment) Vehicle() *vehicle.Vehicle   { return e.veh }
func (e *Experiment) Propagator() *sim.Propagator { return e.propagator }
func (e *Experiment) Metrics() []sim.Metric       { return e.metrics }
