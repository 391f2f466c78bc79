// Package sim drives a composite vehicle through time: it integrates between
// accepted steps, interpolates to the requested times and applies discrete
// changes at them.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/integrators"
	"github.com/san-kum/epicycle/internal/physics"
	"github.com/san-kum/epicycle/internal/telemetry"
	"github.com/san-kum/epicycle/internal/vehicle"
)

// Propagator owns the integration bracket of one vehicle. It is not safe for
// concurrent use.
type Propagator struct {
	veh       *vehicle.Vehicle
	engine    *physics.Engine
	method    integrators.Method
	control   integrators.Controller
	log       zerolog.Logger
	counters  *telemetry.Counters
	metrics   []Metric
	observers []Observer

	prev, next vehicle.State
	primed     bool
	rejected   int
	events     int
}

func New(veh *vehicle.Vehicle, engine *physics.Engine, method integrators.Method) *Propagator {
	return &Propagator{
		veh:       veh,
		engine:    engine,
		method:    method,
		log:       zerolog.Nop(),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

// SetControl enables adaptive stepping. The proposed step of each interval
// becomes the vehicle's clock step.
func (p *Propagator) SetControl(c integrators.Controller) { p.control = c }

func (p *Propagator) SetLogger(log zerolog.Logger) {
	p.log = log.With().Str("component", "sim").Str("integrator", p.method.Name()).Logger()
}

func (p *Propagator) SetCounters(c *telemetry.Counters) { p.counters = c }
func (p *Propagator) AddMetric(m Metric)                 { p.metrics = append(p.metrics, m) }
func (p *Propagator) AddObserver(o Observer)             { p.observers = append(p.observers, o) }

func (p *Propagator) Vehicle() *vehicle.Vehicle  { return p.veh }
func (p *Propagator) Method() integrators.Method { return p.method }

func (p *Propagator) adaptive() bool { return p.control != nil || p.method.Adaptive() }

func (p *Propagator) fail(err error) error {
	st := &p.veh.State
	p.log.Error().Err(err).Uint64("n", st.Clock.N).Float64("t", st.Clock.T).Msg("tick failed")
	return &dynamo.SimulationError{Step: st.Clock.N, Time: st.Clock.T, Wrapped: err}
}

// Tick moves the vehicle to its pending change time: it integrates whole
// steps until the bracket covers that time, interpolates the state there and
// applies the pending events. When anything was applied the momentum jump is
// solved and the bracket restarts from the new state.
func (p *Propagator) Tick(ctx context.Context) error {
	v := p.veh
	target := v.Change.Time
	if target < v.State.Clock.T {
		return p.fail(fmt.Errorf("change at t=%g precedes state at t=%g: %w", target, v.State.Clock.T, dynamo.ErrInvalidState))
	}
	if v.Config.Clock.Step <= 0 {
		return p.fail(fmt.Errorf("clock step %g: %w", v.Config.Clock.Step, dynamo.ErrInvalidState))
	}
	if !p.primed {
		p.prev, p.next = v.State, v.State
		p.primed = true
	}

	for target > p.next.Clock.T {
		if err := ctx.Err(); err != nil {
			return p.fail(fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err))
		}
		if err := p.advance(ctx); err != nil {
			return p.fail(err)
		}
	}

	curr := p.next
	if target < p.next.Clock.T && p.next.Clock.T > p.prev.Clock.T {
		if err := physics.InterpolateState(v.Size, &p.prev, &p.next, target, &curr); err != nil {
			return p.fail(err)
		}
	}
	curr.Clock.N = max(v.State.Clock.N+1, p.next.Clock.N)
	curr.Clock.T = target

	st := curr
	ch, in, em := v.Change, v.Input, v.EM
	applied, err := physics.ApplyChange(v.Size, &ch, &curr, &st, &in, &em)
	if err != nil {
		return p.fail(err)
	}
	var out vehicle.Output
	if applied {
		out, err = physics.SolveDelta(v.Size, &v.Config, &curr, &st)
		if err != nil {
			return p.fail(err)
		}
		v.Change, v.Input, v.EM = ch, in, em
		p.next = st
		p.events++
		p.counters.Events(ctx, 1)
		p.log.Debug().Uint64("n", st.Clock.N).Float64("t", target).Msg("change applied")
	} else {
		out, err = physics.Aggregate(v.Size, &v.Config, &st)
		if err != nil {
			return p.fail(err)
		}
	}

	v.State = st
	v.Output = out
	return nil
}

// advance integrates one clock step past the current bracket. The bracket
// is replaced only once the step has succeeded.
func (p *Propagator) advance(ctx context.Context) error {
	v := p.veh
	prev, next := p.next, p.prev

	if err := physics.AggregateEM(v.Size, &v.Config, &v.EM); err != nil {
		return err
	}
	if _, err := physics.Coast(v.Size, &v.Config, &prev, &next, &v.Input); err != nil {
		return err
	}

	f := p.engine.Func(v.Size, &v.Config, &prev, &next, &v.Input, &v.EM)
	res, err := integrators.Advance(p.method, f, prev.Clock.T, prev.System, next.Clock.T, integrators.Options{
		Step:    v.Config.Clock.Step,
		Control: p.control,
	})
	if err != nil {
		return err
	}

	q, err := res.Y.Q.Unit()
	if err != nil {
		return fmt.Errorf("attitude: %w", err)
	}
	next.System = res.Y
	next.System.Q = q
	next.Clock.N = prev.Clock.N + uint64(res.Steps)

	p.prev, p.next = prev, next
	if p.adaptive() && res.Next > 0 {
		v.Config.Clock.Step = res.Next
	}

	p.rejected += res.Rejected
	p.counters.Steps(ctx, res.Steps)
	p.counters.Rejected(ctx, res.Rejected)
	p.log.Trace().
		Uint64("n", p.next.Clock.N).
		Float64("t", p.next.Clock.T).
		Int("steps", res.Steps).
		Int("rejected", res.Rejected).
		Float64("step", v.Config.Clock.Step).
		Msg("advanced")
	return nil
}

func (p *Propagator) validateConfig(cfg Config) error {
	v := p.veh
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Sample < 0 {
		return fmt.Errorf("sample interval must not be negative, got %f", cfg.Sample)
	}
	if v.Config.Clock.Step <= 0 {
		return fmt.Errorf("clock step must be positive, got %f", v.Config.Clock.Step)
	}
	t0 := v.State.Clock.T
	for i, e := range cfg.Events {
		if e.Time < t0 || e.Time > t0+cfg.Duration {
			return fmt.Errorf("event %d at t=%g outside [%g, %g]", i, e.Time, t0, t0+cfg.Duration)
		}
		if e.Object < 0 || e.Object >= v.Size {
			return fmt.Errorf("event %d: object %d out of range for %d objects", i, e.Object, v.Size)
		}
	}
	return nil
}

// load moves the events due at t into empty change slots and returns the
// rest. A second event for an occupied slot waits for the next tick.
func (p *Propagator) load(events []Event, t float64) []Event {
	rest := events[:0]
	for _, e := range events {
		if e.Time <= t && vehicle.IsNoOp(p.veh.Change.Objects[e.Object]) {
			p.veh.Change.Objects[e.Object] = e.Change
			continue
		}
		rest = append(rest, e)
	}
	return rest
}

func (p *Propagator) observe() {
	st, out := &p.veh.State, &p.veh.Output
	for _, m := range p.metrics {
		m.Observe(st, out)
	}
	for _, obs := range p.observers {
		obs.OnStep(st, out)
	}
}

// Run propagates for cfg.Duration, applying the scripted events and
// recording a sample every cfg.Sample seconds.
func (p *Propagator) Run(ctx context.Context, cfg Config) (*Result, error) {
	capacity := 2
	if iv := math.Max(cfg.Sample, p.veh.Config.Clock.Step); iv > 0 && cfg.Duration > 0 {
		capacity += int(cfg.Duration / iv)
	}
	result := &Result{
		Samples: make([]Sample, 0, capacity),
		Metrics: make(map[string]float64),
	}
	n0 := p.veh.State.Clock.N
	err := p.Stream(ctx, cfg, func(s Sample) bool {
		result.Samples = append(result.Samples, s)
		return true
	})

	result.Steps = p.veh.State.Clock.N - n0
	result.Rejected = p.rejected
	result.Events = p.events
	for _, m := range p.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, err
}

// Stream is Run without collecting: fn receives each sample and stops the
// run by returning false.
func (p *Propagator) Stream(ctx context.Context, cfg Config, fn func(Sample) bool) error {
	if err := p.validateConfig(cfg); err != nil {
		return err
	}
	v := p.veh
	for _, m := range p.metrics {
		m.Reset()
	}

	out, err := physics.Aggregate(v.Size, &v.Config, &v.State)
	if err != nil {
		return p.fail(err)
	}
	v.Output = out
	p.observe()
	if !fn(sampleOf(&v.State, &v.Output)) {
		return nil
	}

	events := make([]Event, len(cfg.Events))
	copy(events, cfg.Events)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time < events[j].Time })

	t0 := v.State.Clock.T
	end := t0 + cfg.Duration
	interval := cfg.Sample
	if interval <= 0 {
		interval = v.Config.Clock.Step
	}

	p.log.Info().Float64("t0", t0).Float64("duration", cfg.Duration).Int("events", len(events)).Msg("run started")
	for k := 1; ; {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		due := math.Min(t0+float64(k)*interval, end)
		target := due
		if len(events) > 0 && events[0].Time < target {
			target = events[0].Time
		}
		events = p.load(events, target)
		v.Change.Time = target

		if err := p.Tick(ctx); err != nil {
			return err
		}
		if cfg.ValidateState && !finite(&v.State.System) {
			return p.fail(fmt.Errorf("non-finite state: %w", dynamo.ErrInvalidState))
		}
		p.observe()

		if target < due || (len(events) > 0 && events[0].Time <= target) {
			continue
		}
		if !fn(sampleOf(&v.State, &v.Output)) {
			return nil
		}
		if due >= end {
			break
		}
		k++
	}
	p.log.Info().Uint64("n", v.State.Clock.N).Float64("t", v.State.Clock.T).Int("events", p.events).Msg("run finished")
	return nil
}

func finite(s *vehicle.System) bool {
	for _, x := range s.Q {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return s.R.IsFinite() && s.V.IsFinite() && s.W.IsFinite()
}

// IsCanceled reports whether err came from a cancelled context.
func IsCanceled(err error) bool {
	return errors.Is(err, dynamo.ErrContextCanceled)
}
