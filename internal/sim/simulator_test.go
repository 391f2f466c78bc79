package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/integrators"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/models"
	"github.com/san-kum/epicycle/internal/physics"
	"github.com/san-kum/epicycle/internal/vehicle"
)

func newBody(t *testing.T, step float64, inertia float64) *vehicle.Vehicle {
	t.Helper()
	v, err := vehicle.New(1)
	if err != nil {
		t.Fatal(err)
	}
	v.Config.Clock.Step = step
	v.State.Objects[0].Mass = 1
	v.State.Objects[0].Inertia = linalg.Diag{inertia, inertia, inertia}
	return v
}

func vecNear(a, b linalg.Vec, tol float64) bool { return a.Sub(b).Norm() <= tol }

func TestTickConstantTorque(t *testing.T) {
	v := newBody(t, 0.25, 1.0/12)
	tau := math.Pi / 18 / math.Sqrt(3)
	v.Input.Objects[0].Torque = linalg.Vec{tau, tau, tau}
	v.Change.Time = 1

	p := New(v, physics.NewEngine(), integrators.RK4)
	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	w := math.Pi / 1.5 / math.Sqrt(3)
	if !vecNear(v.State.System.W, linalg.Vec{w, w, w}, 1e-9) {
		t.Errorf("expected body rate %f on each axis, got %v", w, v.State.System.W)
	}
	s := 0.5 / math.Sqrt(3)
	want := linalg.Quat{math.Sqrt(3) / 2, s, s, s}
	if want.Add(v.State.System.Q.Scale(-1)).Norm() > 1e-9 {
		t.Errorf("expected attitude %v, got %v", want, v.State.System.Q)
	}
	if v.State.Clock.N != 4 || v.State.Clock.T != 1 {
		t.Errorf("expected n=4 t=1, got n=%d t=%f", v.State.Clock.N, v.State.Clock.T)
	}
}

func TestRunOrbit(t *testing.T) {
	r, speed := 7000e3, 7000.0
	v := newBody(t, 1, 1)
	v.State.System.R = linalg.Vec{r, 0, 0}
	v.State.System.V = linalg.Vec{0, speed, 0}

	p := New(v, physics.NewEngine(models.NewPointMass()), integrators.RK4)
	res, err := p.Run(context.Background(), Config{Duration: 1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(res.Samples))
	}

	g := models.Mu / (r * r)
	final := res.Final().System
	if math.Abs(final.R[0]-(r-g/2)) > dynamo.RelTol*g || math.Abs(final.R[1]-speed) > dynamo.RelTol*speed {
		t.Errorf("unexpected position %v", final.R)
	}
	if math.Abs(final.V[0]+g) > dynamo.RelTol*g || math.Abs(final.V[1]-speed) > dynamo.RelTol*speed {
		t.Errorf("unexpected velocity %v", final.V)
	}
	if res.Steps != 1 {
		t.Errorf("expected 1 step, got %d", res.Steps)
	}
}

func TestTickInterpolates(t *testing.T) {
	v := newBody(t, 0.25, 1)
	v.State.System.V = linalg.Vec{1, 0, 0}
	p := New(v, physics.NewEngine(), integrators.RK4)

	for _, at := range []float64{0.3, 0.6, 0.6, 1.1} {
		v.Change.Time = at
		if err := p.Tick(context.Background()); err != nil {
			t.Fatalf("tick to %f failed: %v", at, err)
		}
		if v.State.Clock.T != at || math.Abs(v.State.System.R[0]-at) > 1e-12 {
			t.Errorf("at t=%f: expected x=%f, got %v", at, at, v.State.System.R)
		}
	}
}

func TestRunScriptedEvent(t *testing.T) {
	v := newBody(t, 0.25, 1)
	p := New(v, physics.NewEngine(), integrators.RK4)

	cfg := Config{
		Duration: 1,
		Events: []Event{{
			Time:   0.5,
			Object: 0,
			Change: vehicle.StateMerge{Mass: 1, Momentum: linalg.Vec{2, 0, 0}},
		}},
	}
	res, err := p.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(res.Samples) != 5 {
		t.Errorf("expected 5 samples, got %d", len(res.Samples))
	}
	if res.Events != 1 {
		t.Errorf("expected 1 event, got %d", res.Events)
	}
	final := res.Final()
	if final.Mass != 2 {
		t.Errorf("expected mass 2 after merge, got %f", final.Mass)
	}
	if !vecNear(final.System.V, linalg.Vec{-1, 0, 0}, 1e-12) {
		t.Errorf("expected recoil velocity (-1,0,0), got %v", final.System.V)
	}
	if !vecNear(final.System.R, linalg.Vec{-0.5, 0, 0}, 1e-12) {
		t.Errorf("expected position (-0.5,0,0), got %v", final.System.R)
	}
	if !vehicle.IsNoOp(v.Change.Objects[0]) {
		t.Error("expected the change slot to be consumed")
	}
}

func TestRunDuplicateEvents(t *testing.T) {
	v := newBody(t, 0.25, 1)
	p := New(v, physics.NewEngine(), integrators.RK4)

	merge := vehicle.StateMerge{Mass: 1}
	cfg := Config{
		Duration: 0.5,
		Events:   []Event{{Time: 0.25, Change: merge}, {Time: 0.25, Change: merge}},
	}
	res, err := p.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Events != 2 || res.Final().Mass != 3 {
		t.Errorf("expected both merges applied, got %d events and mass %f", res.Events, res.Final().Mass)
	}
	if len(res.Samples) != 3 {
		t.Errorf("expected 3 samples, got %d", len(res.Samples))
	}
}

func TestTickPastChange(t *testing.T) {
	v := newBody(t, 0.25, 1)
	v.State.Clock.T = 2
	v.Change.Time = 1
	err := New(v, physics.NewEngine(), integrators.RK4).Tick(context.Background())

	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", err)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) || simErr.Time != 2 {
		t.Errorf("expected a simulation error at t=2, got %v", err)
	}
}

func TestTickModelFailure(t *testing.T) {
	v := newBody(t, 0.25, 1)
	v.Change.Time = 1
	p := New(v, physics.NewEngine(models.NewPointMass()), integrators.RK4)

	err := p.Tick(context.Background())
	if !errors.Is(err, dynamo.ErrDomainViolation) {
		t.Errorf("expected domain violation at the Earth's centre, got %v", err)
	}
	if v.State.Clock.T != 0 {
		t.Errorf("expected state untouched, got t=%f", v.State.Clock.T)
	}
}

// flakyModel fails its first evaluation and then behaves like model.
type flakyModel struct {
	physics.ForceModel
	calls int
}

func (f *flakyModel) Apply(size int, cfg *vehicle.Config, st *vehicle.State, in *vehicle.Input, out *vehicle.Output, em *vehicle.EM) error {
	f.calls++
	if f.calls == 1 {
		return fmt.Errorf("flaky: %w", dynamo.ErrDomainViolation)
	}
	return f.ForceModel.Apply(size, cfg, st, in, out, em)
}

func newOrbit(t *testing.T) *vehicle.Vehicle {
	t.Helper()
	v := newBody(t, 1, 1)
	v.State.System.R = linalg.Vec{7000e3, 0, 0}
	v.State.System.V = linalg.Vec{0, 7000, 0}
	v.Change.Time = 1
	return v
}

func TestTickRetryAfterModelFailure(t *testing.T) {
	clean := newOrbit(t)
	if err := New(clean, physics.NewEngine(models.NewPointMass()), integrators.RK4).Tick(context.Background()); err != nil {
		t.Fatalf("clean tick failed: %v", err)
	}

	v := newOrbit(t)
	p := New(v, physics.NewEngine(&flakyModel{ForceModel: models.NewPointMass()}), integrators.RK4)
	if err := p.Tick(context.Background()); err == nil {
		t.Fatal("expected the first tick to fail")
	}
	if v.State.Clock.T != 0 || v.State.System.R != (linalg.Vec{7000e3, 0, 0}) {
		t.Fatalf("expected state untouched after failure, got t=%f r=%v", v.State.Clock.T, v.State.System.R)
	}

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !vecNear(v.State.System.R, clean.State.System.R, 1e-6) {
		t.Errorf("expected position %v after retry, got %v", clean.State.System.R, v.State.System.R)
	}
	if !vecNear(v.State.System.V, clean.State.System.V, 1e-9) {
		t.Errorf("expected velocity %v after retry, got %v", clean.State.System.V, v.State.System.V)
	}
	if v.State.System.V[0] >= 0 {
		t.Errorf("expected gravity to pull toward the Earth, got v=%v", v.State.System.V)
	}
}

func TestTickFailedChangeCommitsNothing(t *testing.T) {
	v, err := vehicle.New(2)
	if err != nil {
		t.Fatal(err)
	}
	v.Config.Clock.Step = 0.25
	v.State.Objects[0].Mass = 1
	v.State.Objects[0].Inertia = linalg.Diag{1, 1, 1}
	v.Change.Objects[0] = vehicle.StateMerge{Mass: -1}
	v.Change.Objects[1] = vehicle.InputMerge{Force: linalg.Vec{5, 0, 0}}

	err = New(v, physics.NewEngine(), integrators.RK4).Tick(context.Background())
	if !errors.Is(err, dynamo.ErrDegenerateInput) {
		t.Fatalf("expected degenerate input for a massless vehicle, got %v", err)
	}

	if _, ok := v.Change.Objects[0].(vehicle.StateMerge); !ok {
		t.Errorf("expected the state merge to stay pending, got %T", v.Change.Objects[0])
	}
	if _, ok := v.Change.Objects[1].(vehicle.InputMerge); !ok {
		t.Errorf("expected the input merge to stay pending, got %T", v.Change.Objects[1])
	}
	if v.Input.Objects[1].Force != (linalg.Vec{}) {
		t.Errorf("expected input untouched, got force %v", v.Input.Objects[1].Force)
	}
	if v.State.Objects[0].Mass != 1 {
		t.Errorf("expected mass 1, got %f", v.State.Objects[0].Mass)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		step float64
		cfg  Config
	}{
		{"zero duration", 0.1, Config{Duration: 0}},
		{"negative duration", 0.1, Config{Duration: -1.0}},
		{"negative sample", 0.1, Config{Duration: 1, Sample: -1}},
		{"zero step", 0, Config{Duration: 1}},
		{"event before start", 0.1, Config{Duration: 1, Events: []Event{{Time: -1}}}},
		{"event after end", 0.1, Config{Duration: 1, Events: []Event{{Time: 2}}}},
		{"event object", 0.1, Config{Duration: 1, Events: []Event{{Time: 0.5, Object: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newBody(t, tt.step, 1)
			_, err := New(v, physics.NewEngine(), integrators.RK4).Run(context.Background(), tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := newBody(t, 0.25, 1)
	_, err := New(v, physics.NewEngine(), integrators.RK4).Run(ctx, Config{Duration: 1})
	if !IsCanceled(err) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestRunAdaptive(t *testing.T) {
	r, speed := 7000e3, 7546.0
	v := newBody(t, 10, 1)
	v.State.System.R = linalg.Vec{r, 0, 0}
	v.State.System.V = linalg.Vec{0, speed, 0}

	p := New(v, physics.NewEngine(models.NewPointMass()), integrators.DormandPrince)
	res, err := p.Run(context.Background(), Config{Duration: 600, Sample: 60})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Samples) != 11 {
		t.Errorf("expected 11 samples, got %d", len(res.Samples))
	}
	if v.Config.Clock.Step == 10 {
		t.Error("expected the controller to adjust the clock step")
	}
	if got := res.Final().System.R.Norm(); math.Abs(got/r-1) > 1e-3 {
		t.Errorf("expected near-circular orbit radius %g, got %g", r, got)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(st *vehicle.State, out *vehicle.Output) {
	m.count++
	m.sum += out.Mass
}
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() {
	m.count = 0
	m.sum = 0
}

type countObserver struct{ n int }

func (o *countObserver) OnStep(*vehicle.State, *vehicle.Output) { o.n++ }

func TestRunMetricsAndObservers(t *testing.T) {
	v := newBody(t, 0.25, 1)
	p := New(v, physics.NewEngine(), integrators.RK4)

	metric := &testMetric{}
	obs := &countObserver{}
	p.AddMetric(metric)
	p.AddObserver(obs)

	result, err := p.Run(context.Background(), Config{Duration: 1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got, ok := result.Metrics["test"]; !ok || got != 1 {
		t.Errorf("expected mean mass 1 in metrics, got %v", result.Metrics)
	}
	if metric.count != 5 || obs.n != 5 {
		t.Errorf("expected 5 observations, got metric=%d observer=%d", metric.count, obs.n)
	}
}

func TestStreamStops(t *testing.T) {
	v := newBody(t, 0.25, 1)
	p := New(v, physics.NewEngine(), integrators.RK4)

	seen := 0
	err := p.Stream(context.Background(), Config{Duration: 10}, func(Sample) bool {
		seen++
		return seen < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen != 3 || v.State.Clock.T != 0.5 {
		t.Errorf("expected to stop after 3 samples at t=0.5, got %d at t=%f", seen, v.State.Clock.T)
	}
}

func TestEnsemble(t *testing.T) {
	var members []*Propagator
	for _, m := range []integrators.Method{integrators.RK4, integrators.Verlet} {
		v := newBody(t, 0.25, 1)
		v.State.System.V = linalg.Vec{0, 1, 0}
		members = append(members, New(v, physics.NewEngine(), m))
	}

	results, err := NewEnsemble(members...).Run(context.Background(), Config{Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	for i, res := range results {
		if !vecNear(res.Final().System.R, linalg.Vec{0, 1, 0}, 1e-12) {
			t.Errorf("member %d: expected (0,1,0), got %v", i, res.Final().System.R)
		}
	}
}
