package storage

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/sim"
	"github.com/san-kum/epicycle/internal/vehicle"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	st, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "runs.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testResult() *sim.Result {
	return &sim.Result{
		Samples: []sim.Sample{
			{N: 0, T: 0, System: vehicle.System{R: linalg.Vec{7e6, 0, 0}, Q: linalg.One(), V: linalg.Vec{0, 7546, 0}}, Mass: 100},
			{N: 6, T: 60, System: vehicle.System{R: linalg.Vec{6.99e6, 4.5e5, 0}, Q: linalg.Quat{0, 1, 0, 0}, W: linalg.Vec{0, 0, 0.1}}, Mass: 100},
		},
		Metrics: map[string]float64{"energy_drift": 1.5e-9},
		Steps:   6,
		Events:  1,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := openTemp(t)
	cfg := config.DefaultConfig()
	cfg.Name = "test"
	cfg.Models = []string{"gravity", "stdatm"}

	id, err := st.Save(cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero run id")
	}

	run, err := st.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if run.Name != "test" || run.Models != "gravity,stdatm" || run.Steps != 6 || run.Events != 1 {
		t.Errorf("unexpected run %+v", run)
	}

	metrics, err := run.MetricValues()
	if err != nil {
		t.Fatal(err)
	}
	if metrics["energy_drift"] != 1.5e-9 {
		t.Errorf("expected energy drift 1.5e-9, got %g", metrics["energy_drift"])
	}

	scenario, err := run.Scenario()
	if err != nil {
		t.Fatal(err)
	}
	if scenario.Integrator != cfg.Integrator || len(scenario.Models) != 2 {
		t.Errorf("unexpected stored scenario %+v", scenario)
	}

	samples, err := st.LoadSamples(id)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	want := testResult().Samples[1]
	if samples[1] != want {
		t.Errorf("expected %+v, got %+v", want, samples[1])
	}
}

func TestStoreList(t *testing.T) {
	st := openTemp(t)

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty store, got %d runs", len(runs))
	}

	for _, name := range []string{"a", "b"} {
		cfg := config.DefaultConfig()
		cfg.Name = name
		if _, err := st.Save(cfg, testResult()); err != nil {
			t.Fatal(err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].Name != "a" || runs[1].Name != "b" {
		t.Errorf("unexpected runs %+v", runs)
	}

	if err := st.Delete(runs[0].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Load(runs[0].ID); err == nil {
		t.Error("expected deleted run to be gone")
	}
	samples, err := st.LoadSamples(runs[0].ID)
	if err != nil || len(samples) != 0 {
		t.Errorf("expected samples removed, got %d (%v)", len(samples), err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "dsn", zerolog.Nop()); err == nil {
		t.Error("expected error for unknown driver")
	}
}
