package automation

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/experiment"
)

func shortOrbit() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Duration = 300
	return cfg
}

func TestLoadAndRunScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	data := `name: smoke
description: two short runs
steps:
  - preset: orbit/leo
    duration: 120
    save_as: leo-short
  - preset: attitude/spin
    integrator: gl4
    duration: 2
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if scenario.Name != "smoke" || len(scenario.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", scenario)
	}

	results, err := RunScenario(context.Background(), scenario, experiment.NewRegistry(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "leo-short" || results[0].Config.Duration != 120 {
		t.Errorf("unexpected first step %s %f", results[0].Name, results[0].Config.Duration)
	}
	if results[1].Config.Integrator != "gl4" {
		t.Errorf("expected gl4 override, got %s", results[1].Config.Integrator)
	}
	if w := results[1].Result.Final().System.W[2]; math.Abs(w-0.5) > 1e-9 {
		t.Errorf("expected steady spin 0.5, got %f", w)
	}
}

func TestLoadScenarioEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("name: empty\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(path); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestResolveBadPreset(t *testing.T) {
	for _, preset := range []string{"leo", "orbit/none", "none/leo"} {
		if _, err := (ScenarioStep{Preset: preset}).Resolve(); err == nil {
			t.Errorf("expected error for preset %q", preset)
		}
	}
}

func TestCompare(t *testing.T) {
	out, err := Compare(context.Background(), shortOrbit(), []string{"euler", "rk4"}, "rk4", experiment.NewRegistry(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(out))
	}
	if out[1].PositionError != 0 {
		t.Errorf("expected identical reference run, got error %g", out[1].PositionError)
	}
	if out[0].PositionError <= out[1].PositionError {
		t.Errorf("expected euler to drift from rk4, got %g", out[0].PositionError)
	}
	if out[0].EnergyDrift <= out[1].EnergyDrift {
		t.Errorf("expected euler energy drift %g above rk4 %g", out[0].EnergyDrift, out[1].EnergyDrift)
	}
	if out[0].Steps != 30 {
		t.Errorf("expected 30 steps, got %d", out[0].Steps)
	}
}

func TestCompareUnknownIntegrator(t *testing.T) {
	if _, err := Compare(context.Background(), shortOrbit(), []string{"leapfrog"}, "rk4", experiment.NewRegistry(), zerolog.Nop()); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{Base: shortOrbit(), Param: ParamDt, Min: 5, Max: 15, NumSteps: 3}
	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[1].ParamValue != 10 {
		t.Errorf("expected middle value 10, got %f", results[1].ParamValue)
	}
	if results[0].Steps != 60 || results[2].Steps != 20 {
		t.Errorf("unexpected step counts %d and %d", results[0].Steps, results[2].Steps)
	}
	if results[0].EnergyDrift >= results[2].EnergyDrift {
		t.Errorf("expected smaller drift with the smaller step, got %g and %g", results[0].EnergyDrift, results[2].EnergyDrift)
	}
	if sweep.Base.Dt != config.DefaultDt {
		t.Error("sweep modified its base config")
	}

	sweep.Param = "gravity"
	if _, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), zerolog.Nop()); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestScaleTo(t *testing.T) {
	got := scaleTo([3]float64{3, 4, 0}, 10)
	if got != [3]float64{6, 8, 0} {
		t.Errorf("expected (6,8,0), got %v", got)
	}
	if got := scaleTo([3]float64{}, 2); got != [3]float64{2, 0, 0} {
		t.Errorf("expected (2,0,0), got %v", got)
	}
}

func TestRunMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{Base: shortOrbit(), PositionSigma: 100, VelocitySigma: 1, NumTrials: 6, Seed: 42}
	results := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry(), zerolog.Nop())
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	for i, r := range results {
		if r.TrialID != i || r.Err != nil || !r.Stable {
			t.Errorf("trial %d: %+v", i, r)
		}
	}
	if results[0].Initial.R == results[1].Initial.R {
		t.Error("expected distinct dispersions per trial")
	}

	again := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry(), zerolog.Nop())
	if again[3].Final.System.R != results[3].Final.System.R {
		t.Error("expected trials to be reproducible from the seed")
	}

	stable, unstable := MonteCarloStats(results)
	if stable != 6 || unstable != 0 {
		t.Errorf("expected 6 stable, got %d/%d", stable, unstable)
	}
	s := Summarize(results)
	if s.Trials != 6 || s.Failed != 0 || s.Stable != 6 {
		t.Errorf("unexpected summary %+v", s)
	}
	if math.Abs(s.MeanRadius/config.DefaultRadius-1) > 1e-2 || s.StdRadius <= 0 {
		t.Errorf("unexpected radius statistics %f ± %f", s.MeanRadius, s.StdRadius)
	}
	if s.Quantiles[0] > s.Quantiles[1] || s.Quantiles[1] > s.Quantiles[2] {
		t.Errorf("quantiles out of order: %v", s.Quantiles)
	}
}
