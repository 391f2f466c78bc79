// Package automation runs batches of experiments: scripted scenario files,
// integrator comparisons, parameter sweeps and Monte Carlo dispersions.
package automation

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/experiment"
	"github.com/san-kum/epicycle/internal/sim"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset ("group/name") or a config file and
// applies the non-zero overrides.
type ScenarioStep struct {
	Preset     string   `yaml:"preset"`
	ConfigFile string   `yaml:"config"`
	Integrator string   `yaml:"integrator"`
	Adaptive   *bool    `yaml:"adaptive"`
	Models     []string `yaml:"models"`
	Duration   float64  `yaml:"duration"`
	Dt         float64  `yaml:"dt"`
	Sample     float64  `yaml:"sample"`
	SaveAs     string   `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Resolve builds the full configuration of a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Preset != "":
		group, name, ok := strings.Cut(s.Preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset %q: want group/name", s.Preset)
		}
		if cfg = config.GetPreset(group, name); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	case s.ConfigFile != "":
		var err error
		if cfg, err = config.Load(s.ConfigFile); err != nil {
			return nil, err
		}
	default:
		cfg = config.DefaultConfig()
	}

	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Adaptive != nil {
		cfg.Adaptive = *s.Adaptive
	}
	if len(s.Models) > 0 {
		cfg.Models = s.Models
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Sample > 0 {
		cfg.Sample = s.Sample
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}

// RunScenario executes all steps in a scenario. The results of the steps
// that completed are returned with the first error.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, log zerolog.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Info().Int("step", i+1).Int("of", len(scenario.Steps)).Str("name", cfg.Name).Str("integrator", cfg.Integrator).Msg("running step")

		exp, err := experiment.New(cfg, registry, log)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: cfg.Name, Config: cfg, Result: result})
	}

	return results, nil
}
