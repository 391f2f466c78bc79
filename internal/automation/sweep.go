package automation

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/experiment"
	"github.com/san-kum/epicycle/internal/sim"
)

// Sweepable parameters.
const (
	ParamDt     = "dt"
	ParamMass   = "mass"
	ParamSpeed  = "speed"
	ParamRadius = "radius"
)

// ParameterSweep runs Base once per evenly spaced value of Param in
// [Min, Max].
type ParameterSweep struct {
	Base     *config.Config
	Param    string
	Min, Max float64
	NumSteps int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue  float64
	Final       sim.Sample
	Steps       uint64
	EnergyDrift float64
	MinAltitude float64
}

func setParam(cfg *config.Config, name string, value float64) error {
	switch name {
	case ParamDt:
		cfg.Dt = value
	case ParamMass:
		cfg.Objects[0].Mass = value
	case ParamSpeed:
		cfg.Initial.V = scaleTo(cfg.Initial.V, value)
	case ParamRadius:
		cfg.Initial.R = scaleTo(cfg.Initial.R, value)
	default:
		return fmt.Errorf("parameter %q is not tunable", name)
	}
	return nil
}

func scaleTo(u [3]float64, norm float64) [3]float64 {
	n := 0.0
	for _, x := range u {
		n += x * x
	}
	if n == 0 {
		return [3]float64{norm, 0, 0}
	}
	k := norm / math.Sqrt(n)
	return [3]float64{u[0] * k, u[1] * k, u[2] * k}
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, log zerolog.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.Min + float64(i)*paramStep

		cfg := *sweep.Base
		cfg.Objects = append([]config.ObjectSpec(nil), sweep.Base.Objects...)
		if err := setParam(&cfg, sweep.Param, paramVal); err != nil {
			return nil, err
		}

		exp, err := experiment.New(&cfg, registry, log)
		if err != nil {
			return nil, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, paramVal, err)
		}

		results = append(results, SweepResult{
			ParamValue:  paramVal,
			Final:       result.Final(),
			Steps:       result.Steps,
			EnergyDrift: result.Metrics["energy_drift"],
			MinAltitude: minAltitude(exp.Metrics()),
		})

		log.Info().Int("step", i+1).Int("of", sweep.NumSteps).Str("param", sweep.Param).Float64("value", paramVal).Msg("sweep step done")
	}

	return results, nil
}
