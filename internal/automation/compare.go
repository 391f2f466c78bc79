package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/experiment"
	"github.com/san-kum/epicycle/internal/sim"
)

// Comparison summarises one integrator's run of a shared scenario.
// PositionError is the final position distance to the reference run.
type Comparison struct {
	Integrator    string
	Steps         uint64
	Rejected      int
	Final         sim.Sample
	PositionError float64
	EnergyDrift   float64
}

// Compare runs base once per integrator, concurrently, and measures every
// run against the run of reference.
func Compare(ctx context.Context, base *config.Config, names []string, reference string, registry *experiment.Registry, log zerolog.Logger) ([]Comparison, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no integrators to compare")
	}
	runs := append([]string{reference}, names...)

	members := make([]*sim.Propagator, len(runs))
	for i, name := range runs {
		cfg := *base
		cfg.Integrator = name
		exp, err := experiment.New(&cfg, registry, log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		members[i] = exp.Propagator()
	}
	simCfg, err := experiment.SimConfig(base)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := sim.NewEnsemble(members...).Run(ctx, simCfg)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	ref := results[0].Final().System.R
	out := make([]Comparison, 0, len(names))
	for i, name := range names {
		res := results[i+1]
		final := res.Final()
		out = append(out, Comparison{
			Integrator:    name,
			Steps:         res.Steps,
			Rejected:      res.Rejected,
			Final:         final,
			PositionError: final.System.R.Sub(ref).Norm(),
			EnergyDrift:   res.Metrics["energy_drift"],
		})
	}
	log.Debug().Int("runs", len(runs)).Dur("elapsed", elapsed).Msg("comparison finished")
	return out, nil
}
