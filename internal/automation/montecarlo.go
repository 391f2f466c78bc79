package automation

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/experiment"
	"github.com/san-kum/epicycle/internal/metrics"
	"github.com/san-kum/epicycle/internal/sim"
)

// MonteCarloConfig disperses the initial position and velocity of Base with
// Gaussian noise of the given standard deviations (metres, metres/second).
type MonteCarloConfig struct {
	Base          *config.Config
	PositionSigma float64
	VelocitySigma float64
	NumTrials     int
	Seed          int64
}

// MonteCarloResult holds the outcome of one trial. Stable means the trial
// finished and, when a central body is modelled, never dropped below the
// altitude floor.
type MonteCarloResult struct {
	TrialID     int
	Initial     config.InitialConfig
	Final       sim.Sample
	MinAltitude float64
	EnergyDrift float64
	Stable      bool
	Err         error
}

func minAltitude(ms []sim.Metric) float64 {
	for _, m := range ms {
		if a, ok := m.(*metrics.Altitude); ok {
			return a.Lowest()
		}
	}
	return math.NaN()
}

func perturb(rng *rand.Rand, u [3]float64, sigma float64) [3]float64 {
	for i := range u {
		u[i] += rng.NormFloat64() * sigma
	}
	return u
}

// RunMonteCarlo executes the trials in parallel. Trial i draws from its own
// generator seeded with Seed+i, so results do not depend on scheduling.
// Failed trials are reported in their result rather than aborting the batch.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry, log zerolog.Logger) []MonteCarloResult {
	results := make([]MonteCarloResult, cfg.NumTrials)

	dynamo.ParallelFor(cfg.NumTrials, 1, func(start, end int) {
		for trial := start; trial < end; trial++ {
			results[trial] = runTrial(ctx, cfg, trial, registry, log)
		}
	})

	stable, unstable := MonteCarloStats(results)
	log.Info().Int("trials", cfg.NumTrials).Int("stable", stable).Int("unstable", unstable).Msg("monte carlo finished")
	return results
}

func runTrial(ctx context.Context, mc *MonteCarloConfig, trial int, registry *experiment.Registry, log zerolog.Logger) MonteCarloResult {
	rng := rand.New(rand.NewSource(mc.Seed + int64(trial)))

	cfg := *mc.Base
	cfg.Seed = mc.Seed + int64(trial)
	cfg.Initial.R = perturb(rng, cfg.Initial.R, mc.PositionSigma)
	cfg.Initial.V = perturb(rng, cfg.Initial.V, mc.VelocitySigma)

	res := MonteCarloResult{TrialID: trial, Initial: cfg.Initial, MinAltitude: math.NaN()}
	exp, err := experiment.New(&cfg, registry, log)
	if err != nil {
		res.Err = err
		return res
	}
	result, err := exp.Run(ctx)
	if err != nil {
		res.Err = err
		return res
	}

	res.Final = result.Final()
	res.MinAltitude = minAltitude(exp.Metrics())
	res.EnergyDrift = result.Metrics["energy_drift"]
	alt, ok := result.Metrics["altitude"]
	res.Stable = !ok || alt == 1
	return res
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

// Summary describes the dispersion of the final radius and of the minimum
// altitude over the trials that finished.
type Summary struct {
	Trials, Stable, Failed int
	MeanRadius, StdRadius  float64
	MeanMinAlt, StdMinAlt  float64
	Quantiles              [3]float64 // 5%, 50% and 95% of the final radius
}

func Summarize(results []MonteCarloResult) Summary {
	s := Summary{Trials: len(results)}
	var radius, alt []float64
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		if r.Stable {
			s.Stable++
		}
		radius = append(radius, r.Final.System.R.Norm())
		if !math.IsNaN(r.MinAltitude) {
			alt = append(alt, r.MinAltitude)
		}
	}
	if len(radius) > 0 {
		s.MeanRadius, s.StdRadius = stat.MeanStdDev(radius, nil)
		sorted := append([]float64(nil), radius...)
		sort.Float64s(sorted)
		for i, p := range []float64{0.05, 0.5, 0.95} {
			s.Quantiles[i] = stat.Quantile(p, stat.Empirical, sorted, nil)
		}
	}
	if len(alt) > 0 {
		s.MeanMinAlt, s.StdMinAlt = stat.MeanStdDev(alt, nil)
	}
	return s
}
