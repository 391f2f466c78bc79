// Package analysis extracts periods and phase portraits from sampled runs.
//
//   - [PowerSpectrum] and [DominantPeriod]: spectral content of one channel
//   - [Crossings]: times at which a channel rises through a level, e.g. the
//     ascending node crossings of rz
//   - [Portrait]: 2D phase space plot of two channels
//
// # Orbital period
//
// The nodal period is the mean spacing of the ascending node crossings:
//
//	times := analysis.Crossings(t, rz, 0)
//	period, err := analysis.MeanSpacing(times)
package analysis
