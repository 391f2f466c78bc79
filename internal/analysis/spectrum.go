package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrShortSeries = errors.New("analysis: series too short")
	ErrFlatSeries  = errors.New("analysis: series has no periodic content")
)

// PowerSpectrum returns the magnitudes of the real FFT of data with its mean
// removed. Bin i has frequency i/len(data) per sample.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	centered := make([]float64, len(data))
	copy(centered, data)
	floats.AddConst(-stat.Mean(data, nil), centered)

	fft := fourier.NewFFT(len(centered))
	coeff := fft.Coefficients(nil, centered)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantPeriod returns the period of the strongest non-constant component
// of data sampled every interval seconds.
func DominantPeriod(data []float64, interval float64) (float64, error) {
	if len(data) < 4 {
		return 0, ErrShortSeries
	}
	ps := PowerSpectrum(data)
	best := floats.MaxIdx(ps[1:]) + 1
	if ps[best] <= 1e-12*floats.Norm(data, 2) {
		return 0, ErrFlatSeries
	}
	return float64(len(data)) * interval / float64(best), nil
}
