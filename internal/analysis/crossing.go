package analysis

// Crossings returns the times at which values rises through level,
// interpolated linearly between samples.
func Crossings(times, values []float64, level float64) []float64 {
	var out []float64
	n := min(len(times), len(values))
	for i := 1; i < n; i++ {
		a, b := values[i-1]-level, values[i]-level
		if a < 0 && b >= 0 {
			f := a / (a - b)
			out = append(out, times[i-1]+f*(times[i]-times[i-1]))
		}
	}
	return out
}

// MeanSpacing returns the mean interval between successive times.
func MeanSpacing(times []float64) (float64, error) {
	if len(times) < 2 {
		return 0, ErrShortSeries
	}
	return (times[len(times)-1] - times[0]) / float64(len(times)-1), nil
}
