package features

import "math"

// Summary accumulates the running mean and variance of a series using
// Welford's online algorithm.
type Summary struct {
	Count int
	Mean  float64
	M2    float64
}

// Add folds one observation into the summary.
func (s *Summary) Add(v float64) {
	s.Count++
	delta := v - s.Mean
	s.Mean += delta / float64(s.Count)
	s.M2 += delta * (v - s.Mean)
}

// Std returns the sample standard deviation. It is undefined, and reported
// as NaN, below two observations.
func (s Summary) Std() float64 {
	if s.Count < 2 {
		return math.NaN()
	}
	return math.Sqrt(s.M2 / float64(s.Count-1))
}
