package regression

import "math"

// Z returns the normal quantile used for the heuristic interval: 1.96 at
// the 95% level and 2.58 for any other level.
func Z(level float64) float64 {
	if level == 0.95 {
		return 1.96
	}
	return 2.58
}

// Interval returns pred ± Z(level)·0.15·pred.
func Interval(pred, level float64) (lower, upper float64) {
	margin := Z(level) * 0.15 * pred
	return pred - margin, pred + margin
}

// FlooredInterval is Interval with the lower bound held at one minute.
func FlooredInterval(pred, level float64) (lower, upper float64) {
	lower, upper = Interval(pred, level)
	return math.Max(1, lower), upper
}
