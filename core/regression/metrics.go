package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrUndefinedMAPE is returned when a true duration is exactly zero.
var ErrUndefinedMAPE = errors.New("mape undefined for zero labels")

// Metrics summarises prediction error. MAPE is a percentage.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
	MAPE float64 `json:"mape"`
}

// Score compares predictions with the true values.
func Score(yTrue, yPred []float64) (Metrics, error) {
	if len(yTrue) == 0 {
		return Metrics{}, fmt.Errorf("no samples to score")
	}
	if len(yTrue) != len(yPred) {
		return Metrics{}, fmt.Errorf("%d labels but %d predictions", len(yTrue), len(yPred))
	}
	var absSum, sqSum, pctSum float64
	for i, y := range yTrue {
		if y == 0 {
			return Metrics{}, fmt.Errorf("label %d: %w", i, ErrUndefinedMAPE)
		}
		d := y - yPred[i]
		absSum += math.Abs(d)
		sqSum += d * d
		pctSum += math.Abs(d / y)
	}
	n := float64(len(yTrue))
	return Metrics{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
		R2:   stat.RSquaredFrom(yPred, yTrue, nil),
		MAPE: pctSum / n * 100,
	}, nil
}
