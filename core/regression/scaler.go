package regression

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardises columns to zero mean and unit variance using
// statistics learned from training data only. Constant columns keep a unit
// scale so they map to zero instead of dividing by zero.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler learns per-column population mean and standard deviation.
func FitScaler(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("scaler: no rows")
	}
	p := len(rows[0])
	s := &Scaler{Mean: make([]float64, p), Scale: make([]float64, p)}
	col := make([]float64, len(rows))
	for j := 0; j < p; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j], s.Scale[j] = mean, std
	}
	return s, nil
}

// Transform returns a standardised copy of row.
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}
