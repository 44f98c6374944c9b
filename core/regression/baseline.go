package regression

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/dubaieta/core/features"
	"github.com/kilianp07/dubaieta/core/logger"
)

// BaselineColumns are the raw features used by the linear baseline.
var BaselineColumns = []string{
	features.ColDistance,
	features.ColHour,
	features.ColDayOfWeek,
	features.ColRushHour,
}

// rcond is the relative singular value cutoff of the least squares solve.
const rcond = 1e-10

// LinearModel is the standardised ordinary least squares baseline.
type LinearModel struct {
	scaler    *Scaler
	coef      []float64
	intercept float64
	log       logger.Logger
}

// NewBaseline returns an unfitted linear baseline.
func NewBaseline(log logger.Logger) *LinearModel {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &LinearModel{log: log}
}

// Kind implements Model.
func (m *LinearModel) Kind() Kind { return Baseline }

// Fitted implements Model.
func (m *LinearModel) Fitted() bool { return m.scaler != nil }

// Coefficients returns the intercept and the per-column coefficients in
// BaselineColumns order, on the standardised scale.
func (m *LinearModel) Coefficients() (float64, []float64) {
	out := make([]float64, len(m.coef))
	copy(out, m.coef)
	return m.intercept, out
}

// Fit standardises the baseline columns and solves least squares with an
// intercept through a thin SVD, which also copes with rank deficient
// designs such as a constant rush hour flag.
func (m *LinearModel) Fit(X features.Frame, y []float64, _ ...FitOption) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	m.log.Infof("training baseline model on %d rows", X.Len())
	sel, err := X.Select(BaselineColumns)
	if err != nil {
		return err
	}
	scaler, err := FitScaler(sel.Rows)
	if err != nil {
		return err
	}
	p := len(BaselineColumns)
	design := mat.NewDense(sel.Len(), p+1, nil)
	for i, row := range sel.Rows {
		design.Set(i, 0, 1)
		for j, v := range scaler.Transform(row) {
			design.Set(i, j+1, v)
		}
	}
	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return fmt.Errorf("baseline: svd factorization failed")
	}
	rank := svd.Rank(rcond)
	if rank == 0 {
		return fmt.Errorf("baseline: design matrix has rank zero")
	}
	var beta mat.VecDense
	svd.SolveVecTo(&beta, mat.NewVecDense(len(y), y), rank)

	m.scaler = scaler
	m.intercept = beta.AtVec(0)
	m.coef = make([]float64, p)
	for j := range m.coef {
		m.coef[j] = beta.AtVec(j + 1)
	}
	m.log.Infof("baseline model trained (rank %d)", rank)
	return nil
}

// Predict implements Model.
func (m *LinearModel) Predict(X features.Frame) ([]float64, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}
	sel, err := X.Select(BaselineColumns)
	if err != nil {
		return nil, err
	}
	out := make([]float64, sel.Len())
	for i, row := range sel.Rows {
		v := m.intercept
		for j, x := range m.scaler.Transform(row) {
			v += m.coef[j] * x
		}
		out[i] = v
	}
	return out, nil
}

// Evaluate implements Model.
func (m *LinearModel) Evaluate(X features.Frame, y []float64) (Metrics, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return Metrics{}, err
	}
	met, err := Score(y, pred)
	if err != nil {
		return Metrics{}, err
	}
	m.log.Infof("baseline metrics: MAE=%.2f RMSE=%.2f", met.MAE, met.RMSE)
	return met, nil
}

type linearSnapshot struct {
	Columns   []string  `json:"columns"`
	Scaler    *Scaler   `json:"scaler"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// MarshalJSON encodes the fitted parameters.
func (m *LinearModel) MarshalJSON() ([]byte, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}
	return json.Marshal(linearSnapshot{Columns: BaselineColumns, Scaler: m.scaler, Coef: m.coef, Intercept: m.intercept})
}

// UnmarshalJSON restores fitted parameters.
func (m *LinearModel) UnmarshalJSON(b []byte) error {
	var s linearSnapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode baseline model: %w", err)
	}
	if s.Scaler == nil || len(s.Coef) != len(BaselineColumns) || len(s.Scaler.Mean) != len(BaselineColumns) {
		return fmt.Errorf("decode baseline model: incomplete parameters")
	}
	m.scaler, m.coef, m.intercept = s.Scaler, s.Coef, s.Intercept
	if m.log == nil {
		m.log = logger.NopLogger{}
	}
	return nil
}
