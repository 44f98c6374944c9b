package regression

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/dubaieta/core/features"
	"github.com/kilianp07/dubaieta/core/logger"
)

// BoostConfig holds the gradient boosting hyper-parameters.
type BoostConfig struct {
	Estimators      int     `json:"n_estimators"`
	MaxDepth        int     `json:"max_depth"`
	LearningRate    float64 `json:"learning_rate"`
	Subsample       float64 `json:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree"`
	Seed            int64   `json:"random_state"`
	Lambda          float64 `json:"lambda"`
	MinChildWeight  float64 `json:"min_child_weight"`
	MaxBins         int     `json:"max_bins"`
}

// DefaultBoostConfig returns the production hyper-parameters.
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{
		Estimators:      200,
		MaxDepth:        8,
		LearningRate:    0.1,
		Subsample:       0.8,
		ColsampleByTree: 0.8,
		Seed:            42,
		Lambda:          1,
		MinChildWeight:  1,
		MaxBins:         256,
	}
}

// SetDefaults fills zero values. Seed is left alone because zero is a
// valid seed; callers wanting DefaultBoostConfig's seed set it themselves.
func (c *BoostConfig) SetDefaults() {
	d := DefaultBoostConfig()
	if c.Estimators == 0 {
		c.Estimators = d.Estimators
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.LearningRate == 0 {
		c.LearningRate = d.LearningRate
	}
	if c.Subsample == 0 {
		c.Subsample = d.Subsample
	}
	if c.ColsampleByTree == 0 {
		c.ColsampleByTree = d.ColsampleByTree
	}
	if c.Lambda == 0 {
		c.Lambda = d.Lambda
	}
	if c.MinChildWeight == 0 {
		c.MinChildWeight = d.MinChildWeight
	}
	if c.MaxBins == 0 {
		c.MaxBins = d.MaxBins
	}
}

// Validate checks parameter ranges.
func (c BoostConfig) Validate() error {
	switch {
	case c.Estimators < 1:
		return fmt.Errorf("n_estimators must be positive")
	case c.MaxDepth < 1:
		return fmt.Errorf("max_depth must be positive")
	case c.LearningRate <= 0 || c.LearningRate > 1:
		return fmt.Errorf("learning_rate must be in (0,1]")
	case c.Subsample <= 0 || c.Subsample > 1:
		return fmt.Errorf("subsample must be in (0,1]")
	case c.ColsampleByTree <= 0 || c.ColsampleByTree > 1:
		return fmt.Errorf("colsample_bytree must be in (0,1]")
	case c.Lambda < 0:
		return fmt.Errorf("lambda must not be negative")
	case c.MinChildWeight < 0:
		return fmt.Errorf("min_child_weight must not be negative")
	case c.MaxBins < 2 || c.MaxBins > math.MaxUint16:
		return fmt.Errorf("max_bins must be in [2,%d]", math.MaxUint16)
	}
	return nil
}

// Importance is the normalised share of split gain attributed to a feature.
type Importance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Ensemble is a gradient-boosted regression tree model on squared loss.
type Ensemble struct {
	cfg        BoostConfig
	columns    []string
	base       float64
	trees      []tree
	importance []float64
	history    []float64
	log        logger.Logger
}

// NewAdvanced returns an unfitted ensemble.
func NewAdvanced(cfg BoostConfig, log logger.Logger) *Ensemble {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Ensemble{cfg: cfg, log: log}
}

// Kind implements Model.
func (m *Ensemble) Kind() Kind { return Advanced }

// Fitted implements Model.
func (m *Ensemble) Fitted() bool { return m.trees != nil }

// Columns returns the feature order captured at fit time.
func (m *Ensemble) Columns() []string { return slices.Clone(m.columns) }

// EvalHistory returns the validation RMSE after each tree, empty when no
// validation set was supplied.
func (m *Ensemble) EvalHistory() []float64 { return slices.Clone(m.history) }

// Fit grows cfg.Estimators trees. Every frame column that is a model
// feature is used and its order is frozen for Predict.
func (m *Ensemble) Fit(X features.Frame, y []float64, opts ...FitOption) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	if err := m.cfg.Validate(); err != nil {
		return err
	}
	var o fitOptions
	for _, opt := range opts {
		opt(&o)
	}
	columns := features.FeatureColumns(X)
	if len(columns) == 0 {
		return fmt.Errorf("advanced: no feature columns")
	}
	train, err := X.Select(columns)
	if err != nil {
		return err
	}
	var val features.Frame
	if o.valX != nil {
		if val, err = o.valX.Select(columns); err != nil {
			return fmt.Errorf("validation set: %w", err)
		}
		if val.Len() != len(o.valY) {
			return fmt.Errorf("validation frame has %d rows but %d labels", val.Len(), len(o.valY))
		}
	}
	m.log.Infof("training advanced model on %d rows with %d features", train.Len(), len(columns))

	n, p := train.Len(), len(columns)
	bn := newBinner(train.Rows, m.cfg.MaxBins)
	base := stat.Mean(y, nil)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	var valPred []float64
	if val.Len() > 0 {
		valPred = make([]float64, val.Len())
		for i := range valPred {
			valPred[i] = base
		}
	}

	tb := &treeBuilder{
		bins:   bn.binned(train.Rows),
		cuts:   bn.cuts,
		resid:  make([]float64, n),
		cfg:    m.cfg,
		gain:   make([]float64, p),
		splits: make([]int, p),
	}
	rng := rand.New(rand.NewSource(m.cfg.Seed))
	nRows := max(1, int(m.cfg.Subsample*float64(n)))
	nCols := max(1, int(m.cfg.ColsampleByTree*float64(p)))

	trees := make([]tree, 0, m.cfg.Estimators)
	var history []float64
	for t := 0; t < m.cfg.Estimators; t++ {
		for i := range tb.resid {
			tb.resid[i] = y[i] - pred[i]
		}
		rows := rng.Perm(n)[:nRows]
		tb.features = rng.Perm(p)[:nCols]
		sort.Ints(tb.features)

		tr := tb.build(rows)
		trees = append(trees, tr)
		for i, row := range train.Rows {
			pred[i] += tr.predict(row)
		}
		if valPred != nil {
			for i, row := range val.Rows {
				valPred[i] += tr.predict(row)
			}
			history = append(history, rmse(o.valY, valPred))
			if (t+1)%50 == 0 {
				m.log.Debugf("tree %d validation rmse %.4f", t+1, history[t])
			}
		}
	}

	imp := make([]float64, p)
	for j := range imp {
		if tb.splits[j] > 0 {
			imp[j] = tb.gain[j] / float64(tb.splits[j])
		}
	}
	if s := floats.Sum(imp); s > 0 {
		floats.Scale(1/s, imp)
	}

	m.columns, m.base, m.trees, m.importance, m.history = columns, base, trees, imp, history
	if len(history) > 0 {
		m.log.Infow("advanced model trained", map[string]any{"trees": len(trees), "val_rmse": history[len(history)-1]})
	} else {
		m.log.Infow("advanced model trained", map[string]any{"trees": len(trees)})
	}
	return nil
}

// Predict reindexes X to the fitted column order and sums the trees.
func (m *Ensemble) Predict(X features.Frame) ([]float64, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}
	sel, err := X.Select(m.columns)
	if err != nil {
		return nil, err
	}
	out := make([]float64, sel.Len())
	for i, row := range sel.Rows {
		v := m.base
		for _, t := range m.trees {
			v += t.predict(row)
		}
		out[i] = v
	}
	return out, nil
}

// PredictWithConfidence returns point estimates with a heuristic interval
// of ±z·0.15·prediction.
func (m *Ensemble) PredictWithConfidence(X features.Frame, level float64) (pred, lower, upper []float64, err error) {
	pred, err = m.Predict(X)
	if err != nil {
		return nil, nil, nil, err
	}
	lower = make([]float64, len(pred))
	upper = make([]float64, len(pred))
	for i, p := range pred {
		lower[i], upper[i] = Interval(p, level)
	}
	return pred, lower, upper, nil
}

// Evaluate implements Model.
func (m *Ensemble) Evaluate(X features.Frame, y []float64) (Metrics, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return Metrics{}, err
	}
	met, err := Score(y, pred)
	if err != nil {
		return Metrics{}, err
	}
	m.log.Infof("advanced metrics: MAE=%.2f RMSE=%.2f", met.MAE, met.RMSE)
	return met, nil
}

// FeatureImportance returns average split gain per feature normalised to
// sum to one, sorted descending. Ties keep column order.
func (m *Ensemble) FeatureImportance() ([]Importance, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}
	out := make([]Importance, len(m.columns))
	for j, c := range m.columns {
		out[j] = Importance{Feature: c, Importance: m.importance[j]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out, nil
}

func rmse(y, pred []float64) float64 {
	var s float64
	for i := range y {
		d := y[i] - pred[i]
		s += d * d
	}
	return math.Sqrt(s / float64(len(y)))
}

type ensembleSnapshot struct {
	Config     BoostConfig `json:"config"`
	Columns    []string    `json:"columns"`
	Base       float64     `json:"base_score"`
	Trees      []tree      `json:"trees"`
	Importance []float64   `json:"importance"`
	History    []float64   `json:"eval_history,omitempty"`
}

// MarshalJSON encodes the fitted ensemble.
func (m *Ensemble) MarshalJSON() ([]byte, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}
	return json.Marshal(ensembleSnapshot{
		Config: m.cfg, Columns: m.columns, Base: m.base,
		Trees: m.trees, Importance: m.importance, History: m.history,
	})
}

// UnmarshalJSON restores a fitted ensemble.
func (m *Ensemble) UnmarshalJSON(b []byte) error {
	var s ensembleSnapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode advanced model: %w", err)
	}
	if len(s.Trees) == 0 || len(s.Columns) == 0 || len(s.Importance) != len(s.Columns) {
		return fmt.Errorf("decode advanced model: incomplete parameters")
	}
	for ti, t := range s.Trees {
		if len(t) == 0 {
			return fmt.Errorf("decode advanced model: tree %d is empty", ti)
		}
		for _, nd := range t {
			if nd.Leaf {
				continue
			}
			if nd.Feature < 0 || nd.Feature >= len(s.Columns) || nd.Left >= len(t) || nd.Right >= len(t) || nd.Left <= 0 || nd.Right <= 0 {
				return fmt.Errorf("decode advanced model: tree %d is malformed", ti)
			}
		}
	}
	m.cfg, m.columns, m.base, m.trees, m.importance, m.history = s.Config, s.Columns, s.Base, s.Trees, s.Importance, s.History
	if m.log == nil {
		m.log = logger.NopLogger{}
	}
	return nil
}
