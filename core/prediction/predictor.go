package prediction

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/dubaieta/core/features"
	"github.com/kilianp07/dubaieta/core/logger"
	"github.com/kilianp07/dubaieta/core/model"
	"github.com/kilianp07/dubaieta/core/regression"
	"github.com/kilianp07/dubaieta/core/traffic"
	"github.com/kilianp07/dubaieta/core/zone"
)

var (
	// ErrNotTrained is returned by every serving call before Train or Restore.
	ErrNotTrained = errors.New("models must be trained before prediction")
	// ErrUnknownModel is returned for a model kind outside the closed set.
	ErrUnknownModel = errors.New("unknown model type")
)

// Metadata describes one served prediction.
type Metadata struct {
	PredictionID string          `json:"prediction_id"`
	ModelType    regression.Kind `json:"model_type"`
	ModelVersion string          `json:"model_version"`
	Timestamp    time.Time       `json:"prediction_timestamp"`
}

// Result is the answer to a single ETA request.
type Result struct {
	Pickup             int        `json:"pickup_zone"`
	Dropoff            int        `json:"dropoff_zone"`
	RequestTime        time.Time  `json:"request_time"`
	EstimatedDuration  float64    `json:"estimated_duration_minutes"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
	Factors            Factors    `json:"factors"`
	Metadata           Metadata   `json:"metadata"`
}

// TrainingInfo records how the current models were trained.
type TrainingInfo struct {
	TrainSize     int       `json:"train_size"`
	ValSize       int       `json:"val_size"`
	FeaturesCount int       `json:"features_count"`
	Features      []string  `json:"features"`
	TrainingDate  time.Time `json:"training_date"`
	ModelVersion  string    `json:"model_version"`
}

// Evaluation holds held-out metrics of both models.
type Evaluation struct {
	Baseline regression.Metrics `json:"baseline"`
	Advanced regression.Metrics `json:"advanced"`
}

// Option customises a Predictor.
type Option func(*Predictor)

// WithLogger routes the predictor and the components it builds to l.
func WithLogger(l logger.Logger) Option {
	return func(p *Predictor) { p.logs = func(string) logger.Logger { return l } }
}

// WithLoggerFactory gives the predictor and each component it builds its
// own logger from f, named "predictor", "features", "baseline-model" and
// "advanced-model".
func WithLoggerFactory(f logger.Factory) Option {
	return func(p *Predictor) { p.logs = f }
}

// WithClock replaces time.Now for training and prediction timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Predictor) { p.now = now }
}

// Predictor owns the fitted feature engineer and both models.
type Predictor struct {
	cfg  Config
	grid *zone.Grid
	cal  traffic.Config

	engineer *features.Engineer
	baseline *regression.LinearModel
	advanced *regression.Ensemble
	info     *TrainingInfo

	log  logger.Logger
	logs logger.Factory
	now  func() time.Time
}

// New returns an untrained predictor for the given grid and calendar.
func New(cfg Config, grid *zone.Grid, cal traffic.Config, opts ...Option) *Predictor {
	cfg.SetDefaults()
	p := &Predictor{
		cfg:  cfg,
		grid: grid,
		cal:  cal,
		logs: logger.Nop,
		now:  time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	p.log = p.logs("predictor")
	return p
}

func (p *Predictor) componentLogger(name string) logger.Logger { return p.logs(name) }

// Trained reports whether models are available for serving.
func (p *Predictor) Trained() bool { return p.info != nil }

// Grid returns the zone grid predictions are made on.
func (p *Predictor) Grid() *zone.Grid { return p.grid }

// Train fits the feature engineer and both models on train. When val is
// not empty the advanced model monitors it. The previous models stay in
// place if training fails.
func (p *Predictor) Train(train, val []model.Trip) error {
	p.log.Infof("starting model training pipeline")
	eng := features.New(
		features.WithLogger(p.componentLogger("features")),
		features.WithCrossFit(p.cfg.CrossFitFolds),
	)
	X, err := eng.FitTransform(train)
	if err != nil {
		return fmt.Errorf("feature engineering: %w", err)
	}
	y := model.Labels(train)

	base := regression.NewBaseline(p.componentLogger("baseline-model"))
	if err := base.Fit(X, y); err != nil {
		return fmt.Errorf("baseline: %w", err)
	}

	var opts []regression.FitOption
	if len(val) > 0 {
		Xv, err := eng.Transform(val)
		if err != nil {
			return fmt.Errorf("validation features: %w", err)
		}
		opts = append(opts, regression.WithValidation(Xv, model.Labels(val)))
	}
	adv := regression.NewAdvanced(p.cfg.Boosting, p.componentLogger("advanced-model"))
	if err := adv.Fit(X, y, opts...); err != nil {
		return fmt.Errorf("advanced: %w", err)
	}

	cols := features.FeatureColumns(X)
	p.engineer, p.baseline, p.advanced = eng, base, adv
	p.info = &TrainingInfo{
		TrainSize:     len(train),
		ValSize:       len(val),
		FeaturesCount: len(cols),
		Features:      cols,
		TrainingDate:  p.now().UTC(),
		ModelVersion:  p.cfg.Version,
	}
	p.log.Infof("model training complete")
	return nil
}

// Info returns the training metadata.
func (p *Predictor) Info() (TrainingInfo, error) {
	if !p.Trained() {
		return TrainingInfo{}, ErrNotTrained
	}
	return *p.info, nil
}

// FeatureImportance returns the advanced model's importances.
func (p *Predictor) FeatureImportance() ([]regression.Importance, error) {
	if !p.Trained() {
		return nil, ErrNotTrained
	}
	return p.advanced.FeatureImportance()
}

func (p *Predictor) model(kind regression.Kind) (regression.Model, error) {
	switch kind {
	case regression.Baseline:
		return p.baseline, nil
	case regression.Advanced:
		return p.advanced, nil
	}
	return nil, fmt.Errorf("%s: %w", kind, ErrUnknownModel)
}

// Predict estimates the duration of a trip from pickup to dropoff requested
// at the given time. Weather is assumed clear and no event is flagged.
func (p *Predictor) Predict(pickup, dropoff int, at time.Time, kind regression.Kind) (Result, error) {
	if !p.Trained() {
		return Result{}, ErrNotTrained
	}
	m, err := p.model(kind)
	if err != nil {
		return Result{}, err
	}
	trip, err := model.Build(p.grid, p.cal, "", pickup, dropoff, at)
	if err != nil {
		return Result{}, err
	}
	X, err := p.engineer.Transform([]model.Trip{trip})
	if err != nil {
		return Result{}, err
	}

	var est, lower, upper float64
	switch kind {
	case regression.Advanced:
		pred, lo, hi, err := p.advanced.PredictWithConfidence(X, p.cfg.ConfidenceLevel)
		if err != nil {
			return Result{}, err
		}
		est, lower, upper = pred[0], lo[0], hi[0]
	default:
		pred, err := m.Predict(X)
		if err != nil {
			return Result{}, err
		}
		est = pred[0]
		lower, upper = regression.FlooredInterval(est, p.cfg.ConfidenceLevel)
	}

	return Result{
		Pickup:             pickup,
		Dropoff:            dropoff,
		RequestTime:        at,
		EstimatedDuration:  est,
		ConfidenceInterval: [2]float64{lower, upper},
		Factors:            Decompose(trip, est),
		Metadata: Metadata{
			PredictionID: uuid.NewString(),
			ModelType:    kind,
			ModelVersion: p.info.ModelVersion,
			Timestamp:    p.now().UTC(),
		},
	}, nil
}

// EvaluateAll scores both models on held-out trips.
func (p *Predictor) EvaluateAll(test []model.Trip) (Evaluation, error) {
	if !p.Trained() {
		return Evaluation{}, ErrNotTrained
	}
	p.log.Infof("evaluating models on %d test trips", len(test))
	X, err := p.engineer.Transform(test)
	if err != nil {
		return Evaluation{}, err
	}
	y := model.Labels(test)
	var ev Evaluation
	if ev.Baseline, err = p.baseline.Evaluate(X, y); err != nil {
		return Evaluation{}, fmt.Errorf("baseline: %w", err)
	}
	if ev.Advanced, err = p.advanced.Evaluate(X, y); err != nil {
		return Evaluation{}, fmt.Errorf("advanced: %w", err)
	}
	return ev, nil
}
