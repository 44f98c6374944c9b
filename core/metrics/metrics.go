package metrics

import (
	"time"

	"github.com/kilianp07/dubaieta/core/prediction"
)

// PredictionSample is one served prediction to be recorded.
type PredictionSample struct {
	PredictionID      string
	ModelType         string
	ModelVersion      string
	Pickup            int
	Dropoff           int
	Estimate          float64
	Lower             float64
	Upper             float64
	BaseTime          float64
	TrafficAdjustment float64
	ZoneComplexity    float64
	Latency           time.Duration
	Time              time.Time
}

// NewPredictionSample flattens a prediction result.
func NewPredictionSample(res prediction.Result, latency time.Duration) PredictionSample {
	return PredictionSample{
		PredictionID:      res.Metadata.PredictionID,
		ModelType:         res.Metadata.ModelType.String(),
		ModelVersion:      res.Metadata.ModelVersion,
		Pickup:            res.Pickup,
		Dropoff:           res.Dropoff,
		Estimate:          res.EstimatedDuration,
		Lower:             res.ConfidenceInterval[0],
		Upper:             res.ConfidenceInterval[1],
		BaseTime:          res.Factors.BaseTime,
		TrafficAdjustment: res.Factors.TrafficAdjustment,
		ZoneComplexity:    res.Factors.ZoneComplexity,
		Latency:           latency,
		Time:              res.Metadata.Timestamp,
	}
}

// MetricsSink records served predictions for observability purposes.
type MetricsSink interface {
	RecordPrediction(s PredictionSample) error
}

// EvaluationSample holds held-out metrics of one model.
type EvaluationSample struct {
	ModelType string
	Version   string
	MAE       float64
	RMSE      float64
	R2        float64
	MAPE      float64
	Time      time.Time
}

// EvaluationRecorder records model evaluations.
type EvaluationRecorder interface {
	RecordEvaluation(ev EvaluationSample) error
}

// TrainingSample describes a finished training run.
type TrainingSample struct {
	Version   string
	TrainSize int
	ValSize   int
	Features  int
	Duration  time.Duration
	Time      time.Time
}

// TrainingRecorder records training runs.
type TrainingRecorder interface {
	RecordTraining(ev TrainingSample) error
}

// RequestErrorSample is a failed HTTP request.
type RequestErrorSample struct {
	Route  string
	Status int
	Time   time.Time
}

// RequestErrorRecorder records failed requests.
type RequestErrorRecorder interface {
	RecordRequestError(ev RequestErrorSample) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionSample) error     { return nil }
func (NopSink) RecordEvaluation(EvaluationSample) error     { return nil }
func (NopSink) RecordTraining(TrainingSample) error         { return nil }
func (NopSink) RecordRequestError(RequestErrorSample) error { return nil }
