package metrics

import (
	"errors"
	"strconv"

	coremetrics "github.com/kilianp07/dubaieta/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records prediction traffic and model quality in Prometheus metrics.
type PromSink struct {
	predictions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	estimates   *prometheus.HistogramVec
	evaluation  *prometheus.GaugeVec
	trainSize   *prometheus.GaugeVec
	trainTime   prometheus.Gauge
	reqErrors   *prometheus.CounterVec
}

// NewPromSink registers the ETA metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eta_predictions_total",
			Help: "Total number of served ETA predictions",
		}, []string{"model_type"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eta_prediction_latency_seconds",
			Help:    "Time spent computing a prediction",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"model_type"}),
		estimates: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eta_estimated_duration_minutes",
			Help:    "Distribution of estimated trip durations",
			Buckets: []float64{5, 10, 15, 20, 30, 45, 60, 90, 120, 180},
		}, []string{"model_type"}),
		evaluation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eta_model_evaluation",
			Help: "Held-out error metrics of the trained models",
		}, []string{"model_type", "metric"}),
		trainSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eta_training_samples",
			Help: "Number of trips used by the last training run",
		}, []string{"split"}),
		trainTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eta_training_duration_seconds",
			Help: "Wall time of the last training run",
		}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eta_request_errors_total",
			Help: "Requests that ended with an error status",
		}, []string{"route", "status"}),
	}
	var err error
	if s.predictions, err = register(reg, s.predictions); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.estimates, err = register(reg, s.estimates); err != nil {
		return nil, err
	}
	if s.evaluation, err = register(reg, s.evaluation); err != nil {
		return nil, err
	}
	if s.trainSize, err = register(reg, s.trainSize); err != nil {
		return nil, err
	}
	if s.trainTime, err = register(reg, s.trainTime); err != nil {
		return nil, err
	}
	if s.reqErrors, err = register(reg, s.reqErrors); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPrediction counts the prediction and observes its latency and value.
func (s *PromSink) RecordPrediction(p coremetrics.PredictionSample) error {
	s.predictions.WithLabelValues(p.ModelType).Inc()
	s.latency.WithLabelValues(p.ModelType).Observe(p.Latency.Seconds())
	s.estimates.WithLabelValues(p.ModelType).Observe(p.Estimate)
	return nil
}

// RecordEvaluation sets one gauge per metric for the model.
func (s *PromSink) RecordEvaluation(ev coremetrics.EvaluationSample) error {
	s.evaluation.WithLabelValues(ev.ModelType, "mae").Set(ev.MAE)
	s.evaluation.WithLabelValues(ev.ModelType, "rmse").Set(ev.RMSE)
	s.evaluation.WithLabelValues(ev.ModelType, "r2").Set(ev.R2)
	s.evaluation.WithLabelValues(ev.ModelType, "mape").Set(ev.MAPE)
	return nil
}

// RecordTraining records the sizes and duration of a training run.
func (s *PromSink) RecordTraining(ev coremetrics.TrainingSample) error {
	s.trainSize.WithLabelValues("train").Set(float64(ev.TrainSize))
	s.trainSize.WithLabelValues("validation").Set(float64(ev.ValSize))
	s.trainTime.Set(ev.Duration.Seconds())
	return nil
}

// RecordRequestError counts a failed request.
func (s *PromSink) RecordRequestError(ev coremetrics.RequestErrorSample) error {
	s.reqErrors.WithLabelValues(ev.Route, statusLabel(ev.Status)).Inc()
	return nil
}

func statusLabel(code int) string { return strconv.Itoa(code) }
