package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/dubaieta/core/metrics"
	"github.com/kilianp07/dubaieta/infra/logger"
)

// InfluxSink writes prediction and model events to InfluxDB using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPrediction writes one eta_prediction point.
func (s *InfluxSink) RecordPrediction(p coremetrics.PredictionSample) error {
	pt := write.NewPointWithMeasurement("eta_prediction").
		AddTag("model_type", p.ModelType).
		AddTag("model_version", p.ModelVersion).
		AddTag("pickup_zone", strconv.Itoa(p.Pickup)).
		AddTag("dropoff_zone", strconv.Itoa(p.Dropoff)).
		AddField("prediction_id", p.PredictionID).
		AddField("estimate_min", round3(p.Estimate)).
		AddField("lower_min", round3(p.Lower)).
		AddField("upper_min", round3(p.Upper)).
		AddField("base_time", round3(p.BaseTime)).
		AddField("traffic_adjustment", round3(p.TrafficAdjustment)).
		AddField("zone_complexity", round3(p.ZoneComplexity)).
		AddField("latency_ms", round3(p.Latency.Seconds()*1000)).
		SetTime(p.Time)
	return s.write(pt)
}

// RecordEvaluation writes the held-out metrics of one model.
func (s *InfluxSink) RecordEvaluation(ev coremetrics.EvaluationSample) error {
	pt := write.NewPointWithMeasurement("eta_evaluation").
		AddTag("model_type", ev.ModelType).
		AddTag("model_version", ev.Version).
		AddField("mae", round3(ev.MAE)).
		AddField("rmse", round3(ev.RMSE)).
		AddField("r2", round3(ev.R2)).
		AddField("mape", round3(ev.MAPE)).
		SetTime(ev.Time)
	return s.write(pt)
}

// RecordTraining writes a summary of a training run.
func (s *InfluxSink) RecordTraining(ev coremetrics.TrainingSample) error {
	pt := write.NewPointWithMeasurement("eta_training").
		AddTag("model_version", ev.Version).
		AddField("train_size", ev.TrainSize).
		AddField("val_size", ev.ValSize).
		AddField("features", ev.Features).
		AddField("duration_s", round3(ev.Duration.Seconds())).
		SetTime(ev.Time)
	return s.write(pt)
}

// RecordRequestError writes a failed request.
func (s *InfluxSink) RecordRequestError(ev coremetrics.RequestErrorSample) error {
	pt := write.NewPointWithMeasurement("eta_request_error").
		AddTag("route", ev.Route).
		AddTag("status", statusLabel(ev.Status)).
		AddField("count", 1).
		SetTime(ev.Time)
	return s.write(pt)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
