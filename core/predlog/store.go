// Package predlog keeps an append-only audit trail of served predictions.
package predlog

import (
	"context"
	"time"

	"github.com/kilianp07/dubaieta/core/prediction"
)

// Record captures one served prediction.
type Record struct {
	PredictionID string             `json:"prediction_id"`
	Timestamp    time.Time          `json:"timestamp"`
	Pickup       int                `json:"pickup_zone"`
	Dropoff      int                `json:"dropoff_zone"`
	RequestTime  time.Time          `json:"request_time"`
	ModelType    string             `json:"model_type"`
	ModelVersion string             `json:"model_version"`
	Estimate     float64            `json:"estimated_duration_minutes"`
	Lower        float64            `json:"lower"`
	Upper        float64            `json:"upper"`
	Factors      prediction.Factors `json:"factors"`
	LatencyMS    float64            `json:"latency_ms"`
}

// FromResult builds a record for res served in latency.
func FromResult(res prediction.Result, latency time.Duration) Record {
	return Record{
		PredictionID: res.Metadata.PredictionID,
		Timestamp:    res.Metadata.Timestamp,
		Pickup:       res.Pickup,
		Dropoff:      res.Dropoff,
		RequestTime:  res.RequestTime,
		ModelType:    res.Metadata.ModelType.String(),
		ModelVersion: res.Metadata.ModelVersion,
		Estimate:     res.EstimatedDuration,
		Lower:        res.ConfidenceInterval[0],
		Upper:        res.ConfidenceInterval[1],
		Factors:      res.Factors,
		LatencyMS:    float64(latency.Microseconds()) / 1000,
	}
}

// Query filters records. Zero values match everything.
type Query struct {
	Start     time.Time
	End       time.Time
	ModelType string
	Limit     int
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	return q.ModelType == "" || r.ModelType == q.ModelType
}

// Store persists records and supports querying in timestamp order.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
