package events

import (
	"time"

	"github.com/kilianp07/dubaieta/core/prediction"
)

// PredictionServed is published for every successful prediction.
type PredictionServed struct {
	Result  prediction.Result
	Latency time.Duration
}

// ModelTrained is published when training completes. Evaluation is nil
// when no test set was scored.
type ModelTrained struct {
	Info       prediction.TrainingInfo
	Evaluation *prediction.Evaluation
	Duration   time.Duration
}

// RequestFailed is published when a request ends with an error status.
type RequestFailed struct {
	Route  string
	Status int
	Err    error
	Time   time.Time
}
