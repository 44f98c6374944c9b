package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/dubaieta/core/events"
	coremetrics "github.com/kilianp07/dubaieta/core/metrics"
	"github.com/kilianp07/dubaieta/core/monitoring"
	"github.com/kilianp07/dubaieta/core/predlog"
	"github.com/kilianp07/dubaieta/core/regression"
	"github.com/kilianp07/dubaieta/infra/logger"
	"github.com/kilianp07/dubaieta/internal/eventbus"
)

// StartEventCollector subscribes to the bus, forwards events to sink and
// appends served predictions to store. A nil store skips the audit log.
// Server errors are also reported to the process monitor.
// The returned channel is closed once the collector has stopped, which
// happens when the bus is closed or ctx is canceled. Events already
// buffered at that point are still handled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, store predlog.Store) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil {
		close(done)
		return done
	}
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if store == nil {
		store = predlog.NopStore{}
	}
	log := logger.New("event-collector")
	sub := bus.Subscribe()
	// Writes outlive ctx so events in flight at cancellation are recorded.
	writeCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				drain(writeCtx, sub, sink, store, log)
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				collect(writeCtx, ev, sink, store, log)
			}
		}
	}()
	return done
}

// drain handles the events buffered on sub without waiting for more.
func drain(ctx context.Context, sub <-chan eventbus.Event, sink coremetrics.MetricsSink, store predlog.Store, log logger.Logger) {
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			collect(ctx, ev, sink, store, log)
		default:
			return
		}
	}
}

func collect(ctx context.Context, ev eventbus.Event, sink coremetrics.MetricsSink, store predlog.Store, log logger.Logger) {
	switch e := ev.(type) {
	case events.PredictionServed:
		if err := sink.RecordPrediction(coremetrics.NewPredictionSample(e.Result, e.Latency)); err != nil {
			log.Warnf("record prediction: %v", err)
		}
		if err := store.Append(ctx, predlog.FromResult(e.Result, e.Latency)); err != nil {
			log.Errorf("append prediction log: %v", err)
		}
	case events.ModelTrained:
		now := e.Info.TrainingDate
		if now.IsZero() {
			now = time.Now()
		}
		if r, ok := sink.(coremetrics.TrainingRecorder); ok {
			if err := r.RecordTraining(coremetrics.TrainingSample{
				Version:   e.Info.ModelVersion,
				TrainSize: e.Info.TrainSize,
				ValSize:   e.Info.ValSize,
				Features:  e.Info.FeaturesCount,
				Duration:  e.Duration,
				Time:      now,
			}); err != nil {
				log.Warnf("record training: %v", err)
			}
		}
		r, ok := sink.(coremetrics.EvaluationRecorder)
		if !ok || e.Evaluation == nil {
			return
		}
		for kind, m := range map[regression.Kind]regression.Metrics{
			regression.Baseline: e.Evaluation.Baseline,
			regression.Advanced: e.Evaluation.Advanced,
		} {
			if err := r.RecordEvaluation(coremetrics.EvaluationSample{
				ModelType: kind.String(),
				Version:   e.Info.ModelVersion,
				MAE:       m.MAE,
				RMSE:      m.RMSE,
				R2:        m.R2,
				MAPE:      m.MAPE,
				Time:      now,
			}); err != nil {
				log.Warnf("record evaluation: %v", err)
			}
		}
	case events.RequestFailed:
		if e.Status >= http.StatusInternalServerError {
			monitoring.CaptureException(e.Err, map[string]string{"route": e.Route, "status": strconv.Itoa(e.Status)})
		}
		if r, ok := sink.(coremetrics.RequestErrorRecorder); ok {
			if err := r.RecordRequestError(coremetrics.RequestErrorSample{Route: e.Route, Status: e.Status, Time: e.Time}); err != nil {
				log.Warnf("record request error: %v", err)
			}
		}
	}
}
