package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/dubaieta/config"
	"github.com/kilianp07/dubaieta/core/events"
	"github.com/kilianp07/dubaieta/core/generator"
	coremetrics "github.com/kilianp07/dubaieta/core/metrics"
	"github.com/kilianp07/dubaieta/core/model"
	"github.com/kilianp07/dubaieta/core/prediction"
	"github.com/kilianp07/dubaieta/core/zone"
	"github.com/kilianp07/dubaieta/infra/logger"
	"github.com/kilianp07/dubaieta/infra/metrics"
	"github.com/kilianp07/dubaieta/infra/store"
	"github.com/kilianp07/dubaieta/internal/eventbus"
	"github.com/kilianp07/dubaieta/pkg/export"
)

// TrainResult is the outcome of a training run.
type TrainResult struct {
	Predictor *prediction.Predictor
	Train     []model.Trip
	Val       []model.Trip
	Test      []model.Trip
	Report    export.Report
	Duration  time.Duration
}

// Generate builds the grid from cfg and samples the configured dataset.
func Generate(cfg *config.Config) ([]model.Trip, *generator.Generator, error) {
	grid, err := zone.NewGrid(cfg.Zones)
	if err != nil {
		return nil, nil, err
	}
	gen := generator.New(cfg.Data, cfg.Weather, cfg.Traffic, grid, generator.WithLogger(logger.New("generator")))
	trips, err := gen.Generate(cfg.Data.Trips)
	if err != nil {
		return nil, nil, fmt.Errorf("generate: %w", err)
	}
	return trips, gen, nil
}

// Train generates data, trains both models, scores them on the test split,
// saves the artifacts to the configured store and records the run through
// the configured metrics sinks.
func Train(ctx context.Context, cfg *config.Config) (*TrainResult, error) {
	log := logger.New("train")
	start := time.Now()

	trips, gen, err := Generate(cfg)
	if err != nil {
		return nil, err
	}
	train, val, test := gen.Split(trips)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grid, err := zone.NewGrid(cfg.Zones)
	if err != nil {
		return nil, err
	}
	pred := prediction.New(cfg.Model, grid, cfg.Traffic, prediction.WithLoggerFactory(logger.New))
	if err := pred.Train(train, val); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &TrainResult{Predictor: pred, Train: train, Val: val, Test: test}
	res.Report.TestSize = len(test)
	if res.Report.ModelInfo, err = pred.Info(); err != nil {
		return nil, err
	}
	if res.Report.FeatureImportance, err = pred.FeatureImportance(); err != nil {
		return nil, err
	}
	var eval *prediction.Evaluation
	if len(test) > 0 {
		ev, err := pred.EvaluateAll(test)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		res.Report.Evaluation = ev
		eval = &ev
		log.Infof("advanced model MAE improvement over baseline: %.1f%%", res.Report.Improvement())
	}

	backend, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	defer func() { _ = backend.Close() }()
	if err := pred.Save(ctx, backend); err != nil {
		return nil, fmt.Errorf("save artifacts: %w", err)
	}
	log.Infof("models saved to %s store at %s", cfg.Store.Backend, cfg.Store.Path)

	res.Duration = time.Since(start)
	if err := recordTraining(ctx, cfg, events.ModelTrained{Info: res.Report.ModelInfo, Evaluation: eval, Duration: res.Duration}); err != nil {
		log.Warnf("record training metrics: %v", err)
	}
	return res, nil
}

// recordTraining routes ev through a short-lived bus so training runs are
// recorded the same way as served predictions.
func recordTraining(ctx context.Context, cfg *config.Config, ev events.ModelTrained) error {
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return err
	}
	bus := eventbus.New()
	done := metrics.StartEventCollector(ctx, bus, sink, nil)
	bus.Publish(ev)
	bus.Close()
	<-done
	return nil
}
