package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/dubaieta/api/eta"
	"github.com/kilianp07/dubaieta/config"
	coremetrics "github.com/kilianp07/dubaieta/core/metrics"
	coremon "github.com/kilianp07/dubaieta/core/monitoring"
	"github.com/kilianp07/dubaieta/core/prediction"
	"github.com/kilianp07/dubaieta/core/predlog"
	"github.com/kilianp07/dubaieta/core/zone"
	"github.com/kilianp07/dubaieta/infra/logger"
	"github.com/kilianp07/dubaieta/infra/metrics"
	"github.com/kilianp07/dubaieta/infra/monitoring"
	"github.com/kilianp07/dubaieta/infra/store"
	"github.com/kilianp07/dubaieta/internal/eventbus"
)

// Service serves predictions over HTTP from saved artifacts.
type Service struct {
	cfg     *config.Config
	pred    *prediction.Predictor
	handler http.Handler
	bus     *eventbus.TypedBus[eventbus.Event]
	sink    coremetrics.MetricsSink
	predLog predlog.Store
	log     logger.Logger
}

// LoadPredictor restores the predictor saved in the configured store.
// It returns prediction.ErrNoArtifacts when nothing was trained yet.
func LoadPredictor(ctx context.Context, cfg *config.Config) (*prediction.Predictor, error) {
	grid, err := zone.NewGrid(cfg.Zones)
	if err != nil {
		return nil, err
	}
	backend, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	defer func() { _ = backend.Close() }()
	return prediction.Load(ctx, backend, cfg.Model, grid, cfg.Traffic, prediction.WithLoggerFactory(logger.New))
}

// NewService builds the service. Missing artifacts are not fatal: the API
// starts and answers 503 on prediction routes until models are trained.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := logger.New("service")
	grid, err := zone.NewGrid(cfg.Zones)
	if err != nil {
		return nil, err
	}

	var api eta.Predictor
	pred, err := LoadPredictor(ctx, cfg)
	switch {
	case err == nil:
		api = pred
	case errors.Is(err, prediction.ErrNoArtifacts):
		log.Warnf("no saved models found in %s, train models first", cfg.Store.Path)
		pred = nil
	default:
		return nil, fmt.Errorf("load models: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	plog, err := predlog.Open(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("prediction log: %w", err)
	}

	bus := eventbus.New()
	h := eta.NewHandler(api, grid, cfg.Model.Version,
		eta.WithBus(bus),
		eta.WithTopFeatures(cfg.Server.TopFeatures),
	)
	return &Service{
		cfg:     cfg,
		pred:    pred,
		handler: h.Routes(cfg.Server.AllowedOrigins),
		bus:     bus,
		sink:    sink,
		predLog: plog,
		log:     log,
	}, nil
}

// Handler returns the API router.
func (s *Service) Handler() http.Handler { return s.handler }

// ModelLoaded reports whether trained models were restored.
func (s *Service) ModelLoaded() bool { return s.pred != nil }

// Run serves the API, and /metrics when configured, until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	// The collector outlives ctx so predictions served during shutdown are
	// recorded; it stops when the bus is closed.
	done := metrics.StartEventCollector(context.WithoutCancel(ctx), s.bus, s.sink, s.predLog)
	defer func() {
		s.bus.Close()
		<-done
		coremon.Flush(2 * time.Second)
	}()

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("API server listening on %s (models loaded: %t)", srv.Addr, s.ModelLoaded())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Close releases the prediction log.
func (s *Service) Close() error { return s.predLog.Close() }
