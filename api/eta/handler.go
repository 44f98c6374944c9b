package eta

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kilianp07/dubaieta/core/events"
	"github.com/kilianp07/dubaieta/core/prediction"
	"github.com/kilianp07/dubaieta/core/regression"
	"github.com/kilianp07/dubaieta/core/zone"
	"github.com/kilianp07/dubaieta/infra/logger"
	"github.com/kilianp07/dubaieta/internal/eventbus"
)

// Predictor is the part of prediction.Predictor the handlers need.
type Predictor interface {
	Trained() bool
	Predict(pickup, dropoff int, at time.Time, kind regression.Kind) (prediction.Result, error)
	Info() (prediction.TrainingInfo, error)
	FeatureImportance() ([]regression.Importance, error)
}

// DefaultTopFeatures is the number of importances returned by /model/info.
const DefaultTopFeatures = 10

// Handler serves the ETA API.
type Handler struct {
	pred    Predictor
	grid    *zone.Grid
	version string
	bus     eventbus.EventBus
	topN    int
	log     logger.Logger
	now     func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithBus publishes served predictions and failed requests on bus.
func WithBus(bus eventbus.EventBus) Option { return func(h *Handler) { h.bus = bus } }

// WithLogger overrides the handler logger.
func WithLogger(l logger.Logger) Option { return func(h *Handler) { h.log = l } }

// WithTopFeatures sets how many importances /model/info returns.
func WithTopFeatures(n int) Option { return func(h *Handler) { h.topN = n } }

// NewHandler creates a handler. pred may be nil when no model is loaded.
func NewHandler(pred Predictor, grid *zone.Grid, version string, opts ...Option) *Handler {
	h := &Handler{
		pred:    pred,
		grid:    grid,
		version: version,
		topN:    DefaultTopFeatures,
		now:     time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	if h.log == nil {
		h.log = logger.New("eta-api")
	}
	return h
}

func (h *Handler) loaded() bool { return h.pred != nil && h.pred.Trained() }

// HealthResponse is returned by / and /health.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}

// Health handles GET / and GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", ModelLoaded: h.loaded(), Version: h.version})
}

// ZonesResponse lists every zone of the grid.
type ZonesResponse struct {
	Zones []zone.Zone `json:"zones"`
}

// Zones handles GET /zones.
func (h *Handler) Zones(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ZonesResponse{Zones: h.grid.Zones()})
}

// PredictETA handles POST /predict_eta.
func (h *Handler) PredictETA(w http.ResponseWriter, r *http.Request) {
	var req ETARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, http.StatusUnprocessableEntity, "invalid request body", err)
		return
	}
	in, err := req.validate(h.grid)
	if err != nil {
		h.fail(w, r, http.StatusUnprocessableEntity, "validation failed", err)
		return
	}
	if !h.loaded() {
		h.fail(w, r, http.StatusServiceUnavailable, "models not loaded, train models first", prediction.ErrNotTrained)
		return
	}

	start := h.now()
	res, err := h.pred.Predict(in.pickup, in.dropoff, in.at, in.kind)
	latency := h.now().Sub(start)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Errorf("prediction error: %v", err)
		}
		h.fail(w, r, status, "prediction failed", err)
		return
	}
	if h.bus != nil {
		h.bus.Publish(events.PredictionServed{Result: res, Latency: latency})
	}
	writeJSON(w, http.StatusOK, res)
}

// ModelInfoResponse describes the loaded models.
type ModelInfoResponse struct {
	ModelInfo         prediction.TrainingInfo `json:"model_info"`
	FeatureImportance []regression.Importance `json:"feature_importance"`
}

// ModelInfo handles GET /model/info.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	if !h.loaded() {
		h.fail(w, r, http.StatusServiceUnavailable, "models not loaded, train models first", prediction.ErrNotTrained)
		return
	}
	info, err := h.pred.Info()
	if err != nil {
		h.fail(w, r, statusFor(err), "model info unavailable", err)
		return
	}
	imp, err := h.pred.FeatureImportance()
	if err != nil {
		h.fail(w, r, statusFor(err), "feature importance unavailable", err)
		return
	}
	if h.topN > 0 && len(imp) > h.topN {
		imp = imp[:h.topN]
	}
	writeJSON(w, http.StatusOK, ModelInfoResponse{ModelInfo: info, FeatureImportance: imp})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, prediction.ErrNotTrained):
		return http.StatusServiceUnavailable
	case errors.Is(err, zone.ErrInvalidZone),
		errors.Is(err, zone.ErrSameZone),
		errors.Is(err, prediction.ErrUnknownModel):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if h.bus != nil {
		h.bus.Publish(events.RequestFailed{Route: r.URL.Path, Status: status, Err: err, Time: h.now().UTC()})
	}
	body := ErrorResponse{Error: msg}
	if err != nil {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
