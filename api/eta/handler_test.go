package eta

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dubaieta/core/events"
	"github.com/kilianp07/dubaieta/core/prediction"
	"github.com/kilianp07/dubaieta/core/regression"
	"github.com/kilianp07/dubaieta/core/zone"
	"github.com/kilianp07/dubaieta/infra/logger"
	"github.com/kilianp07/dubaieta/internal/eventbus"
)

type fakePredictor struct {
	trained bool
	calls   []regression.Kind
	at      time.Time
}

func (f *fakePredictor) Trained() bool { return f.trained }

func (f *fakePredictor) Predict(pickup, dropoff int, at time.Time, kind regression.Kind) (prediction.Result, error) {
	f.calls = append(f.calls, kind)
	f.at = at
	return prediction.Result{
		Pickup:             pickup,
		Dropoff:            dropoff,
		RequestTime:        at,
		EstimatedDuration:  25,
		ConfidenceInterval: [2]float64{19.4, 30.6},
		Factors:            prediction.Factors{BaseTime: 18, TrafficAdjustment: 0.2, ZoneComplexity: 6.8},
		Metadata:           prediction.Metadata{PredictionID: "p-1", ModelType: kind, ModelVersion: "1.0"},
	}, nil
}

func (f *fakePredictor) Info() (prediction.TrainingInfo, error) {
	return prediction.TrainingInfo{TrainSize: 700, ValSize: 150, FeaturesCount: 12, ModelVersion: "1.0"}, nil
}

func (f *fakePredictor) FeatureImportance() ([]regression.Importance, error) {
	imp := make([]regression.Importance, 12)
	for i := range imp {
		imp[i] = regression.Importance{Feature: "f" + string(rune('a'+i)), Importance: float64(12-i) / 78}
	}
	return imp, nil
}

func newServer(t *testing.T, pred Predictor, opts ...Option) (http.Handler, *eventbus.TypedBus[eventbus.Event]) {
	t.Helper()
	grid, err := zone.NewGrid(zone.DefaultConfig())
	require.NoError(t, err)
	bus := eventbus.New()
	t.Cleanup(bus.Close)
	opts = append([]Option{WithBus(bus), WithLogger(logger.NopLogger{})}, opts...)
	return NewHandler(pred, grid, "1.0", opts...).Routes(nil), bus
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	for _, tc := range []struct {
		name string
		pred Predictor
		want bool
	}{
		{"no predictor", nil, false},
		{"untrained", &fakePredictor{}, false},
		{"trained", &fakePredictor{trained: true}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newServer(t, tc.pred)
			for _, path := range []string{"/", "/health"} {
				rr := do(t, h, http.MethodGet, path, "")
				require.Equal(t, http.StatusOK, rr.Code)
				var out HealthResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
				assert.Equal(t, HealthResponse{Status: "healthy", ModelLoaded: tc.want, Version: "1.0"}, out)
			}
		})
	}
}

func TestZones(t *testing.T) {
	h, _ := newServer(t, nil)
	rr := do(t, h, http.MethodGet, "/zones", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var out ZonesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out.Zones, 100)
	assert.Equal(t, zone.Zone{ID: 45, Row: 4, Col: 5, Type: zone.Business}, out.Zones[45])
	assert.Equal(t, zone.Airport, out.Zones[99].Type)
	assert.Equal(t, zone.Coastal, out.Zones[18].Type)
	assert.Equal(t, zone.Residential, out.Zones[0].Type)
}

func TestPredictETA(t *testing.T) {
	pred := &fakePredictor{trained: true}
	h, bus := newServer(t, pred)
	sub := bus.Subscribe()

	rr := do(t, h, http.MethodPost, "/predict_eta", `{"pickup_zone":5,"dropoff_zone":77,"request_time":"2024-03-04T08:15:00"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	for _, key := range []string{"estimated_duration_minutes", "confidence_interval", "factors", "metadata"} {
		assert.Contains(t, out, key)
	}
	assert.Equal(t, "advanced", out["metadata"].(map[string]any)["model_type"])
	assert.Equal(t, []regression.Kind{regression.Advanced}, pred.calls)
	assert.Equal(t, time.Date(2024, 3, 4, 8, 15, 0, 0, time.UTC), pred.at)

	select {
	case ev := <-sub:
		served, ok := ev.(events.PredictionServed)
		require.True(t, ok)
		assert.Equal(t, "p-1", served.Result.Metadata.PredictionID)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestPredictETABaselineAndOffsets(t *testing.T) {
	pred := &fakePredictor{trained: true}
	h, _ := newServer(t, pred)
	rr := do(t, h, http.MethodPost, "/predict_eta", `{"pickup_zone":1,"dropoff_zone":2,"request_time":"2024-03-04T08:15:00+04:00","model_type":"Baseline"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []regression.Kind{regression.Baseline}, pred.calls)
	assert.Equal(t, 8, pred.at.Hour())
}

func TestPredictETAValidation(t *testing.T) {
	cases := map[string]string{
		"malformed":      `{"pickup_zone":`,
		"missing pickup": `{"dropoff_zone":2,"request_time":"2024-03-04T08:15:00"}`,
		"out of range":   `{"pickup_zone":100,"dropoff_zone":2,"request_time":"2024-03-04T08:15:00"}`,
		"negative":       `{"pickup_zone":-1,"dropoff_zone":2,"request_time":"2024-03-04T08:15:00"}`,
		"same zone":      `{"pickup_zone":3,"dropoff_zone":3,"request_time":"2024-03-04T08:15:00"}`,
		"missing time":   `{"pickup_zone":1,"dropoff_zone":2}`,
		"bad time":       `{"pickup_zone":1,"dropoff_zone":2,"request_time":"yesterday"}`,
		"bad model":      `{"pickup_zone":1,"dropoff_zone":2,"request_time":"2024-03-04T08:15:00","model_type":"lstm"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			pred := &fakePredictor{trained: true}
			h, bus := newServer(t, pred)
			sub := bus.Subscribe()
			rr := do(t, h, http.MethodPost, "/predict_eta", body)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Empty(t, pred.calls)

			var out ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
			assert.NotEmpty(t, out.Error)

			ev := <-sub
			failed, ok := ev.(events.RequestFailed)
			require.True(t, ok)
			assert.Equal(t, "/predict_eta", failed.Route)
			assert.Equal(t, http.StatusUnprocessableEntity, failed.Status)
		})
	}
}

func TestPredictETANotLoaded(t *testing.T) {
	body := `{"pickup_zone":1,"dropoff_zone":2,"request_time":"2024-03-04T08:15:00"}`
	for _, pred := range []Predictor{nil, &fakePredictor{}} {
		h, _ := newServer(t, pred)
		rr := do(t, h, http.MethodPost, "/predict_eta", body)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	}
}

type mockPredictor struct {
	mock.Mock
}

func (m *mockPredictor) Trained() bool { return m.Called().Bool(0) }

func (m *mockPredictor) Predict(pickup, dropoff int, at time.Time, kind regression.Kind) (prediction.Result, error) {
	args := m.Called(pickup, dropoff, at, kind)
	return args.Get(0).(prediction.Result), args.Error(1)
}

func (m *mockPredictor) Info() (prediction.TrainingInfo, error) {
	args := m.Called()
	return args.Get(0).(prediction.TrainingInfo), args.Error(1)
}

func (m *mockPredictor) FeatureImportance() ([]regression.Importance, error) {
	args := m.Called()
	return args.Get(0).([]regression.Importance), args.Error(1)
}

func TestPredictETAErrors(t *testing.T) {
	body := `{"pickup_zone":1,"dropoff_zone":2,"request_time":"2024-03-04T08:15:00"}`
	at := time.Date(2024, 3, 4, 8, 15, 0, 0, time.UTC)
	for _, tc := range []struct {
		err  error
		want int
	}{
		{prediction.ErrNotTrained, http.StatusServiceUnavailable},
		{&zone.InvalidZoneError{Zone: 1, Count: 1}, http.StatusUnprocessableEntity},
		{prediction.ErrUnknownModel, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	} {
		pred := new(mockPredictor)
		pred.On("Trained").Return(true)
		pred.On("Predict", 1, 2, mock.MatchedBy(at.Equal), regression.Advanced).Return(prediction.Result{}, tc.err).Once()

		h, bus := newServer(t, pred)
		failures := bus.Subscribe()
		rr := do(t, h, http.MethodPost, "/predict_eta", body)
		assert.Equal(t, tc.want, rr.Code, tc.err.Error())
		pred.AssertExpectations(t)

		select {
		case ev := <-failures:
			failed, ok := ev.(events.RequestFailed)
			require.True(t, ok)
			assert.Equal(t, tc.want, failed.Status)
		case <-time.After(time.Second):
			t.Fatal("no RequestFailed event published")
		}
	}
}

func TestModelInfo(t *testing.T) {
	h, _ := newServer(t, &fakePredictor{trained: true}, WithTopFeatures(5))
	rr := do(t, h, http.MethodGet, "/model/info", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var out ModelInfoResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, 700, out.ModelInfo.TrainSize)
	require.Len(t, out.FeatureImportance, 5)
	assert.Equal(t, "fa", out.FeatureImportance[0].Feature)

	h, _ = newServer(t, &fakePredictor{})
	rr = do(t, h, http.MethodGet, "/model/info", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/predict_eta", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
