package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dubaieta/config"
	"github.com/kilianp07/dubaieta/core/prediction"
	"github.com/kilianp07/dubaieta/core/regression"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Data.Trips = 800
	cfg.Model.Boosting.Estimators = 30
	cfg.Model.Boosting.MaxDepth = 4
	cfg.Model.Boosting.LearningRate = 0.3
	cfg.Store.Path = filepath.Join(dir, "models")
	cfg.Logging.Path = filepath.Join(dir, "logs", "predictions.jsonl")
	cfg.Server.Addr = "127.0.0.1:0"
	return cfg
}

func TestTrainSavesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	res, err := Train(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 560, len(res.Train))
	assert.Equal(t, 120, len(res.Val))
	assert.Equal(t, 120, len(res.Test))
	assert.Equal(t, 560, res.Report.ModelInfo.TrainSize)
	assert.Equal(t, 120, res.Report.TestSize)
	assert.NotEmpty(t, res.Report.FeatureImportance)
	assert.Greater(t, res.Report.Evaluation.Advanced.MAE, 0.0)

	pred, err := LoadPredictor(context.Background(), cfg)
	require.NoError(t, err)
	at := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	want, err := res.Predictor.Predict(1, 88, at, regression.Advanced)
	require.NoError(t, err)
	got, err := pred.Predict(1, 88, at, regression.Advanced)
	require.NoError(t, err)
	assert.Equal(t, want.EstimatedDuration, got.EstimatedDuration)
}

func TestTrainCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Train(ctx, testConfig(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServiceWithoutModels(t *testing.T) {
	cfg := testConfig(t)
	svc, err := NewService(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	assert.False(t, svc.ModelLoaded())

	rr := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"model_loaded":false`)

	rr = httptest.NewRecorder()
	body := `{"pickup_zone":1,"dropoff_zone":2,"request_time":"2024-03-04T08:00:00"}`
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/predict_eta", strings.NewReader(body)))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestServiceServesTrainedModels(t *testing.T) {
	cfg := testConfig(t)
	_, err := Train(context.Background(), cfg)
	require.NoError(t, err)

	svc, err := NewService(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	require.True(t, svc.ModelLoaded())

	rr := httptest.NewRecorder()
	body := `{"pickup_zone":5,"dropoff_zone":77,"request_time":"2024-03-04T08:00:00","model_type":"baseline"}`
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/predict_eta", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res prediction.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, regression.Baseline, res.Metadata.ModelType)
	assert.Greater(t, res.EstimatedDuration, 0.0)
	assert.LessOrEqual(t, res.ConfidenceInterval[0], res.EstimatedDuration)
	assert.GreaterOrEqual(t, res.ConfidenceInterval[1], res.EstimatedDuration)
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	svc, err := NewService(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
}
