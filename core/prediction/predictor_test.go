package prediction

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dubaieta/core/generator"
	"github.com/kilianp07/dubaieta/core/logger"
	"github.com/kilianp07/dubaieta/core/model"
	"github.com/kilianp07/dubaieta/core/regression"
	"github.com/kilianp07/dubaieta/core/traffic"
	"github.com/kilianp07/dubaieta/core/zone"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type dataset struct {
	grid             *zone.Grid
	train, val, test []model.Trip
}

func newDataset(t *testing.T, n int) dataset {
	t.Helper()
	grid, err := zone.NewGrid(zone.DefaultConfig())
	require.NoError(t, err)
	gen := generator.New(generator.DefaultConfig(), generator.DefaultWeather(), traffic.DefaultConfig(), grid,
		generator.WithLogger(logger.NopLogger{}))
	trips, err := gen.Generate(n)
	require.NoError(t, err)
	train, val, test := generator.Split(trips, 0.7, 0.15)
	return dataset{grid: grid, train: train, val: val, test: test}
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Boosting.Estimators = 40
	cfg.Boosting.MaxDepth = 4
	return cfg
}

func newPredictor(ds dataset, cfg Config) *Predictor {
	return New(cfg, ds.grid, traffic.DefaultConfig(), WithLogger(logger.NopLogger{}),
		WithClock(func() time.Time { return fixedNow }))
}

func trained(t *testing.T) (*Predictor, dataset) {
	t.Helper()
	ds := newDataset(t, 600)
	p := newPredictor(ds, smallConfig())
	require.NoError(t, p.Train(ds.train, ds.val))
	return p, ds
}

func TestPredictBeforeTrain(t *testing.T) {
	ds := newDataset(t, 50)
	p := newPredictor(ds, smallConfig())
	assert.False(t, p.Trained())

	_, err := p.Predict(0, 1, fixedNow, regression.Advanced)
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = p.EvaluateAll(ds.test)
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = p.Snapshot()
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = p.Info()
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = p.FeatureImportance()
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestTrainFailureKeepsState(t *testing.T) {
	ds := newDataset(t, 50)
	p := newPredictor(ds, smallConfig())
	assert.Error(t, p.Train(nil, nil))
	assert.False(t, p.Trained())
}

func TestPredictResult(t *testing.T) {
	p, _ := trained(t)
	info, err := p.Info()
	require.NoError(t, err)
	assert.Equal(t, 420, info.TrainSize)
	assert.Equal(t, 90, info.ValSize)
	assert.Equal(t, len(info.Features), info.FeaturesCount)
	assert.Equal(t, fixedNow, info.TrainingDate)

	// Monday 08:00 is rush hour
	at := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	for _, kind := range []regression.Kind{regression.Baseline, regression.Advanced} {
		res, err := p.Predict(0, 99, at, kind)
		require.NoError(t, err, kind)
		est := res.EstimatedDuration
		assert.Greater(t, est, 0.0)
		assert.Less(t, res.ConfidenceInterval[0], est)
		assert.Greater(t, res.ConfidenceInterval[1], est)
		assert.InDelta(t, est, res.Factors.Sum(), 1e-9)
		assert.Equal(t, 54.0, res.Factors.BaseTime)
		assert.InDelta(t, 0.2*est, res.Factors.TrafficAdjustment, 1e-9)
		assert.Equal(t, 0.0, res.Factors.WeatherImpact)
		assert.Equal(t, kind, res.Metadata.ModelType)
		assert.Equal(t, "1.0", res.Metadata.ModelVersion)
		assert.Len(t, res.Metadata.PredictionID, 36)
		assert.Equal(t, fixedNow, res.Metadata.Timestamp)
	}
}

func TestPredictValidation(t *testing.T) {
	p, _ := trained(t)
	_, err := p.Predict(3, 3, fixedNow, regression.Advanced)
	assert.ErrorIs(t, err, zone.ErrSameZone)
	_, err = p.Predict(0, 100, fixedNow, regression.Advanced)
	assert.ErrorIs(t, err, zone.ErrInvalidZone)
	_, err = p.Predict(-1, 4, fixedNow, regression.Baseline)
	var ize *zone.InvalidZoneError
	assert.ErrorAs(t, err, &ize)
	_, err = p.Predict(0, 1, fixedNow, regression.Kind(9))
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestPredictResultJSON(t *testing.T) {
	p, _ := trained(t)
	res, err := p.Predict(10, 20, fixedNow, regression.Baseline)
	require.NoError(t, err)
	b, err := json.Marshal(res)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Contains(t, doc, "estimated_duration_minutes")
	assert.Len(t, doc["confidence_interval"], 2)
	meta := doc["metadata"].(map[string]any)
	assert.Equal(t, "baseline", meta["model_type"])
	factors := doc["factors"].(map[string]any)
	for _, k := range []string{"base_time", "traffic_adjustment", "weather_impact", "zone_complexity"} {
		assert.Contains(t, factors, k)
	}
}

func TestConcurrentPredict(t *testing.T) {
	p, _ := trained(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := p.Predict(i, 99-i, fixedNow.Add(time.Duration(i)*time.Hour), regression.Advanced)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

type memStore struct{ a Artifacts }

func (m *memStore) Save(_ context.Context, a Artifacts) error {
	m.a = a
	return nil
}

func (m *memStore) Load(context.Context) (Artifacts, error) { return m.a, nil }

func TestSnapshotRestore(t *testing.T) {
	p, ds := trained(t)
	store := &memStore{}
	require.NoError(t, p.Save(context.Background(), store))
	assert.Len(t, store.a, len(ArtifactNames))

	back, err := Load(context.Background(), store, smallConfig(), ds.grid, traffic.DefaultConfig(),
		WithLogger(logger.NopLogger{}), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	require.True(t, back.Trained())

	for _, kind := range []regression.Kind{regression.Baseline, regression.Advanced} {
		want, err := p.Predict(5, 77, fixedNow, kind)
		require.NoError(t, err)
		got, err := back.Predict(5, 77, fixedNow, kind)
		require.NoError(t, err)
		assert.Equal(t, want.EstimatedDuration, got.EstimatedDuration)
		assert.Equal(t, want.ConfidenceInterval, got.ConfidenceInterval)
		assert.Equal(t, want.Factors, got.Factors)
	}
	wantInfo, _ := p.Info()
	gotInfo, _ := back.Info()
	assert.Equal(t, wantInfo, gotInfo)

	partial := Artifacts{ArtifactMetadata: store.a[ArtifactMetadata]}
	_, err = Restore(partial, smallConfig(), ds.grid, traffic.DefaultConfig(), WithLogger(logger.NopLogger{}))
	assert.Error(t, err)
}

func TestEvaluateAdvancedBeatsBaseline(t *testing.T) {
	if testing.Short() {
		t.Skip("trains the full default ensemble")
	}
	ds := newDataset(t, 1000)
	p := newPredictor(ds, DefaultConfig())
	require.NoError(t, p.Train(ds.train, ds.val))

	ev, err := p.EvaluateAll(ds.test)
	require.NoError(t, err)
	assert.Greater(t, ev.Baseline.MAE, ev.Advanced.MAE)
	assert.False(t, math.IsNaN(ev.Advanced.R2))

	imp, err := p.FeatureImportance()
	require.NoError(t, err)
	assert.Len(t, imp, len(p.info.Features))
}

func TestDecompose(t *testing.T) {
	cases := []struct {
		name    string
		trip    model.Trip
		traffic float64
	}{
		{"rush", model.Trip{Distance: 4, RushHour: true}, 8},
		{"prayer", model.Trip{Distance: 4, FridayPrayer: true}, 6},
		{"rush wins", model.Trip{Distance: 4, RushHour: true, FridayPrayer: true}, 8},
		{"plain", model.Trip{Distance: 4}, 0},
	}
	for _, c := range cases {
		f := Decompose(c.trip, 40)
		assert.Equal(t, 12.0, f.BaseTime, c.name)
		assert.InDelta(t, c.traffic, f.TrafficAdjustment, 1e-12, c.name)
		assert.InDelta(t, 40, f.Sum(), 1e-12, c.name)
	}
	// a short estimate yields a negative residual
	f := Decompose(model.Trip{Distance: 10}, 20)
	assert.Equal(t, -10.0, f.ZoneComplexity)
}

func TestConfigValidate(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	want := DefaultConfig()
	want.Boosting.Seed = 0
	assert.Equal(t, want, cfg)
	require.NoError(t, cfg.Validate())
	cfg.ConfidenceLevel = 1
	assert.Error(t, cfg.Validate())
}

func TestLoggerFactoryNamesComponents(t *testing.T) {
	ds := newDataset(t, 300)
	var names []string
	factory := func(component string) logger.Logger {
		names = append(names, component)
		return logger.NopLogger{}
	}
	p := New(smallConfig(), ds.grid, traffic.DefaultConfig(), WithLoggerFactory(factory))
	require.NoError(t, p.Train(ds.train, nil))
	assert.ElementsMatch(t, []string{"predictor", "features", "baseline-model", "advanced-model"}, names)
}
