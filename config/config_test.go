package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dubaieta/core/zone"
)

func write(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := write(t, "config.yaml", `zones:
  grid_size: 4
  count: 16
  assignments:
    - type: airport
      cells: [15]
traffic:
  rush_hours:
    morning: [8]
    evening: [18]
data:
  n_trips: 1200
  seed: 0
  days: 0
model:
  confidence_level: 0.99
  boosting:
    n_estimators: 50
    random_state: 0
    max_depth: 4
store:
  backend: sqlite
logging:
  backend: none
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: prometheus
    - type: influx
      conf:
        url: http://localhost:8086
        bucket: eta
server:
  addr: ":8080"
  read_timeout: 3s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"grid", cfg.Zones.GridSize, 4},
		{"assignments", len(cfg.Zones.Assignments), 1},
		{"assignment type", cfg.Zones.Assignments[0].Type, zone.Airport},
		{"morning", cfg.Traffic.RushHours.Morning, []int{8}},
		{"slowdown default", cfg.Traffic.RushHours.SlowdownFactor, 1.5},
		{"weather default", cfg.Weather.RainProb, 0.05},
		{"trips", cfg.Data.Trips, 1200},
		{"explicit zero seed", cfg.Data.Seed, int64(0)},
		{"explicit zero days", cfg.Data.Days, 0},
		{"explicit zero boosting seed", cfg.Model.Boosting.Seed, int64(0)},
		{"split default", cfg.Data.TrainRatio, 0.7},
		{"confidence", cfg.Model.ConfidenceLevel, 0.99},
		{"estimators", cfg.Model.Boosting.Estimators, 50},
		{"learning rate default", cfg.Model.Boosting.LearningRate, 0.1},
		{"version default", cfg.Model.Version, "1.0"},
		{"store", cfg.Store.Backend, "sqlite"},
		{"store path", cfg.Store.Path, "data/models/artifacts.db"},
		{"logging", cfg.Logging.Backend, "none"},
		{"sinks", len(cfg.Metrics.Sinks), 2},
		{"sink conf", cfg.Metrics.Sinks[1].Conf["bucket"], "eta"},
		{"prom addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"addr", cfg.Server.Addr, ":8080"},
		{"read timeout", cfg.Server.ReadTimeout, 3 * time.Second},
		{"write timeout default", cfg.Server.WriteTimeout, 30 * time.Second},
		{"origins default", cfg.Server.AllowedOrigins, []string{"*"}},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	path := write(t, "config.json", `{"data":{"n_trips":500},"server":{"addr":":8000"}}`)
	t.Setenv("ETA_SERVER__ADDR", ":9999")
	t.Setenv("ETA_MODEL__BOOSTING__MAX_DEPTH", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Model.Boosting.MaxDepth)
	assert.Equal(t, 500, cfg.Data.Trips)
	assert.Equal(t, int64(42), cfg.Data.Seed)
	assert.Equal(t, 90, cfg.Data.Days)
	assert.Equal(t, int64(42), cfg.Model.Boosting.Seed)
}

func TestLoadWithoutFileMatchesDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(write(t, "config.toml", "x = 1"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(write(t, "bad.yaml", "model:\n  confidence_level: 1.5\n"))
	assert.ErrorContains(t, err, "model")

	_, err = Load(write(t, "bad.yaml", "zones:\n  grid_size: 3\n  count: 10\n"))
	assert.ErrorContains(t, err, "zones")

	_, err = Load(write(t, "bad.yaml", "store:\n  backend: s3\n"))
	assert.ErrorContains(t, err, "store")
}
