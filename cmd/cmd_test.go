package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `data:
  n_trips: 600
model:
  boosting:
    n_estimators: 20
    max_depth: 3
store:
  path: ` + filepath.Join(dir, "models") + `
logging:
  backend: none
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path, dir
}

func TestZonesCommand(t *testing.T) {
	out, err := run(t, "zones")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 101)
	assert.Contains(t, lines[100], "airport")

	out, err = run(t, "zones", "--json")
	require.NoError(t, err)
	var payload struct {
		Zones []map[string]any `json:"zones"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Len(t, payload.Zones, 100)
}

func TestGenerateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	_, err := run(t, "generate", "-n", "25", "-o", path)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 26)

	_, err = run(t, "generate", "-f", "xml")
	assert.Error(t, err)
}

func TestTrainThenPredict(t *testing.T) {
	cfgPath, dir := writeConfig(t)

	_, err := run(t, "-c", cfgPath, "predict", "--pickup", "1", "--dropoff", "2")
	require.Error(t, err, "no models saved yet")

	report := filepath.Join(dir, "report.json")
	chart := filepath.Join(dir, "importance.html")
	out, err := run(t, "-c", cfgPath, "train", "--data-dir", filepath.Join(dir, "splits"), "--report", report, "--chart", chart)
	require.NoError(t, err)
	assert.Contains(t, out, "MAE improvement")
	for _, name := range []string{"train.csv", "val.csv", "test.csv"} {
		assert.FileExists(t, filepath.Join(dir, "splits", name))
	}
	assert.FileExists(t, report)
	assert.FileExists(t, chart)

	out, err = run(t, "-c", cfgPath, "predict", "--pickup", "1", "--dropoff", "98", "--at", "2024-02-02T12:30:00Z", "--model", "baseline")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Contains(t, res, "estimated_duration_minutes")
	assert.Equal(t, "baseline", res["metadata"].(map[string]any)["model_type"])

	_, err = run(t, "-c", cfgPath, "predict", "--pickup", "1", "--dropoff", "1")
	assert.Error(t, err)
}
