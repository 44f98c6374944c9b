package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dubaieta/core/model"
	"github.com/kilianp07/dubaieta/core/prediction"
	"github.com/kilianp07/dubaieta/core/regression"
	"github.com/kilianp07/dubaieta/core/zone"
)

func sampleTrips() []model.Trip {
	return []model.Trip{{
		ID:               "trip_000000",
		Pickup:           3,
		Dropoff:          45,
		RequestTime:      time.Date(2024, 1, 5, 12, 30, 0, 0, time.UTC),
		Duration:         27.25,
		Distance:         6,
		Hour:             12,
		DayOfWeek:        4,
		FridayPrayer:     true,
		PickupType:       zone.Residential,
		DropoffType:      zone.Business,
		Weather:          model.Sandstorm,
		DriverEfficiency: 0.95,
	}}
}

func TestWriteTripsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrips(&buf, CSV, sampleTrips()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, TripHeader, rows[0])
	assert.Equal(t, []string{
		"trip_000000", "3", "45", "2024-01-05T12:30:00Z", "27.25", "6", "12", "4",
		"false", "false", "true", "residential", "business", "sandstorm", "false", "0.95",
	}, rows[1])
}

func TestWriteTripsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrips(&buf, JSON, sampleTrips()))
	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "trip_000000", out[0]["trip_id"])
	assert.Equal(t, 27.25, out[0]["actual_duration_minutes"])
}

func TestWriteImportanceCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteImportanceCSV(&buf, []regression.Importance{{Feature: "dubai_distance", Importance: 0.5}}))
	assert.Equal(t, "feature,importance\ndubai_distance,0.5\n", buf.String())
}

func TestReportImprovement(t *testing.T) {
	r := Report{Evaluation: prediction.Evaluation{
		Baseline: regression.Metrics{MAE: 8},
		Advanced: regression.Metrics{MAE: 6},
	}}
	assert.InDelta(t, 25.0, r.Improvement(), 1e-9)
	assert.Zero(t, Report{}.Improvement())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)
	_, err = ParseFormat("parquet")
	assert.Error(t, err)
}

func TestWriteImportanceChart(t *testing.T) {
	imps := []regression.Importance{
		{Feature: "dubai_distance", Importance: 0.6},
		{Feature: "pair_mean_duration", Importance: 0.3},
		{Feature: "hour_sin", Importance: 0.1},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteImportanceChart(&buf, imps, 2))
	out := buf.String()
	assert.Contains(t, out, "echarts")
	assert.Contains(t, out, "dubai_distance")
	assert.Contains(t, out, "pair_mean_duration")
	assert.NotContains(t, out, "hour_sin")
}
