// Package export writes datasets and training reports as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/dubaieta/core/model"
	"github.com/kilianp07/dubaieta/core/prediction"
	"github.com/kilianp07/dubaieta/core/regression"
)

// Format selects the output encoding.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// ParseFormat accepts "csv" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case CSV, JSON:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// TripHeader is the CSV header written by WriteTripsCSV.
var TripHeader = []string{
	"trip_id", "pickup_zone", "dropoff_zone", "request_datetime", "actual_duration_minutes",
	"dubai_distance", "hour", "day_of_week", "is_weekend", "is_rush_hour", "is_friday_prayer",
	"zone_type_pickup", "zone_type_dropoff", "weather", "has_event", "driver_efficiency",
}

// WriteTrips writes trips in the requested format.
func WriteTrips(w io.Writer, f Format, trips []model.Trip) error {
	if f == JSON {
		return WriteJSON(w, trips)
	}
	return WriteTripsCSV(w, trips)
}

// WriteTripsCSV writes one row per trip under TripHeader.
func WriteTripsCSV(w io.Writer, trips []model.Trip) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TripHeader); err != nil {
		return err
	}
	for _, t := range trips {
		rec := []string{
			t.ID,
			strconv.Itoa(t.Pickup),
			strconv.Itoa(t.Dropoff),
			t.RequestTime.Format(time.RFC3339),
			formatFloat(t.Duration),
			strconv.Itoa(t.Distance),
			strconv.Itoa(t.Hour),
			strconv.Itoa(t.DayOfWeek),
			strconv.FormatBool(t.Weekend),
			strconv.FormatBool(t.RushHour),
			strconv.FormatBool(t.FridayPrayer),
			string(t.PickupType),
			string(t.DropoffType),
			string(t.Weather),
			strconv.FormatBool(t.Event),
			formatFloat(t.DriverEfficiency),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteImportanceCSV writes feature importances as feature,importance rows.
func WriteImportanceCSV(w io.Writer, imp []regression.Importance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"feature", "importance"}); err != nil {
		return err
	}
	for _, i := range imp {
		if err := cw.Write([]string{i.Feature, formatFloat(i.Importance)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Report summarises a training run.
type Report struct {
	ModelInfo         prediction.TrainingInfo `json:"model_info"`
	TestSize          int                     `json:"test_size"`
	Evaluation        prediction.Evaluation   `json:"evaluation"`
	FeatureImportance []regression.Importance `json:"feature_importance"`
}

// Improvement is the relative MAE reduction of the advanced model in percent.
func (r Report) Improvement() float64 {
	if r.Evaluation.Baseline.MAE == 0 {
		return 0
	}
	return (r.Evaluation.Baseline.MAE - r.Evaluation.Advanced.MAE) / r.Evaluation.Baseline.MAE * 100
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
