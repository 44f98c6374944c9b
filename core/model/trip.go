package model

import (
	"fmt"
	"time"

	"github.com/kilianp07/dubaieta/core/traffic"
	"github.com/kilianp07/dubaieta/core/zone"
)

// Weather is the condition observed during a trip.
type Weather string

const (
	Clear     Weather = "clear"
	Sandstorm Weather = "sandstorm"
	Rain      Weather = "rain"
)

// Trip is one ride request and, for historical trips, its realised
// duration. Calendar and distance fields are derived from the zones and the
// request time by Build and never sampled independently.
type Trip struct {
	ID               string    `json:"trip_id"`
	Pickup           int       `json:"pickup_zone"`
	Dropoff          int       `json:"dropoff_zone"`
	RequestTime      time.Time `json:"request_datetime"`
	Duration         float64   `json:"actual_duration_minutes"`
	Distance         int       `json:"dubai_distance"`
	Hour             int       `json:"hour"`
	DayOfWeek        int       `json:"day_of_week"`
	Weekend          bool      `json:"is_weekend"`
	RushHour         bool      `json:"is_rush_hour"`
	FridayPrayer     bool      `json:"is_friday_prayer"`
	PickupType       zone.Type `json:"zone_type_pickup"`
	DropoffType      zone.Type `json:"zone_type_dropoff"`
	Weather          Weather   `json:"weather"`
	Event            bool      `json:"has_event"`
	DriverEfficiency float64   `json:"driver_efficiency"`
}

// Build creates a trip descriptor with every deterministic field filled in.
// Weather defaults to Clear and no special event is flagged.
func Build(grid *zone.Grid, cal traffic.Config, id string, pickup, dropoff int, at time.Time) (Trip, error) {
	if pickup == dropoff {
		return Trip{}, fmt.Errorf("zone %d: %w", pickup, zone.ErrSameZone)
	}
	dist, err := grid.Distance(pickup, dropoff)
	if err != nil {
		return Trip{}, err
	}
	pt, _ := grid.TypeOf(pickup)
	dt, _ := grid.TypeOf(dropoff)
	day := traffic.Weekday(at)
	hour := at.Hour()
	return Trip{
		ID:           id,
		Pickup:       pickup,
		Dropoff:      dropoff,
		RequestTime:  at,
		Distance:     dist,
		Hour:         hour,
		DayOfWeek:    day,
		Weekend:      traffic.IsWeekend(day),
		RushHour:     cal.IsRushHour(hour),
		FridayPrayer: traffic.IsFridayPrayer(day, hour),
		PickupType:   pt,
		DropoffType:  dt,
		Weather:      Clear,
	}, nil
}

// Labels returns the durations of trips in order.
func Labels(trips []Trip) []float64 {
	y := make([]float64, len(trips))
	for i, t := range trips {
		y[i] = t.Duration
	}
	return y
}
