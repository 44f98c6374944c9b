package prediction

import "github.com/kilianp07/dubaieta/core/model"

const (
	minutesPerZone = 3.0
	rushShare      = 0.2
	prayerShare    = 0.15
)

// Factors is an additive breakdown of an estimate. ZoneComplexity is the
// signed residual, negative when a route is faster than distance and
// traffic imply.
type Factors struct {
	BaseTime          float64 `json:"base_time"`
	TrafficAdjustment float64 `json:"traffic_adjustment"`
	WeatherImpact     float64 `json:"weather_impact"`
	ZoneComplexity    float64 `json:"zone_complexity"`
}

// Sum returns the total of all factors, equal to the decomposed estimate.
func (f Factors) Sum() float64 {
	return f.BaseTime + f.TrafficAdjustment + f.WeatherImpact + f.ZoneComplexity
}

// Decompose splits estimate into factors for trip. Weather is always clear
// at inference so its impact is zero.
func Decompose(trip model.Trip, estimate float64) Factors {
	f := Factors{BaseTime: float64(trip.Distance) * minutesPerZone}
	switch {
	case trip.RushHour:
		f.TrafficAdjustment = rushShare * estimate
	case trip.FridayPrayer:
		f.TrafficAdjustment = prayerShare * estimate
	}
	f.ZoneComplexity = estimate - f.BaseTime - f.TrafficAdjustment - f.WeatherImpact
	return f
}
