// Package generator produces synthetic ride-hailing trips whose durations
// follow a layered causal model: grid distance and zone complexity, calendar
// effects, weather, special events and driver efficiency.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/dubaieta/core/logger"
	"github.com/kilianp07/dubaieta/core/model"
	"github.com/kilianp07/dubaieta/core/traffic"
	"github.com/kilianp07/dubaieta/core/zone"
)

const (
	minutesPerZone = 3.0
	minDuration    = 1.0
	progressEvery  = 10000
)

// Generator samples trips. It is not safe for concurrent use: the random
// source is shared by every sampling step.
type Generator struct {
	cfg     Config
	weather WeatherConfig
	cal     traffic.Config
	grid    *zone.Grid
	rand    *rand.Rand
	log     logger.Logger
	// cumulative zone sampling distribution per hour of day
	zoneCDF [24][]float64
}

// Option customises a Generator.
type Option func(*Generator)

// WithLogger sets the logger. Output is discarded by default.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// New creates a Generator seeded with cfg.Seed.
func New(cfg Config, weather WeatherConfig, cal traffic.Config, grid *zone.Grid, opts ...Option) *Generator {
	g := &Generator{
		cfg:     cfg,
		weather: weather,
		cal:     cal,
		grid:    grid,
		rand:    rand.New(rand.NewSource(cfg.Seed)),
		log:     logger.NopLogger{},
	}
	for _, o := range opts {
		o(g)
	}
	for h := range g.zoneCDF {
		g.zoneCDF[h] = g.zoneDistribution(h)
	}
	return g
}

// Generate samples n independent trips. A non-positive n uses the
// configured trip count.
func (g *Generator) Generate(n int) ([]model.Trip, error) {
	if n <= 0 {
		n = g.cfg.Trips
	}
	start, err := g.cfg.Start()
	if err != nil {
		return nil, err
	}
	g.log.Infof("generating %d trips starting from %s", n, g.cfg.StartDate)
	trips := make([]model.Trip, 0, n)
	for i := 0; i < n; i++ {
		if i%progressEvery == 0 {
			g.log.Debugf("generated %d/%d trips", i, n)
		}
		trip, err := g.sampleTrip(fmt.Sprintf("trip_%06d", i), start)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	g.log.Infof("dataset generation complete: %d trips", len(trips))
	return trips, nil
}

func (g *Generator) sampleTrip(id string, start time.Time) (model.Trip, error) {
	at := g.sampleTime(start)
	hour := at.Hour()
	pickup := g.sampleZone(hour)
	dropoff := g.sampleZone(hour)
	for dropoff == pickup {
		dropoff = g.sampleZone(hour)
	}
	trip, err := model.Build(g.grid, g.cal, id, pickup, dropoff, at)
	if err != nil {
		return model.Trip{}, err
	}

	d := g.baseDuration(trip)
	d = g.applyTemporal(d, trip.Hour, trip.DayOfWeek)
	d, trip.Weather = g.applyWeather(d)
	d, trip.Event = g.applyEvent(d, trip.PickupType, trip.Hour)
	trip.DriverEfficiency = g.driverEfficiency()
	d *= trip.DriverEfficiency
	trip.Duration = math.Max(minDuration, d)
	return trip, nil
}

// sampleTime picks a whole day offset in [0, Days] plus a fractional hour.
func (g *Generator) sampleTime(start time.Time) time.Time {
	days := g.rand.Intn(g.cfg.Days + 1)
	hours := g.rand.Float64() * 24
	return start.AddDate(0, 0, days).Add(time.Duration(hours * float64(time.Hour)))
}

// zoneDistribution builds the cumulative sampling distribution for hour.
// Business zones are favoured in working hours, coastal zones in the
// evening and airport zones all day. Effects multiply.
func (g *Generator) zoneDistribution(hour int) []float64 {
	weights := make([]float64, g.grid.Count())
	for id := range weights {
		w := 1.0
		typ, _ := g.grid.TypeOf(id)
		if typ == zone.Business && hour >= 7 && hour <= 18 {
			w *= 3
		}
		if typ == zone.Coastal && hour >= 18 && hour <= 23 {
			w *= 2.5
		}
		if typ == zone.Airport {
			w *= 2
		}
		weights[id] = w
	}
	floats.Scale(1/floats.Sum(weights), weights)
	return floats.CumSum(make([]float64, len(weights)), weights)
}

func (g *Generator) sampleZone(hour int) int {
	cdf := g.zoneCDF[hour]
	u := g.rand.Float64()
	idx := sort.SearchFloat64s(cdf, u)
	if idx >= len(cdf) {
		idx = len(cdf) - 1
	}
	return idx
}

// baseDuration is 3 minutes per zone scaled by the mean complexity of both
// endpoints, plus unit Gaussian noise, floored at one minute.
func (g *Generator) baseDuration(t model.Trip) float64 {
	base := float64(t.Distance) * minutesPerZone
	base *= (t.PickupType.ComplexityFactor() + t.DropoffType.ComplexityFactor()) / 2
	base += g.rand.NormFloat64()
	return math.Max(minDuration, base)
}

// applyTemporal applies rush hour or late night factors, then the Friday
// prayer slowdown and the weekend pattern. Friday prayer and weekend stack
// on top of the rush/night effect.
func (g *Generator) applyTemporal(d float64, hour, day int) float64 {
	switch {
	case g.cal.IsRushHour(hour):
		f := g.cal.RushHours.SlowdownFactor
		d *= g.uniform(f*0.9, f*1.1)
	case g.cal.IsLateNight(hour):
		f := g.cal.LateNight.SpeedupFactor
		d *= g.uniform(f*0.9, f*1.1)
	}
	if traffic.IsFridayPrayer(day, hour) {
		d *= g.uniform(1.25, 1.35)
	}
	if traffic.IsWeekend(day) {
		if hour >= 10 && hour <= 14 {
			d *= 1.2
		} else {
			d *= 0.9
		}
	}
	return d
}

// applyWeather checks for a sandstorm first and only then for rain.
func (g *Generator) applyWeather(d float64) (float64, model.Weather) {
	if g.rand.Float64() < g.weather.SandstormProb {
		f := g.weather.SandstormImpact
		return d * g.uniform(f*0.9, f*1.1), model.Sandstorm
	}
	if g.rand.Float64() < g.weather.RainProb {
		f := g.weather.RainImpact
		return d * g.uniform(f*0.9, f*1.1), model.Rain
	}
	return d, model.Clear
}

// applyEvent flags evening special events, more likely when picking up in
// business or coastal zones.
func (g *Generator) applyEvent(d float64, pickup zone.Type, hour int) (float64, bool) {
	p := 0.10
	if pickup == zone.Business || pickup == zone.Coastal {
		p = 0.15
	}
	if g.rand.Float64() < p && hour >= 18 && hour <= 23 {
		return d * g.uniform(1.5, 2.0), true
	}
	return d, false
}

// driverEfficiency samples N(1, 0.15) clamped to [0.7, 1.3].
func (g *Generator) driverEfficiency() float64 {
	e := 1.0 + 0.15*g.rand.NormFloat64()
	return math.Min(1.3, math.Max(0.7, e))
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rand.Float64()*(hi-lo)
}
