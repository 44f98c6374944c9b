// Package traffic holds the calendar rules that shape travel times: rush
// hours, late night, weekends and the Friday prayer window.
package traffic

import (
	"fmt"
	"slices"
	"time"
)

// Friday in the Monday-based weekday numbering used across the pipeline.
const Friday = 4

// RushHours are the morning and evening peak hours.
type RushHours struct {
	Morning        []int   `json:"morning"`
	Evening        []int   `json:"evening"`
	SlowdownFactor float64 `json:"slowdown_factor"`
}

// LateNight are the hours with free-flowing traffic.
type LateNight struct {
	Hours         []int   `json:"hours"`
	SpeedupFactor float64 `json:"speedup_factor"`
}

// Config groups the traffic windows.
type Config struct {
	RushHours RushHours `json:"rush_hours"`
	LateNight LateNight `json:"late_night"`
}

// DefaultConfig returns the Dubai defaults.
func DefaultConfig() Config {
	return Config{
		RushHours: RushHours{
			Morning:        []int{7, 8, 9},
			Evening:        []int{17, 18, 19, 20},
			SlowdownFactor: 1.5,
		},
		LateNight: LateNight{
			Hours:         []int{0, 1, 2, 3, 4, 5},
			SpeedupFactor: 0.7,
		},
	}
}

// SetDefaults fills unset windows and factors.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if c.RushHours.Morning == nil && c.RushHours.Evening == nil {
		c.RushHours.Morning = def.RushHours.Morning
		c.RushHours.Evening = def.RushHours.Evening
	}
	if c.RushHours.SlowdownFactor == 0 {
		c.RushHours.SlowdownFactor = def.RushHours.SlowdownFactor
	}
	if c.LateNight.Hours == nil {
		c.LateNight.Hours = def.LateNight.Hours
	}
	if c.LateNight.SpeedupFactor == 0 {
		c.LateNight.SpeedupFactor = def.LateNight.SpeedupFactor
	}
}

// Validate checks hours are in [0,23] and factors are positive.
func (c Config) Validate() error {
	hours := slices.Concat(c.RushHours.Morning, c.RushHours.Evening, c.LateNight.Hours)
	for _, h := range hours {
		if h < 0 || h > 23 {
			return fmt.Errorf("hour %d outside [0,23]", h)
		}
	}
	if c.RushHours.SlowdownFactor <= 0 || c.LateNight.SpeedupFactor <= 0 {
		return fmt.Errorf("traffic factors must be positive")
	}
	return nil
}

// IsRushHour reports whether hour falls in the morning or evening peak.
func (c Config) IsRushHour(hour int) bool {
	return slices.Contains(c.RushHours.Morning, hour) || slices.Contains(c.RushHours.Evening, hour)
}

// IsLateNight reports whether hour is a late night hour.
func (c Config) IsLateNight(hour int) bool {
	return slices.Contains(c.LateNight.Hours, hour)
}

// Weekday returns the day of week with Monday as 0 and Sunday as 6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsWeekend reports whether the Monday-based day is Saturday or Sunday.
func IsWeekend(day int) bool { return day >= 5 }

// IsFridayPrayer reports whether day and hour fall in the Friday prayer
// window, 12:00 to 13:59.
func IsFridayPrayer(day, hour int) bool {
	return day == Friday && hour >= 12 && hour <= 13
}
