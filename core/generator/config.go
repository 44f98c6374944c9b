package generator

import (
	"fmt"
	"time"
)

// DateLayout is the layout of Config.StartDate.
const DateLayout = "2006-01-02"

// Config controls dataset size, the sampling window and the chronological
// split.
type Config struct {
	Trips      int     `json:"n_trips"`
	StartDate  string  `json:"start_date"`
	Days       int     `json:"days"`
	Seed       int64   `json:"seed"`
	TrainRatio float64 `json:"train_ratio"`
	ValRatio   float64 `json:"val_ratio"`
	TestRatio  float64 `json:"test_ratio"`
}

// WeatherConfig holds the probability and travel time impact of each
// adverse weather condition.
type WeatherConfig struct {
	SandstormProb   float64 `json:"sandstorm_prob"`
	SandstormImpact float64 `json:"sandstorm_impact"`
	RainProb        float64 `json:"rain_prob"`
	RainImpact      float64 `json:"rain_impact"`
}

// DefaultConfig returns the defaults used by the training pipeline.
func DefaultConfig() Config {
	return Config{
		Trips:      50000,
		StartDate:  "2024-01-01",
		Days:       90,
		Seed:       42,
		TrainRatio: 0.7,
		ValRatio:   0.15,
		TestRatio:  0.15,
	}
}

// DefaultWeather returns the default weather model.
func DefaultWeather() WeatherConfig {
	return WeatherConfig{
		SandstormProb:   0.02,
		SandstormImpact: 1.5,
		RainProb:        0.05,
		RainImpact:      1.3,
	}
}

// SetDefaults applies defaults to unset fields. Seed and Days are left
// alone because zero is meaningful for both: seed 0, and a window holding
// only the start date.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if c.Trips == 0 {
		c.Trips = def.Trips
	}
	if c.StartDate == "" {
		c.StartDate = def.StartDate
	}
	if c.TrainRatio == 0 && c.ValRatio == 0 && c.TestRatio == 0 {
		c.TrainRatio, c.ValRatio, c.TestRatio = def.TrainRatio, def.ValRatio, def.TestRatio
	}
}

// Validate checks the window and the split ratios.
func (c Config) Validate() error {
	if c.Trips < 0 {
		return fmt.Errorf("n_trips must not be negative")
	}
	if _, err := c.Start(); err != nil {
		return err
	}
	if c.Days < 0 {
		return fmt.Errorf("days must not be negative")
	}
	if c.TrainRatio <= 0 || c.ValRatio < 0 || c.TestRatio < 0 {
		return fmt.Errorf("invalid split ratios %.2f/%.2f/%.2f", c.TrainRatio, c.ValRatio, c.TestRatio)
	}
	if sum := c.TrainRatio + c.ValRatio + c.TestRatio; sum > 1.0+1e-9 {
		return fmt.Errorf("split ratios sum to %.3f", sum)
	}
	return nil
}

// Start parses StartDate in UTC.
func (c Config) Start() (time.Time, error) {
	t, err := time.Parse(DateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("start_date: %w", err)
	}
	return t, nil
}

// SetDefaults applies defaults when no weather model is configured.
func (w *WeatherConfig) SetDefaults() {
	if *w == (WeatherConfig{}) {
		*w = DefaultWeather()
	}
}

// Validate checks probabilities are in [0,1] and impacts positive.
func (w WeatherConfig) Validate() error {
	for _, p := range []float64{w.SandstormProb, w.RainProb} {
		if p < 0 || p > 1 {
			return fmt.Errorf("weather probability %.3f outside [0,1]", p)
		}
	}
	if w.SandstormImpact <= 0 || w.RainImpact <= 0 {
		return fmt.Errorf("weather impacts must be positive")
	}
	return nil
}
