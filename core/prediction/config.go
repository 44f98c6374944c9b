package prediction

import (
	"fmt"

	"github.com/kilianp07/dubaieta/core/regression"
)

// Config groups the model section of the configuration.
type Config struct {
	Version         string                 `json:"version"`
	ConfidenceLevel float64                `json:"confidence_level"`
	Boosting        regression.BoostConfig `json:"boosting"`
	// CrossFitFolds is the fold count used to encode training rows with
	// out-of-fold duration statistics. 1 encodes them in-sample.
	CrossFitFolds int `json:"cross_fit_folds"`
}

// DefaultConfig returns version "1.0" at the 95% level with the default
// boosting parameters and five cross-fit folds.
func DefaultConfig() Config {
	return Config{
		Version:         "1.0",
		ConfidenceLevel: 0.95,
		Boosting:        regression.DefaultBoostConfig(),
		CrossFitFolds:   5,
	}
}

// SetDefaults fills zero values. The boosting seed is not defaulted, see
// regression.BoostConfig.SetDefaults.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.ConfidenceLevel == 0 {
		c.ConfidenceLevel = 0.95
	}
	if c.CrossFitFolds == 0 {
		c.CrossFitFolds = 5
	}
	c.Boosting.SetDefaults()
}

// Validate checks the section.
func (c Config) Validate() error {
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("confidence_level must be in (0,1)")
	}
	if c.CrossFitFolds < 1 {
		return fmt.Errorf("cross_fit_folds must be positive")
	}
	if err := c.Boosting.Validate(); err != nil {
		return fmt.Errorf("boosting: %w", err)
	}
	return nil
}
