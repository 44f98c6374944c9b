package predlog

import "fmt"

// Config selects the prediction log backend.
type Config struct {
	// Backend is one of "jsonl", "sqlite" or "none".
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "data/logs/predictions.db"
		default:
			c.Path = "data/logs/predictions.jsonl"
		}
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
		return nil
	}
	return fmt.Errorf("unknown prediction log backend %q", c.Backend)
}

// Open builds the configured store. A positive MaxSizeMB enables rotation
// for the jsonl backend.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "sqlite":
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		return NewSQLiteStore(cfg.Path)
	case "none":
		return NopStore{}, nil
	}
	if cfg.MaxSizeMB > 0 {
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
	return NewJSONLStore(cfg.Path)
}
