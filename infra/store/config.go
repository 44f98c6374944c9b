package store

import (
	"fmt"
	"io"

	"github.com/kilianp07/dubaieta/core/prediction"
)

// Config selects the artifact backend.
type Config struct {
	// Backend is "dir" or "sqlite".
	Backend string `json:"backend"`
	// Path is the artifact directory or the database file.
	Path string `json:"path"`
}

// SetDefaults fills empty fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "dir"
	}
	if c.Path == "" {
		if c.Backend == "sqlite" {
			c.Path = "data/models/artifacts.db"
		} else {
			c.Path = "data/models"
		}
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "dir", "sqlite":
		return nil
	default:
		return fmt.Errorf("store: unknown backend %q", c.Backend)
	}
}

// Backend is a prediction.Store that may hold resources.
type Backend interface {
	prediction.Store
	io.Closer
}

type dirBackend struct{ *DirStore }

func (dirBackend) Close() error { return nil }

// Open builds the configured store.
func Open(cfg Config) (Backend, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == "sqlite" {
		if err := ensureParent(cfg.Path); err != nil {
			return nil, err
		}
		return NewSQLiteStore(cfg.Path)
	}
	return dirBackend{NewDirStore(cfg.Path)}, nil
}
