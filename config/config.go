// Package config loads the service configuration from a YAML or JSON file
// with ETA_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/dubaieta/core/generator"
	"github.com/kilianp07/dubaieta/core/metrics"
	"github.com/kilianp07/dubaieta/core/prediction"
	"github.com/kilianp07/dubaieta/core/predlog"
	"github.com/kilianp07/dubaieta/core/traffic"
	"github.com/kilianp07/dubaieta/core/zone"
	"github.com/kilianp07/dubaieta/infra/monitoring"
	"github.com/kilianp07/dubaieta/infra/store"
)

// EnvPrefix marks environment overrides. ETA_SERVER__ADDR sets server.addr.
const EnvPrefix = "ETA_"

type Config struct {
	Zones   zone.Config             `json:"zones"`
	Traffic traffic.Config          `json:"traffic"`
	Weather generator.WeatherConfig `json:"weather"`
	Data    generator.Config        `json:"data"`
	Model   prediction.Config       `json:"model"`
	Store   store.Config            `json:"store"`
	Logging predlog.Config          `json:"logging"`
	Metrics metrics.Config          `json:"metrics"`
	Server  ServerConfig            `json:"server"`

	// Monitoring enables Sentry error reporting when a DSN is set.
	Monitoring monitoring.Config `json:"monitoring"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Zones:   zone.DefaultConfig(),
		Traffic: traffic.DefaultConfig(),
		Weather: generator.DefaultWeather(),
		Data:    generator.DefaultConfig(),
		Model:   prediction.DefaultConfig(),
	}
	cfg.setDefaults()
	return cfg
}

// Load reads path, applies environment overrides, fills defaults and
// validates every section. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	applyZeroValued(k, &cfg)
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyZeroValued sets the defaults of keys whose zero value is meaningful,
// and so cannot be defaulted by SetDefaults, when they are absent.
func applyZeroValued(k *koanf.Koanf, cfg *Config) {
	data, model := generator.DefaultConfig(), prediction.DefaultConfig()
	if !k.Exists("data.seed") {
		cfg.Data.Seed = data.Seed
	}
	if !k.Exists("data.days") {
		cfg.Data.Days = data.Days
	}
	if !k.Exists("model.boosting.random_state") {
		cfg.Model.Boosting.Seed = model.Boosting.Seed
	}
}

func (c *Config) setDefaults() {
	c.Zones.SetDefaults()
	c.Traffic.SetDefaults()
	c.Weather.SetDefaults()
	c.Data.SetDefaults()
	c.Model.SetDefaults()
	c.Store.SetDefaults()
	c.Logging.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"zones", c.Zones},
		{"traffic", c.Traffic},
		{"weather", c.Weather},
		{"data", c.Data},
		{"model", c.Model},
		{"store", c.Store},
		{"logging", c.Logging},
		{"server", c.Server},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}
