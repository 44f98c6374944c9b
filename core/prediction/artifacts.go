package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kilianp07/dubaieta/core/features"
	"github.com/kilianp07/dubaieta/core/regression"
	"github.com/kilianp07/dubaieta/core/traffic"
	"github.com/kilianp07/dubaieta/core/zone"
)

// Artifact names of a trained predictor.
const (
	ArtifactFeatureEngineer = "feature_engineer"
	ArtifactBaseline        = "baseline_model"
	ArtifactAdvanced        = "advanced_model"
	ArtifactMetadata        = "metadata"
)

// ArtifactNames lists every artifact a snapshot contains.
var ArtifactNames = []string{ArtifactFeatureEngineer, ArtifactBaseline, ArtifactAdvanced, ArtifactMetadata}

// ErrNoArtifacts is returned by a Store that holds no saved models yet.
var ErrNoArtifacts = errors.New("no saved model artifacts")

// Artifacts maps artifact names to opaque JSON blobs.
type Artifacts map[string][]byte

// Store persists artifacts.
type Store interface {
	Save(ctx context.Context, a Artifacts) error
	Load(ctx context.Context) (Artifacts, error)
}

// Snapshot serialises the trained state.
func (p *Predictor) Snapshot() (Artifacts, error) {
	if !p.Trained() {
		return nil, ErrNotTrained
	}
	a := make(Artifacts, len(ArtifactNames))
	parts := map[string]any{
		ArtifactFeatureEngineer: p.engineer,
		ArtifactBaseline:        p.baseline,
		ArtifactAdvanced:        p.advanced,
		ArtifactMetadata:        p.info,
	}
	for name, v := range parts {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		a[name] = b
	}
	return a, nil
}

// Restore rebuilds a trained predictor from a snapshot.
func Restore(a Artifacts, cfg Config, grid *zone.Grid, cal traffic.Config, opts ...Option) (*Predictor, error) {
	for _, name := range ArtifactNames {
		if len(a[name]) == 0 {
			return nil, fmt.Errorf("artifact %q missing", name)
		}
	}
	p := New(cfg, grid, cal, opts...)
	eng := features.New(features.WithLogger(p.componentLogger("features")))
	base := regression.NewBaseline(p.componentLogger("baseline-model"))
	adv := regression.NewAdvanced(p.cfg.Boosting, p.componentLogger("advanced-model"))
	info := &TrainingInfo{}
	parts := []struct {
		name string
		v    any
	}{
		{ArtifactFeatureEngineer, eng},
		{ArtifactBaseline, base},
		{ArtifactAdvanced, adv},
		{ArtifactMetadata, info},
	}
	for _, part := range parts {
		if err := json.Unmarshal(a[part.name], part.v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", part.name, err)
		}
	}
	if eng.Schema() == nil {
		return nil, fmt.Errorf("decode %s: no frozen schema", ArtifactFeatureEngineer)
	}
	p.engineer, p.baseline, p.advanced, p.info = eng, base, adv, info
	p.log.Infof("models restored (version %s, trained %s)", info.ModelVersion, info.TrainingDate.Format("2006-01-02T15:04:05Z"))
	return p, nil
}

// Save snapshots p into s.
func (p *Predictor) Save(ctx context.Context, s Store) error {
	a, err := p.Snapshot()
	if err != nil {
		return err
	}
	return s.Save(ctx, a)
}

// Load restores a predictor from s.
func Load(ctx context.Context, s Store, cfg Config, grid *zone.Grid, cal traffic.Config, opts ...Option) (*Predictor, error) {
	a, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Restore(a, cfg, grid, cal, opts...)
}
