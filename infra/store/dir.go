package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilianp07/dubaieta/core/prediction"
)

// DirStore writes each artifact to <dir>/<name>.json.
type DirStore struct {
	dir string
}

// NewDirStore returns a store rooted at dir. The directory is created on Save.
func NewDirStore(dir string) *DirStore { return &DirStore{dir: dir} }

// Dir returns the artifact directory.
func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) path(name string) string { return filepath.Join(s.dir, name+".json") }

// Save writes every artifact. Files are replaced atomically so a crash
// never leaves a half-written artifact behind.
func (s *DirStore) Save(_ context.Context, a prediction.Artifacts) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	for name, data := range a {
		tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
		if err != nil {
			return err
		}
		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("write %s: %w", name, err)
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmp.Name())
			return err
		}
		if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("replace %s: %w", name, err)
		}
	}
	return nil
}

// Load reads every known artifact. It returns prediction.ErrNoArtifacts
// when none exist and an error naming the first missing one otherwise.
func (s *DirStore) Load(_ context.Context) (prediction.Artifacts, error) {
	a := make(prediction.Artifacts, len(prediction.ArtifactNames))
	var missing []string
	for _, name := range prediction.ArtifactNames {
		data, err := os.ReadFile(s.path(name))
		if errors.Is(err, os.ErrNotExist) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		a[name] = data
	}
	if len(missing) == len(prediction.ArtifactNames) {
		return nil, prediction.ErrNoArtifacts
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("artifact %q missing in %s", missing[0], s.dir)
	}
	return a, nil
}
