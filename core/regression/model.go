// Package regression provides the ETA regression models: a linear baseline
// over four raw features and a gradient-boosted tree ensemble over the full
// engineered feature set. Both satisfy Model and are selected by Kind.
package regression

import (
	"errors"
	"fmt"

	"github.com/kilianp07/dubaieta/core/features"
)

var (
	// ErrNotFitted is returned by Predict, Evaluate and friends before Fit.
	ErrNotFitted = errors.New("model must be fitted before prediction")
	// ErrSchemaMismatch is returned when an input frame lacks fitted columns.
	ErrSchemaMismatch = features.ErrSchemaMismatch
)

// Kind tags the closed set of model variants.
type Kind int

const (
	Baseline Kind = iota + 1
	Advanced
)

func (k Kind) String() string {
	switch k {
	case Baseline:
		return "baseline"
	case Advanced:
		return "advanced"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps "baseline" and "advanced" to their Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "baseline":
		return Baseline, nil
	case "advanced":
		return Advanced, nil
	}
	return 0, fmt.Errorf("unknown model type %q", s)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Model is the capability set shared by every ETA regressor. Fitting again
// overwrites previous parameters.
type Model interface {
	Kind() Kind
	Fit(X features.Frame, y []float64, opts ...FitOption) error
	Predict(X features.Frame) ([]float64, error)
	Evaluate(X features.Frame, y []float64) (Metrics, error)
	Fitted() bool
}

type fitOptions struct {
	valX *features.Frame
	valY []float64
}

// FitOption customises a Fit call.
type FitOption func(*fitOptions)

// WithValidation supplies a held-out set monitored during fitting. Models
// that do not iterate ignore it.
func WithValidation(X features.Frame, y []float64) FitOption {
	return func(o *fitOptions) {
		o.valX = &X
		o.valY = y
	}
}

func checkXY(X features.Frame, y []float64) error {
	if X.Len() == 0 {
		return fmt.Errorf("empty training frame")
	}
	if X.Len() != len(y) {
		return fmt.Errorf("frame has %d rows but %d labels", X.Len(), len(y))
	}
	return nil
}
