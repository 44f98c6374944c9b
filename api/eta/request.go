package eta

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/dubaieta/core/regression"
	"github.com/kilianp07/dubaieta/core/zone"
)

// ETARequest is the body of POST /predict_eta.
type ETARequest struct {
	PickupZone  *int   `json:"pickup_zone"`
	DropoffZone *int   `json:"dropoff_zone"`
	RequestTime string `json:"request_time"`
	ModelType   string `json:"model_type,omitempty"`
}

// Accepted request_time layouts. Times without an offset are taken as UTC.
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

type predictInput struct {
	pickup  int
	dropoff int
	at      time.Time
	kind    regression.Kind
}

func (r ETARequest) validate(grid *zone.Grid) (predictInput, error) {
	var in predictInput
	var errs []error
	if r.PickupZone == nil {
		errs = append(errs, errors.New("pickup_zone is required"))
	} else if err := grid.Check(*r.PickupZone); err != nil {
		errs = append(errs, fmt.Errorf("pickup_zone: %w", err))
	}
	if r.DropoffZone == nil {
		errs = append(errs, errors.New("dropoff_zone is required"))
	} else if err := grid.Check(*r.DropoffZone); err != nil {
		errs = append(errs, fmt.Errorf("dropoff_zone: %w", err))
	}
	if r.PickupZone != nil && r.DropoffZone != nil && *r.PickupZone == *r.DropoffZone {
		errs = append(errs, zone.ErrSameZone)
	}
	at, err := parseTime(r.RequestTime)
	if err != nil {
		errs = append(errs, err)
	}
	in.kind = regression.Advanced
	if r.ModelType != "" {
		k, err := regression.ParseKind(strings.ToLower(r.ModelType))
		if err != nil {
			errs = append(errs, fmt.Errorf("model_type: %w", err))
		}
		in.kind = k
	}
	if len(errs) > 0 {
		return predictInput{}, errors.Join(errs...)
	}
	in.pickup, in.dropoff, in.at = *r.PickupZone, *r.DropoffZone, at
	return in, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("request_time is required")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("request_time %q is not an ISO 8601 timestamp", s)
}
