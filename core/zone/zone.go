package zone

import (
	"errors"
	"fmt"
)

// Type is the category of a zone.
type Type string

const (
	Residential Type = "residential"
	Business    Type = "business"
	Airport     Type = "airport"
	Coastal     Type = "coastal"
)

// Types lists every zone type in a stable order.
func Types() []Type { return []Type{Airport, Business, Coastal, Residential} }

// Valid reports whether t is a known zone type.
func (t Type) Valid() bool {
	switch t {
	case Residential, Business, Airport, Coastal:
		return true
	}
	return false
}

// ComplexityFactor is the travel time multiplier applied to trips touching
// a zone of this type.
func (t Type) ComplexityFactor() float64 {
	switch t {
	case Business:
		return 1.2
	case Airport:
		return 1.3
	case Coastal:
		return 1.1
	default:
		return 1.0
	}
}

// ErrInvalidZone is matched by every InvalidZoneError.
var ErrInvalidZone = errors.New("invalid zone")

// ErrSameZone is returned when a trip starts and ends in the same zone.
var ErrSameZone = errors.New("pickup and dropoff zones must differ")

// InvalidZoneError reports a zone id outside [0, Count).
type InvalidZoneError struct {
	Zone  int
	Count int
}

func (e *InvalidZoneError) Error() string {
	return fmt.Sprintf("zone %d outside range [0, %d)", e.Zone, e.Count)
}

// Is makes errors.Is(err, ErrInvalidZone) succeed.
func (e *InvalidZoneError) Is(target error) bool { return target == ErrInvalidZone }

// Zone is a single grid cell.
type Zone struct {
	ID   int  `json:"id"`
	Row  int  `json:"row"`
	Col  int  `json:"col"`
	Type Type `json:"type"`
}

// Grid maps zone ids to positions and types. It is immutable after NewGrid.
type Grid struct {
	size  int
	types []Type
}

// NewGrid validates cfg and resolves every zone to exactly one type.
func NewGrid(cfg Config) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	types := make([]Type, cfg.Count)
	for i := range types {
		types[i] = Residential
	}
	for _, a := range cfg.Assignments {
		for _, col := range a.Columns {
			for row := 0; row < cfg.GridSize; row++ {
				types[row*cfg.GridSize+col] = a.Type
			}
		}
		for _, id := range a.Cells {
			types[id] = a.Type
		}
	}
	return &Grid{size: cfg.GridSize, types: types}, nil
}

// Size returns the grid edge length.
func (g *Grid) Size() int { return g.size }

// Count returns the number of zones.
func (g *Grid) Count() int { return len(g.types) }

// Check returns an InvalidZoneError when id is out of range.
func (g *Grid) Check(id int) error {
	if id < 0 || id >= len(g.types) {
		return &InvalidZoneError{Zone: id, Count: len(g.types)}
	}
	return nil
}

// TypeOf returns the type of zone id.
func (g *Grid) TypeOf(id int) (Type, error) {
	if err := g.Check(id); err != nil {
		return "", err
	}
	return g.types[id], nil
}

// Zone returns the full description of zone id.
func (g *Grid) Zone(id int) (Zone, error) {
	if err := g.Check(id); err != nil {
		return Zone{}, err
	}
	return Zone{ID: id, Row: id / g.size, Col: id % g.size, Type: g.types[id]}, nil
}

// Zones lists every zone in id order.
func (g *Grid) Zones() []Zone {
	out := make([]Zone, len(g.types))
	for id := range g.types {
		out[id] = Zone{ID: id, Row: id / g.size, Col: id % g.size, Type: g.types[id]}
	}
	return out
}

// Distance returns the Manhattan distance between zones a and b.
func (g *Grid) Distance(a, b int) (int, error) {
	if err := g.Check(a); err != nil {
		return 0, err
	}
	if err := g.Check(b); err != nil {
		return 0, err
	}
	return abs(a/g.size-b/g.size) + abs(a%g.size-b%g.size), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
