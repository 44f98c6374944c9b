package zone

import "fmt"

// Assignment marks a set of cells with a zone type. Cells lists explicit
// zone ids; Columns marks every zone in the listed grid columns.
type Assignment struct {
	Type    Type  `json:"type"`
	Cells   []int `json:"cells"`
	Columns []int `json:"columns"`
}

// Config describes the grid and its type assignments. Assignments are
// applied in order so later entries overwrite earlier ones.
type Config struct {
	GridSize    int          `json:"grid_size"`
	Count       int          `json:"count"`
	Assignments []Assignment `json:"assignments"`
}

// DefaultConfig returns the 10x10 Dubai layout: a business core, a coastal
// strip on the two eastern columns and the airport in the south-east corner.
func DefaultConfig() Config {
	return Config{
		GridSize: 10,
		Count:    100,
		Assignments: []Assignment{
			{Type: Business, Cells: []int{44, 45, 54, 55}},
			{Type: Coastal, Columns: []int{8, 9}},
			{Type: Airport, Cells: []int{88, 89, 98, 99}},
		},
	}
}

// SetDefaults fills the grid dimensions when unset.
func (c *Config) SetDefaults() {
	if c.GridSize == 0 && c.Count == 0 {
		def := DefaultConfig()
		c.GridSize = def.GridSize
		c.Count = def.Count
		if c.Assignments == nil {
			c.Assignments = def.Assignments
		}
	}
}

// Validate checks the grid is square and every assignment stays in range.
func (c Config) Validate() error {
	if c.GridSize <= 0 {
		return fmt.Errorf("grid_size must be positive")
	}
	if c.GridSize*c.GridSize != c.Count {
		return fmt.Errorf("grid_size %d squared does not match zone count %d", c.GridSize, c.Count)
	}
	for _, a := range c.Assignments {
		if !a.Type.Valid() {
			return fmt.Errorf("unknown zone type %q", a.Type)
		}
		for _, id := range a.Cells {
			if id < 0 || id >= c.Count {
				return &InvalidZoneError{Zone: id, Count: c.Count}
			}
		}
		for _, col := range a.Columns {
			if col < 0 || col >= c.GridSize {
				return fmt.Errorf("column %d outside grid of size %d", col, c.GridSize)
			}
		}
	}
	return nil
}
