package features

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSchemaMismatch is returned when a frame lacks columns a consumer needs.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Kind describes what a column holds.
type Kind int

const (
	// Numeric is a continuous value.
	Numeric Kind = iota
	// Flag is a 0/1 indicator, including one-hot levels.
	Flag
	// Meta is bookkeeping carried alongside the features (timestamps,
	// simulation internals, the label) and never fed to a model.
	Meta
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Flag:
		return "flag"
	case Meta:
		return "meta"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Column is a named, typed frame column.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Schema is an ordered list of columns with a name index.
type Schema struct {
	cols  []Column
	index map[string]int
}

// NewSchema indexes cols. Duplicate names keep their first position.
func NewSchema(cols []Column) *Schema {
	s := &Schema{cols: make([]Column, 0, len(cols)), index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if _, dup := s.index[c.Name]; dup {
			continue
		}
		s.index[c.Name] = len(s.cols)
		s.cols = append(s.cols, c)
	}
	return s
}

// Columns returns a copy of the columns.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Name
	}
	return out
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.cols) }

// Index returns the position of name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Has reports whether name is a column.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Equal reports whether both schemas list the same columns in the same order.
func (s *Schema) Equal(o *Schema) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.cols {
		if s.cols[i] != o.cols[i] {
			return false
		}
	}
	return true
}

// Align reindexes f to this schema: columns absent from f are filled with
// zeros and columns unknown to the schema are dropped.
func (s *Schema) Align(f Frame) Frame {
	src := make([]int, len(s.cols))
	for i, c := range s.cols {
		j, ok := f.Schema.Index(c.Name)
		if !ok {
			j = -1
		}
		src[i] = j
	}
	rows := make([][]float64, len(f.Rows))
	for r, row := range f.Rows {
		out := make([]float64, len(s.cols))
		for i, j := range src {
			if j >= 0 {
				out[i] = row[j]
			}
		}
		rows[r] = out
	}
	return Frame{Schema: s, IDs: f.IDs, Rows: rows}
}

// MarshalJSON encodes the schema as its column list.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.cols)
}

// UnmarshalJSON rebuilds the schema and its index.
func (s *Schema) UnmarshalJSON(b []byte) error {
	var cols []Column
	if err := json.Unmarshal(b, &cols); err != nil {
		return err
	}
	*s = *NewSchema(cols)
	return nil
}
