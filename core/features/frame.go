package features

import (
	"fmt"
	"slices"
)

// Frame is a row-major table of float64 values described by a Schema.
// IDs carries the trip identifier of each row.
type Frame struct {
	Schema *Schema
	IDs    []string
	Rows   [][]float64
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.Rows) }

// Columns returns the column names.
func (f Frame) Columns() []string {
	if f.Schema == nil {
		return nil
	}
	return f.Schema.Names()
}

// Col returns a copy of the named column.
func (f Frame) Col(name string) ([]float64, error) {
	j, ok := f.Schema.Index(name)
	if !ok {
		return nil, fmt.Errorf("column %q: %w", name, ErrSchemaMismatch)
	}
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[j]
	}
	return out, nil
}

// Select projects f onto names, in that order. Every name must exist.
func (f Frame) Select(names []string) (Frame, error) {
	idx := make([]int, len(names))
	cols := make([]Column, len(names))
	var missing []string
	for i, n := range names {
		j, ok := f.Schema.Index(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		idx[i] = j
		cols[i] = f.Schema.cols[j]
	}
	if len(missing) > 0 {
		return Frame{}, fmt.Errorf("missing columns %v: %w", missing, ErrSchemaMismatch)
	}
	rows := make([][]float64, len(f.Rows))
	for r, row := range f.Rows {
		out := make([]float64, len(idx))
		for i, j := range idx {
			out[i] = row[j]
		}
		rows[r] = out
	}
	return Frame{Schema: NewSchema(cols), IDs: f.IDs, Rows: rows}, nil
}

// Slice returns rows [from, to) sharing the underlying row slices.
func (f Frame) Slice(from, to int) Frame {
	var ids []string
	if f.IDs != nil {
		ids = f.IDs[from:to]
	}
	return Frame{Schema: f.Schema, IDs: ids, Rows: f.Rows[from:to]}
}

// NewFrame builds a frame from column names and rows. Every column is
// Numeric; it is mostly useful for models fed outside the Engineer.
func NewFrame(names []string, rows [][]float64) (Frame, error) {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Kind: Numeric}
	}
	s := NewSchema(cols)
	if s.Len() != len(names) {
		return Frame{}, fmt.Errorf("duplicate column names in %v", names)
	}
	for i, r := range rows {
		if len(r) != len(names) {
			return Frame{}, fmt.Errorf("row %d has %d values, want %d", i, len(r), len(names))
		}
	}
	return Frame{Schema: s, Rows: rows}, nil
}

// NonFeatureColumns are never model inputs: the trip identifier, the
// timestamp, the label, and simulation internals that are unknown at
// request time. Any new raw column that must not reach a model has to be
// listed here.
var NonFeatureColumns = []string{
	ColTripID,
	ColRequestTime,
	ColDuration,
	ColDriverEfficiency,
	ColEvent,
}

// FeatureColumns returns every column of f except NonFeatureColumns, in
// frame order.
func FeatureColumns(f Frame) []string {
	var out []string
	for _, n := range f.Columns() {
		if !slices.Contains(NonFeatureColumns, n) {
			out = append(out, n)
		}
	}
	return out
}
