package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaAlign(t *testing.T) {
	target := NewSchema([]Column{{"a", Numeric}, {"b", Flag}, {"c", Numeric}})
	f, err := NewFrame([]string{"c", "x", "a"}, [][]float64{{3, 9, 1}, {30, 90, 10}})
	require.NoError(t, err)

	out := target.Align(f)
	assert.Equal(t, []string{"a", "b", "c"}, out.Columns())
	assert.Equal(t, [][]float64{{1, 0, 3}, {10, 0, 30}}, out.Rows)
}

func TestFrameSelect(t *testing.T) {
	f, err := NewFrame([]string{"a", "b", "c"}, [][]float64{{1, 2, 3}})
	require.NoError(t, err)
	sel, err := f.Select([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 1}}, sel.Rows)

	_, err = f.Select([]string{"a", "zzz"})
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	col, err := f.Col("b")
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, col)
	_, err = f.Col("nope")
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestNewFrameValidates(t *testing.T) {
	_, err := NewFrame([]string{"a", "a"}, nil)
	assert.Error(t, err)
	_, err = NewFrame([]string{"a", "b"}, [][]float64{{1}})
	assert.Error(t, err)
}

func TestKeyText(t *testing.T) {
	var p PairKey
	b, _ := PairKey{12, 7}.MarshalText()
	require.NoError(t, p.UnmarshalText(b))
	assert.Equal(t, PairKey{12, 7}, p)

	var c ComboKey
	b, _ = ComboKey{"business", "airport"}.MarshalText()
	require.NoError(t, c.UnmarshalText(b))
	assert.Equal(t, ComboKey{"business", "airport"}, c)
	assert.Error(t, c.UnmarshalText([]byte("nope")))
}

func TestSummaryStd(t *testing.T) {
	var s Summary
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Add(v)
	}
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.138089935, s.Std(), 1e-9)
}
