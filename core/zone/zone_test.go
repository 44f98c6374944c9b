package zone

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := NewGrid(DefaultConfig())
	require.NoError(t, err)
	return g
}

func TestDistance(t *testing.T) {
	g := defaultGrid(t)
	cases := []struct {
		a, b int
		want int
	}{
		{0, 0, 0},
		{0, 1, 1},
		{0, 10, 1},
		{0, 11, 2},
		{0, 99, 18},
		{44, 55, 2},
	}
	for _, c := range cases {
		d, err := g.Distance(c.a, c.b)
		require.NoError(t, err)
		assert.Equal(t, c.want, d, "distance(%d,%d)", c.a, c.b)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	g := defaultGrid(t)
	for a := 0; a < g.Count(); a++ {
		self, err := g.Distance(a, a)
		require.NoError(t, err)
		if self != 0 {
			t.Fatalf("distance(%d,%d) = %d", a, a, self)
		}
		for b := 0; b < g.Count(); b++ {
			ab, _ := g.Distance(a, b)
			ba, _ := g.Distance(b, a)
			if ab != ba {
				t.Fatalf("distance(%d,%d)=%d but distance(%d,%d)=%d", a, b, ab, b, a, ba)
			}
		}
	}
}

func TestTypeAssignmentOrder(t *testing.T) {
	g := defaultGrid(t)
	checks := map[int]Type{
		0:  Residential,
		44: Business,
		55: Business,
		8:  Coastal,
		79: Coastal,
		88: Airport,
		99: Airport,
	}
	for id, want := range checks {
		got, err := g.TypeOf(id)
		require.NoError(t, err)
		assert.Equal(t, want, got, "zone %d", id)
	}

	// a later assignment overwrites an earlier one
	cfg := DefaultConfig()
	cfg.Assignments = append(cfg.Assignments, Assignment{Type: Residential, Cells: []int{44}})
	g2, err := NewGrid(cfg)
	require.NoError(t, err)
	typ, _ := g2.TypeOf(44)
	assert.Equal(t, Residential, typ)
}

func TestInvalidZone(t *testing.T) {
	g := defaultGrid(t)
	for _, id := range []int{-1, 100, 1000} {
		_, err := g.TypeOf(id)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidZone))
		var ize *InvalidZoneError
		require.True(t, errors.As(err, &ize))
		assert.Equal(t, id, ize.Zone)
	}
	_, err := g.Distance(0, 100)
	assert.ErrorIs(t, err, ErrInvalidZone)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 99
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Assignments = []Assignment{{Type: "volcano", Cells: []int{1}}}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Assignments = []Assignment{{Type: Business, Cells: []int{100}}}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidZone)
}

func TestZones(t *testing.T) {
	g := defaultGrid(t)
	zs := g.Zones()
	require.Len(t, zs, 100)
	assert.Equal(t, Zone{ID: 57, Row: 5, Col: 7, Type: Residential}, zs[57])
	seen := map[Type]bool{}
	for _, z := range zs {
		seen[z.Type] = true
	}
	for _, typ := range Types() {
		assert.True(t, seen[typ], "missing %s", typ)
	}
}
