package features

import (
	"fmt"

	"github.com/kilianp07/dubaieta/core/zone"
)

// Table maps keys seen during fit to a statistic. Keys that were never seen
// resolve to Miss, the fallback chosen for that statistic at fit time.
type Table[K comparable] struct {
	Values map[K]float64 `json:"values"`
	Miss   float64       `json:"miss"`
}

func newTable[K comparable](miss float64) Table[K] {
	return Table[K]{Values: make(map[K]float64), Miss: miss}
}

// Get returns the learned value for k or the miss fallback.
func (t Table[K]) Get(k K) float64 {
	if v, ok := t.Values[k]; ok {
		return v
	}
	return t.Miss
}

// Len returns the number of learned keys.
func (t Table[K]) Len() int { return len(t.Values) }

// PairKey identifies an ordered pickup/dropoff zone pair.
type PairKey struct {
	Pickup  int
	Dropoff int
}

// MarshalText encodes the pair as "pickup-dropoff" so it can key a JSON map.
func (k PairKey) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%d-%d", k.Pickup, k.Dropoff)), nil
}

// UnmarshalText decodes "pickup-dropoff".
func (k *PairKey) UnmarshalText(b []byte) error {
	if _, err := fmt.Sscanf(string(b), "%d-%d", &k.Pickup, &k.Dropoff); err != nil {
		return fmt.Errorf("pair key %q: %w", b, err)
	}
	return nil
}

// ComboKey identifies a pickup/dropoff zone type combination.
type ComboKey struct {
	Pickup  zone.Type
	Dropoff zone.Type
}

// MarshalText encodes the combination as "pickup/dropoff".
func (k ComboKey) MarshalText() ([]byte, error) {
	return []byte(string(k.Pickup) + "/" + string(k.Dropoff)), nil
}

// UnmarshalText decodes "pickup/dropoff".
func (k *ComboKey) UnmarshalText(b []byte) error {
	for i, c := range b {
		if c == '/' {
			k.Pickup = zone.Type(b[:i])
			k.Dropoff = zone.Type(b[i+1:])
			return nil
		}
	}
	return fmt.Errorf("combo key %q: missing separator", b)
}
