package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/dubaieta/core/logger"
	"github.com/kilianp07/dubaieta/core/model"
)

// ErrNotFitted is returned by Transform before Fit.
var ErrNotFitted = errors.New("feature engineer must be fitted before transform")

// State holds the statistics learned by Fit. It is never mutated after Fit
// returns; fitting again replaces it.
type State struct {
	PairMean   Table[PairKey]  `json:"pair_mean"`
	PairStd    Table[PairKey]  `json:"pair_std"`
	PairCount  Table[PairKey]  `json:"pair_count"`
	HourMean   Table[int]      `json:"hour_mean"`
	DowMean    Table[int]      `json:"dow_mean"`
	ComboMean  Table[ComboKey] `json:"zone_combo_mean"`
	GlobalMean float64         `json:"global_mean"`
	GlobalStd  float64         `json:"global_std"`
	// Schema is the column set frozen by the first FitTransform.
	Schema *Schema `json:"schema,omitempty"`
}

// Engineer derives model features from trips.
type Engineer struct {
	state *State
	folds int
	log   logger.Logger
}

// Option customises an Engineer.
type Option func(*Engineer)

// WithLogger sets the logger. Output is discarded by default.
func WithLogger(l logger.Logger) Option {
	return func(e *Engineer) { e.log = l }
}

// WithCrossFit makes FitTransform encode every training row with duration
// statistics learned from the other folds. Later transforms use statistics
// from all training trips. folds below 2 disables it, which encodes training
// rows in-sample with the statistics they contributed to.
func WithCrossFit(folds int) Option {
	return func(e *Engineer) { e.folds = folds }
}

// New returns an unfitted Engineer.
func New(opts ...Option) *Engineer {
	e := &Engineer{log: logger.NopLogger{}}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Fitted reports whether Fit has completed.
func (e *Engineer) Fitted() bool { return e.state != nil }

// Schema returns the frozen output schema, or nil before FitTransform.
func (e *Engineer) Schema() *Schema {
	if e.state == nil {
		return nil
	}
	return e.state.Schema
}

// Fit learns duration statistics from the training trips. Any previous
// state, including a frozen schema, is discarded.
func (e *Engineer) Fit(trips []model.Trip) error {
	if len(trips) == 0 {
		return fmt.Errorf("fit: no training trips")
	}
	e.log.Infof("fitting feature statistics on %d trips", len(trips))
	st, pairs := fitState(trips)
	e.state = st
	e.log.Infow("feature engineering fitted", map[string]any{
		"pairs":       pairs,
		"global_mean": st.GlobalMean,
		"global_std":  st.GlobalStd,
	})
	return nil
}

func fitState(trips []model.Trip) (*State, int) {
	labels := model.Labels(trips)
	mean, std := stat.MeanStdDev(labels, nil)
	if len(labels) < 2 {
		std = 0
	}

	pairs := make(map[PairKey]*Summary)
	hours := make(map[int]*Summary)
	days := make(map[int]*Summary)
	combos := make(map[ComboKey]*Summary)
	for _, t := range trips {
		add(pairs, PairKey{t.Pickup, t.Dropoff}, t.Duration)
		add(hours, t.Hour, t.Duration)
		add(days, t.DayOfWeek, t.Duration)
		add(combos, ComboKey{t.PickupType, t.DropoffType}, t.Duration)
	}

	st := &State{
		PairMean:   newTable[PairKey](mean),
		PairStd:    newTable[PairKey](std),
		PairCount:  newTable[PairKey](0),
		HourMean:   means(hours, mean),
		DowMean:    means(days, mean),
		ComboMean:  means(combos, mean),
		GlobalMean: mean,
		GlobalStd:  std,
	}
	for k, s := range pairs {
		st.PairMean.Values[k] = s.Mean
		st.PairCount.Values[k] = float64(s.Count)
		// a single observation has no spread; leave it to the global fallback
		if sd := s.Std(); !math.IsNaN(sd) {
			st.PairStd.Values[k] = sd
		}
	}
	return st, len(pairs)
}

// FitTransform fits on trips, transforms them and freezes the resulting
// column set for every later Transform.
func (e *Engineer) FitTransform(trips []model.Trip) (Frame, error) {
	if err := e.Fit(trips); err != nil {
		return Frame{}, err
	}
	f, err := e.Transform(trips)
	if err != nil {
		return Frame{}, err
	}
	if e.folds >= 2 && len(trips) >= e.folds {
		e.crossFit(trips, f)
	}
	e.state.Schema = f.Schema
	return f, nil
}

// crossFit replaces the duration encodings of each training row with values
// learned from the other folds, so no row is encoded with its own label.
// Rows are assigned to folds round-robin.
func (e *Engineer) crossFit(trips []model.Trip, f Frame) {
	idx := make([]int, len(encodedColumns))
	for k, name := range encodedColumns {
		idx[k], _ = f.Schema.Index(name)
	}
	for fold := 0; fold < e.folds; fold++ {
		rest := make([]model.Trip, 0, len(trips))
		for i, t := range trips {
			if i%e.folds != fold {
				rest = append(rest, t)
			}
		}
		st, _ := fitState(rest)
		for i := fold; i < len(trips); i += e.folds {
			for k, v := range st.encoded(trips[i]) {
				f.Rows[i][idx[k]] = v
			}
		}
	}
	e.log.Debugf("cross-fitted duration encodings over %d folds", e.folds)
}

// Transform derives the feature frame for trips using the fitted state.
func (e *Engineer) Transform(trips []model.Trip) (Frame, error) {
	st := e.state
	if st == nil {
		return Frame{}, ErrNotFitted
	}
	e.log.Debugf("transforming %d records", len(trips))

	pickupLevels := levels(trips, func(t model.Trip) string { return string(t.PickupType) })
	dropoffLevels := levels(trips, func(t model.Trip) string { return string(t.DropoffType) })
	weatherLevels := levels(trips, func(t model.Trip) string { return string(t.Weather) })

	cols := make([]Column, 0, len(baseColumns)+len(pickupLevels)+len(dropoffLevels)+len(weatherLevels))
	cols = append(cols, baseColumns...)
	cols = appendOneHot(cols, PrefixPickupType, pickupLevels)
	cols = appendOneHot(cols, PrefixDropoffType, dropoffLevels)
	cols = appendOneHot(cols, PrefixWeather, weatherLevels)
	schema := NewSchema(cols)

	ids := make([]string, len(trips))
	rows := make([][]float64, len(trips))
	for i, t := range trips {
		ids[i] = t.ID
		row := make([]float64, schema.Len())
		copy(row, st.baseRow(t))
		setOneHot(row, schema, PrefixPickupType, string(t.PickupType))
		setOneHot(row, schema, PrefixDropoffType, string(t.DropoffType))
		setOneHot(row, schema, PrefixWeather, string(t.Weather))
		rows[i] = row
	}
	f := Frame{Schema: schema, IDs: ids, Rows: rows}
	if st.Schema != nil {
		f = st.Schema.Align(f)
	}
	e.log.Debugf("created %d columns", f.Schema.Len())
	return f, nil
}

// baseRow computes every non one-hot column, in baseColumns order.
func (st *State) baseRow(t model.Trip) []float64 {
	dist := float64(t.Distance)
	hour := float64(t.Hour)
	day := float64(t.DayOfWeek)
	enc := st.encoded(t)
	return []float64{
		float64(t.Pickup),
		float64(t.Dropoff),
		float64(t.RequestTime.Unix()),
		t.Duration,
		dist,
		hour,
		day,
		b2f(t.Weekend),
		b2f(t.RushHour),
		b2f(t.FridayPrayer),
		b2f(t.Event),
		t.DriverEfficiency,
		math.Sin(2 * math.Pi * hour / 24),
		math.Cos(2 * math.Pi * hour / 24),
		math.Sin(2 * math.Pi * day / 7),
		math.Cos(2 * math.Pi * day / 7),
		enc[0], enc[1], enc[2], enc[3], enc[4], enc[5],
		dist * b2f(t.RushHour),
		dist * b2f(t.Weekend),
		dist * dist,
		dist * b2f(t.FridayPrayer),
		b2f(t.PickupType == t.DropoffType),
		b2f(between(t.Hour, 6, 10)),
		b2f(between(t.Hour, 12, 16)),
		b2f(between(t.Hour, 17, 21)),
		b2f(between(t.Hour, 22, 23) || between(t.Hour, 0, 5)),
	}
}

// MarshalJSON encodes the fitted state.
func (e *Engineer) MarshalJSON() ([]byte, error) {
	if e.state == nil {
		return nil, ErrNotFitted
	}
	return json.Marshal(e.state)
}

// UnmarshalJSON restores a fitted state.
func (e *Engineer) UnmarshalJSON(b []byte) error {
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return fmt.Errorf("decode feature engineer: %w", err)
	}
	e.state = &st
	if e.log == nil {
		e.log = logger.NopLogger{}
	}
	return nil
}

// encodedColumns are the columns derived from training durations, in the
// order returned by State.encoded.
var encodedColumns = []string{ColPairMean, ColPairStd, ColPairCount, ColHourMean, ColDowMean, ColComboMean}

func (st *State) encoded(t model.Trip) [6]float64 {
	pair := PairKey{t.Pickup, t.Dropoff}
	return [6]float64{
		st.PairMean.Get(pair),
		st.PairStd.Get(pair),
		st.PairCount.Get(pair),
		st.HourMean.Get(t.Hour),
		st.DowMean.Get(t.DayOfWeek),
		st.ComboMean.Get(ComboKey{t.PickupType, t.DropoffType}),
	}
}

func add[K comparable](m map[K]*Summary, k K, v float64) {
	s, ok := m[k]
	if !ok {
		s = &Summary{}
		m[k] = s
	}
	s.Add(v)
}

func means[K comparable](m map[K]*Summary, miss float64) Table[K] {
	t := newTable[K](miss)
	for k, s := range m {
		t.Values[k] = s.Mean
	}
	return t
}

// levels returns the distinct values of a categorical field, sorted.
func levels(trips []model.Trip, get func(model.Trip) string) []string {
	seen := make(map[string]struct{})
	for _, t := range trips {
		seen[get(t)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func appendOneHot(cols []Column, prefix string, lvls []string) []Column {
	for _, l := range lvls {
		cols = append(cols, Column{Name: OneHot(prefix, l), Kind: Flag})
	}
	return cols
}

func setOneHot(row []float64, s *Schema, prefix, level string) {
	if j, ok := s.Index(OneHot(prefix, level)); ok {
		row[j] = 1
	}
}

func between(v, lo, hi int) bool { return v >= lo && v <= hi }

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
