package generator

import (
	"slices"

	"github.com/kilianp07/dubaieta/core/model"
)

// Split orders trips by request time and cuts them into train, validation
// and test sets without shuffling, so later sets are never earlier in time.
// The input slice is left untouched.
func Split(trips []model.Trip, trainRatio, valRatio float64) (train, val, test []model.Trip) {
	sorted := slices.Clone(trips)
	slices.SortStableFunc(sorted, func(a, b model.Trip) int {
		return a.RequestTime.Compare(b.RequestTime)
	})
	n := len(sorted)
	nTrain := int(float64(n) * trainRatio)
	nVal := int(float64(n) * valRatio)
	if nTrain+nVal > n {
		nVal = n - nTrain
	}
	return sorted[:nTrain:nTrain], sorted[nTrain : nTrain+nVal : nTrain+nVal], sorted[nTrain+nVal:]
}

// Split applies the configured ratios.
func (g *Generator) Split(trips []model.Trip) (train, val, test []model.Trip) {
	train, val, test = Split(trips, g.cfg.TrainRatio, g.cfg.ValRatio)
	g.log.Infof("data split: train=%d val=%d test=%d", len(train), len(val), len(test))
	return train, val, test
}
