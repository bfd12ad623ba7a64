package calculator

import (
	"errors"

	"github.com/moznion/go-optional"

	"VolumeBreakout/internal/model"
)

// CalculateSMA computes the simple moving average of the last period values.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns one entry per input value: the trailing mean over period
// values ending at that index, or None while fewer than period values exist.
func SMASeries(values []float64, period int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(values))
	for i := range values {
		if sma, err := CalculateSMA(values[:i+1], period); err == nil {
			out[i] = optional.Some(sma)
		} else {
			out[i] = optional.None[float64]()
		}
	}
	return out
}

// VolumeAverages computes an AverageSet for every bar. Each window ends at
// (and includes) the bar's own volume. Bars must be ordered oldest first.
func VolumeAverages(bars []model.DailyBar) []model.AverageSet {
	vols := extractVolumes(bars)
	series := make(map[int][]optional.Option[float64], len(model.Windows))
	for _, w := range model.Windows {
		series[w] = SMASeries(vols, w)
	}

	sets := make([]model.AverageSet, len(bars))
	for i, b := range bars {
		set := model.AverageSet{Symbol: b.Symbol, Date: b.Time, Volume: b.Volume}
		for _, w := range model.Windows {
			set.SetAvg(w, series[w][i])
		}
		sets[i] = set
	}
	return sets
}

// LatestAverages returns the AverageSet for the last bar, or false when bars is empty.
func LatestAverages(bars []model.DailyBar) (model.AverageSet, bool) {
	if len(bars) == 0 {
		return model.AverageSet{}, false
	}
	sets := VolumeAverages(bars)
	return sets[len(sets)-1], true
}

// ExtractCloses returns bar closes in order.
func ExtractCloses(bars []model.DailyBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractVolumes(bars []model.DailyBar) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}
