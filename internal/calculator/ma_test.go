package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VolumeBreakout/internal/model"
)

func makeBars(vols ...float64) []model.DailyBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.DailyBar, len(vols))
	for i, v := range vols {
		bars[i] = model.DailyBar{
			Symbol: "SET:PTT",
			Time:   start.AddDate(0, 0, i),
			Close:  float64(10 + i),
			Volume: v,
		}
	}
	return bars
}

func TestCalculateSMA(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		period  int
		want    float64
		wantErr bool
	}{
		{"exact", []float64{1, 2, 3}, 3, 2, false},
		{"tail only", []float64{100, 1, 2, 3}, 3, 2, false},
		{"too short", []float64{1, 2}, 3, 0, true},
		{"zero period", []float64{1, 2}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateSMA(tt.values, tt.period)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestVolumeAverages_LastEqualsMeanOfLastN(t *testing.T) {
	vols := make([]float64, 60)
	for i := range vols {
		vols[i] = float64((i*37)%11 + 1)
	}
	sets := VolumeAverages(makeBars(vols...))
	require.Len(t, sets, 60)

	last := sets[len(sets)-1]
	for _, w := range model.Windows {
		sum := 0.0
		for _, v := range vols[len(vols)-w:] {
			sum += v
		}
		avg := last.Avg(w)
		require.True(t, avg.IsSome(), "window %d", w)
		assert.InDelta(t, sum/float64(w), avg.Unwrap(), 1e-9, "window %d", w)
	}
}

func TestVolumeAverages_UndefinedUntilWindowFilled(t *testing.T) {
	sets := VolumeAverages(makeBars(10, 20, 30, 40, 50, 60))

	for i := 0; i < 4; i++ {
		assert.True(t, sets[i].Avg5.IsNone(), "index %d", i)
	}
	require.True(t, sets[4].Avg5.IsSome())
	assert.InDelta(t, 30.0, sets[4].Avg5.Unwrap(), 1e-9)
	assert.InDelta(t, 40.0, sets[5].Avg5.Unwrap(), 1e-9)
	assert.True(t, sets[5].Avg10.IsNone())
	assert.True(t, sets[5].Avg50.IsNone())
}

func TestVolumeAverages_CarriesBarIdentity(t *testing.T) {
	bars := makeBars(1, 2, 3)
	sets := VolumeAverages(bars)
	for i, s := range sets {
		assert.Equal(t, bars[i].Symbol, s.Symbol)
		assert.Equal(t, bars[i].Time, s.Date)
		assert.Equal(t, bars[i].Volume, s.Volume)
	}
}

func TestVolumeAverages_Empty(t *testing.T) {
	assert.Empty(t, VolumeAverages(nil))
	_, ok := LatestAverages(nil)
	assert.False(t, ok)
}

func TestSMASeries_Closes(t *testing.T) {
	closes := ExtractCloses(makeBars(1, 1, 1))
	assert.Equal(t, []float64{10, 11, 12}, closes)

	series := SMASeries(closes, 2)
	assert.True(t, series[0].IsNone())
	assert.InDelta(t, 10.5, series[1].Unwrap(), 1e-9)
	assert.InDelta(t, 11.5, series[2].Unwrap(), 1e-9)
}
