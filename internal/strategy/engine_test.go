package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VolumeBreakout/internal/model"
)

func avgSet(vol float64, avg5 optional.Option[float64]) model.AverageSet {
	return model.AverageSet{
		Symbol: "SET:PTT",
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Volume: vol,
		Avg5:   avg5,
	}
}

func TestEvaluate_Verdicts(t *testing.T) {
	tests := []struct {
		name    string
		vol     float64
		avg5    optional.Option[float64]
		verdict model.Verdict
		isBreak bool
	}{
		{"above", 150, optional.Some(100.0), model.VerdictBreak, true},
		{"equal is not a break", 100, optional.Some(100.0), model.VerdictNoBreak, false},
		{"below", 50, optional.Some(100.0), model.VerdictNoBreak, false},
		{"undefined avg5", 1e9, optional.None[float64](), model.VerdictInsufficient, false},
		{"zero avg5 with volume", 10, optional.Some(0.0), model.VerdictBreak, true},
		{"zero avg5 zero volume", 0, optional.Some(0.0), model.VerdictNoBreak, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evaluate(avgSet(tt.vol, tt.avg5))
			assert.Equal(t, tt.verdict, ev.Verdict())
			assert.Equal(t, tt.isBreak, ev.IsBreak)
			assert.Equal(t, tt.vol, ev.VolToday)
			assert.Equal(t, "SET:PTT", ev.Symbol)
		})
	}
}

func TestEvaluate_InsufficientHistoryIsNotANegative(t *testing.T) {
	ev := Evaluate(avgSet(10, optional.None[float64]()))
	assert.True(t, ev.InsufficientHistory)
	assert.False(t, ev.IsBreak)
	assert.True(t, ev.Avg5.IsNone())
	assert.True(t, ev.Ratio.IsNone())
	assert.Equal(t, "n/a", Label(ev))

	neg := Evaluate(avgSet(10, optional.Some(20.0)))
	assert.False(t, neg.InsufficientHistory)
	assert.Equal(t, "-", Label(neg))
}

func TestEvaluate_Ratio(t *testing.T) {
	ev := Evaluate(avgSet(300, optional.Some(100.0)))
	require.True(t, ev.Ratio.IsSome())
	assert.InDelta(t, 3.0, ev.Ratio.Unwrap(), 1e-9)
	assert.Equal(t, "BREAK", Label(ev))

	zero := Evaluate(avgSet(300, optional.Some(0.0)))
	assert.True(t, zero.Ratio.IsNone())
	assert.Equal(t, 1.5, zero.RatioOr(1.5))
}

func TestEvaluateAll_PreservesOrder(t *testing.T) {
	sets := []model.AverageSet{
		avgSet(1, optional.None[float64]()),
		avgSet(200, optional.Some(100.0)),
		avgSet(50, optional.Some(100.0)),
	}
	events := EvaluateAll(sets)
	require.Len(t, events, 3)
	assert.Equal(t, model.VerdictInsufficient, events[0].Verdict())
	assert.Equal(t, model.VerdictBreak, events[1].Verdict())
	assert.Equal(t, model.VerdictNoBreak, events[2].Verdict())
}
