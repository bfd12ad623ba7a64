package strategy

import (
	"github.com/moznion/go-optional"

	"VolumeBreakout/internal/model"
)

// Labels maps each verdict to its display text.
var Labels = map[model.Verdict]string{
	model.VerdictBreak:        "BREAK",
	model.VerdictNoBreak:      "-",
	model.VerdictInsufficient: "n/a",
}

// Evaluate compares the day's volume with its AVG5.
// A break requires a defined AVG5 and a volume strictly above it.
// Without AVG5 the event is flagged as insufficient history instead of a plain no-break.
func Evaluate(avg model.AverageSet) model.BreakoutEvent {
	ev := model.BreakoutEvent{
		Symbol:   avg.Symbol,
		Date:     avg.Date,
		VolToday: avg.Volume,
		Avg5:     avg.Avg5,
		Ratio:    optional.None[float64](),
	}
	if avg.Avg5.IsNone() {
		ev.InsufficientHistory = true
		return ev
	}

	avg5 := avg.Avg5.Unwrap()
	ev.IsBreak = avg.Volume > avg5
	if avg5 > 0 {
		ev.Ratio = optional.Some(avg.Volume / avg5)
	}
	return ev
}

// EvaluateAll evaluates every AverageSet, preserving order.
func EvaluateAll(sets []model.AverageSet) []model.BreakoutEvent {
	events := make([]model.BreakoutEvent, len(sets))
	for i, s := range sets {
		events[i] = Evaluate(s)
	}
	return events
}

// Label returns the display text for an event.
func Label(ev model.BreakoutEvent) string {
	return Labels[ev.Verdict()]
}
