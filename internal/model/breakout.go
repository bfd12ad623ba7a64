package model

import (
	"encoding/json"
	"time"

	"github.com/moznion/go-optional"
)

// Verdict is the tri-state outcome of a breakout evaluation.
type Verdict string

const (
	VerdictBreak        Verdict = "break"
	VerdictNoBreak      Verdict = "no_break"
	VerdictInsufficient Verdict = "insufficient_data"
)

// BreakoutEvent compares a day's volume against its AVG5.
type BreakoutEvent struct {
	Symbol              string
	Date                time.Time
	VolToday            float64
	Avg5                optional.Option[float64]
	Ratio               optional.Option[float64]
	IsBreak             bool
	InsufficientHistory bool
}

// Verdict collapses the event flags into the tri-state outcome.
func (e BreakoutEvent) Verdict() Verdict {
	switch {
	case e.InsufficientHistory:
		return VerdictInsufficient
	case e.IsBreak:
		return VerdictBreak
	default:
		return VerdictNoBreak
	}
}

// RatioOr returns the ratio, or fallback when it is undefined.
func (e BreakoutEvent) RatioOr(fallback float64) float64 {
	if e.Ratio.IsNone() {
		return fallback
	}
	return e.Ratio.Unwrap()
}

type breakoutEventJSON struct {
	Symbol              string   `json:"symbol"`
	Date                string   `json:"date"`
	VolToday            float64  `json:"vol_today"`
	Avg5                *float64 `json:"avg5"`
	Ratio5              *float64 `json:"ratio5"`
	IsBreak             bool     `json:"is_break"`
	InsufficientHistory bool     `json:"insufficient_history"`
	Verdict             Verdict  `json:"verdict"`
}

func (e BreakoutEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(breakoutEventJSON{
		Symbol:              e.Symbol,
		Date:                e.Date.Format(DateLayout),
		VolToday:            e.VolToday,
		Avg5:                Ptr(e.Avg5),
		Ratio5:              Ptr(e.Ratio),
		IsBreak:             e.IsBreak,
		InsufficientHistory: e.InsufficientHistory,
		Verdict:             e.Verdict(),
	})
}

// DailySummary aggregates backfill verdicts for one trading date.
type DailySummary struct {
	Date          string  `json:"date"`
	Total         int     `json:"n_total"`
	Breaks        int     `json:"n_break"`
	Insufficient  int     `json:"n_insufficient"`
	BreakRatioPct float64 `json:"break_ratio_pct"`
}
