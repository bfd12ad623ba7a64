package model

import (
	"encoding/json"
	"time"
)

// LiveRow is one symbol's line in the live view.
type LiveRow struct {
	Symbol    string
	Name      string
	ScannedAt time.Time
	Close     float64
	ChangePct float64
	Averages  AverageSet
	Event     BreakoutEvent
}

type liveRowJSON struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	ScannedAt time.Time `json:"scanned_at"`
	Close     float64   `json:"close"`
	ChangePct float64   `json:"chg_pct"`
	VolToday  float64   `json:"vol_today"`
	Avg5      *float64  `json:"avg5"`
	Avg10     *float64  `json:"avg10"`
	Avg20     *float64  `json:"avg20"`
	Avg50     *float64  `json:"avg50"`
	Ratio5    *float64  `json:"ratio5"`
	Verdict   Verdict   `json:"verdict"`
}

func (r LiveRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(liveRowJSON{
		Symbol:    r.Symbol,
		Name:      r.Name,
		ScannedAt: r.ScannedAt,
		Close:     r.Close,
		ChangePct: r.ChangePct,
		VolToday:  r.Event.VolToday,
		Avg5:      Ptr(r.Averages.Avg5),
		Avg10:     Ptr(r.Averages.Avg10),
		Avg20:     Ptr(r.Averages.Avg20),
		Avg50:     Ptr(r.Averages.Avg50),
		Ratio5:    Ptr(r.Event.Ratio),
		Verdict:   r.Event.Verdict(),
	})
}
