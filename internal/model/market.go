package model

import "time"

// DateLayout is the calendar date format used for bar dates and report keys.
const DateLayout = "2006-01-02"

// DailyBar represents a single daily candlestick for a symbol.
type DailyBar struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Date returns the bar's calendar date in the location its time carries.
func (b DailyBar) Date() string {
	return b.Time.Format(DateLayout)
}

// Snapshot is the latest quote for a symbol as returned by a live scan.
type Snapshot struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Time      time.Time `json:"time"`
	Price     float64   `json:"price"`
	ChangePct float64   `json:"change_pct"`
	Volume    float64   `json:"volume"`
}
