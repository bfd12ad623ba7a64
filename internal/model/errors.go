package model

import "time"

// Phase identifies which operation produced an ErrorRecord.
type Phase string

const (
	PhaseLive     Phase = "live"
	PhaseBackfill Phase = "backfill"
)

// ErrorRecord is a user-visible failure for one symbol.
type ErrorRecord struct {
	Symbol    string    `json:"symbol"`
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewErrorRecord stamps an error for symbol with the current time.
func NewErrorRecord(symbol string, phase Phase, err error) ErrorRecord {
	return ErrorRecord{
		Symbol:    symbol,
		Phase:     phase,
		Message:   err.Error(),
		Timestamp: time.Now(),
	}
}
