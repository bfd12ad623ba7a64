package collector

import (
	"context"
	"errors"

	"VolumeBreakout/internal/model"
)

var (
	// ErrTimeout is returned when the provider does not answer in time.
	ErrTimeout = errors.New("provider timeout")
	// ErrNoData is returned when the provider answers without usable data.
	ErrNoData = errors.New("no data returned")
	// ErrInvalidSymbol is returned for symbols not in EX:TICKER form or rejected by the provider.
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchQuotes returns the latest quote for each symbol the provider knows.
	// Symbols missing from the result are unknown to the provider.
	FetchQuotes(ctx context.Context, symbols []string) (map[string]model.Snapshot, error)
	// FetchDailyBars returns up to bars daily candles, oldest first.
	FetchDailyBars(ctx context.Context, symbol string, bars int) ([]model.DailyBar, error)
	Name() string
}
