package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"VolumeBreakout/internal/model"
)

// MarketData is the subset of the market data client the runners depend on.
type MarketData interface {
	FetchLatest(ctx context.Context, symbols []string) (map[string]model.Snapshot, []model.ErrorRecord)
	FetchHistory(ctx context.Context, symbol string, bars int) ([]model.DailyBar, error)
}

// Runner executes live refreshes and backfills over a symbol universe.
type Runner struct {
	Data        MarketData
	HistoryBars int
	WarmupBars  int
	Location    *time.Location
	Log         *zap.Logger
}

// New creates a Runner. A nil location means UTC.
func New(data MarketData, historyBars, warmupBars int, loc *time.Location, log *zap.Logger) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		Data:        data,
		HistoryBars: historyBars,
		WarmupBars:  warmupBars,
		Location:    loc,
		Log:         log,
	}
}

// history fetches bars and moves their times into the market location, so
// every date derived from them is a market date.
func (r *Runner) history(ctx context.Context, symbol string, n int) ([]model.DailyBar, error) {
	bars, err := r.Data.FetchHistory(ctx, symbol, n)
	if err != nil {
		return nil, err
	}
	out := make([]model.DailyBar, len(bars))
	for i, b := range bars {
		b.Time = b.Time.In(r.Location)
		out[i] = b
	}
	return out, nil
}

func clampWorkers(workers, jobs int) int {
	if workers < 1 {
		workers = 1
	}
	if jobs > 0 && workers > jobs {
		workers = jobs
	}
	return workers
}
