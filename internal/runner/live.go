package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"VolumeBreakout/internal/calculator"
	"VolumeBreakout/internal/model"
	"VolumeBreakout/internal/strategy"
)

// LiveResult is the outcome of one live refresh.
type LiveResult struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Universe   int                 `json:"universe"`
	Rows       []model.LiveRow     `json:"rows"`
	Errors     []model.ErrorRecord `json:"errors"`
}

// Breaks returns the rows whose verdict is a break.
func (r *LiveResult) Breaks() []model.LiveRow {
	var out []model.LiveRow
	for _, row := range r.Rows {
		if row.Event.IsBreak {
			out = append(out, row)
		}
	}
	return out
}

// RefreshLive fetches the latest quotes, then daily history for each quoted
// symbol using up to workers concurrent fetches, and evaluates today's volume.
// Rows follow the order of symbols; failed symbols are reported in Errors.
func (r *Runner) RefreshLive(ctx context.Context, symbols []string, workers int) *LiveResult {
	res := &LiveResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Universe:  len(symbols),
	}
	log := r.Log.With(zap.String("run_id", res.RunID), zap.String("phase", string(model.PhaseLive)))
	log.Info("live refresh started", zap.Int("symbols", len(symbols)), zap.Int("workers", workers))

	quotes, errs := r.Data.FetchLatest(ctx, symbols)

	rows := make([]*model.LiveRow, len(symbols))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(clampWorkers(workers, len(symbols)))

	for i, sym := range symbols {
		snap, ok := quotes[sym]
		if !ok {
			continue
		}
		g.Go(func() error {
			bars, err := r.history(ctx, sym, r.HistoryBars)
			if err != nil {
				log.Warn("history fetch failed", zap.String("symbol", sym), zap.Error(err))
				mu.Lock()
				errs = append(errs, model.NewErrorRecord(sym, model.PhaseLive, err))
				mu.Unlock()
				return nil
			}
			bars = r.withToday(bars, snap)
			avg, _ := calculator.LatestAverages(bars)
			rows[i] = &model.LiveRow{
				Symbol:    sym,
				Name:      snap.Name,
				ScannedAt: snap.Time,
				Close:     snap.Price,
				ChangePct: snap.ChangePct,
				Averages:  avg,
				Event:     strategy.Evaluate(avg),
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, row := range rows {
		if row != nil {
			res.Rows = append(res.Rows, *row)
		}
	}
	res.Errors = errs
	res.FinishedAt = time.Now()
	log.Info("live refresh finished",
		zap.Int("rows", len(res.Rows)),
		zap.Int("breaks", len(res.Breaks())),
		zap.Int("errors", len(res.Errors)),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)))
	return res
}

// withToday makes the snapshot's volume the last bar of the series: it
// replaces the bar for the snapshot's market date or appends a new one.
func (r *Runner) withToday(bars []model.DailyBar, snap model.Snapshot) []model.DailyBar {
	today := snap.Time.In(r.Location).Format(model.DateLayout)
	out := make([]model.DailyBar, len(bars), len(bars)+1)
	copy(out, bars)

	if n := len(out); n > 0 && out[n-1].Time.In(r.Location).Format(model.DateLayout) == today {
		out[n-1].Volume = snap.Volume
		if snap.Price != 0 {
			out[n-1].Close = snap.Price
		}
		return out
	}
	return append(out, model.DailyBar{
		Symbol: snap.Symbol,
		Time:   snap.Time,
		Open:   snap.Price,
		High:   snap.Price,
		Low:    snap.Price,
		Close:  snap.Price,
		Volume: snap.Volume,
	})
}
