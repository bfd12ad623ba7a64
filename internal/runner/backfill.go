package runner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"VolumeBreakout/internal/calculator"
	"VolumeBreakout/internal/model"
	"VolumeBreakout/internal/strategy"
)

// ProgressFunc is called after each symbol completes, successfully or not.
type ProgressFunc func(done, total int)

// BackfillResult is the outcome of one backfill run.
type BackfillResult struct {
	RunID      string                `json:"run_id"`
	Days       int                   `json:"days"`
	Workers    int                   `json:"workers"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Universe   int                   `json:"universe"`
	Events     []model.BreakoutEvent `json:"events"`
	Errors     []model.ErrorRecord   `json:"errors"`
}

// Backfill evaluates the last days trading days of every symbol using up to
// workers concurrent history fetches. Symbols complete in any order; each
// symbol's events are appended as one chronological block. Failures are
// recorded per symbol and do not stop the run.
func (r *Runner) Backfill(ctx context.Context, symbols []string, days, workers int, progress ProgressFunc) *BackfillResult {
	res := &BackfillResult{
		RunID:     uuid.NewString(),
		Days:      days,
		Workers:   workers,
		StartedAt: time.Now(),
		Universe:  len(symbols),
	}
	log := r.Log.With(zap.String("run_id", res.RunID), zap.String("phase", string(model.PhaseBackfill)))
	log.Info("backfill started",
		zap.Int("symbols", len(symbols)),
		zap.Int("days", days),
		zap.Int("workers", workers))

	if days <= 0 {
		res.FinishedAt = time.Now()
		return res
	}

	var (
		mu   sync.Mutex
		done int
		g    errgroup.Group
	)
	g.SetLimit(clampWorkers(workers, len(symbols)))

	for _, sym := range symbols {
		g.Go(func() error {
			events, err := r.backfillSymbol(ctx, sym, days)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("backfill symbol failed", zap.String("symbol", sym), zap.Error(err))
				res.Errors = append(res.Errors, model.NewErrorRecord(sym, model.PhaseBackfill, err))
			} else {
				res.Events = append(res.Events, events...)
			}
			done++
			if progress != nil {
				progress(done, len(symbols))
			}
			return nil
		})
	}
	_ = g.Wait()

	res.FinishedAt = time.Now()
	log.Info("backfill finished",
		zap.Int("events", len(res.Events)),
		zap.Int("errors", len(res.Errors)),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)))
	return res
}

func (r *Runner) backfillSymbol(ctx context.Context, symbol string, days int) ([]model.BreakoutEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars, err := r.history(ctx, symbol, days+r.WarmupBars)
	if err != nil {
		return nil, err
	}
	sets := calculator.VolumeAverages(bars)
	if len(sets) > days {
		sets = sets[len(sets)-days:]
	}
	return strategy.EvaluateAll(sets), nil
}

// Summarize aggregates events per date, newest date first. Total counts
// events with a decided verdict; insufficient-history events are counted apart.
func Summarize(events []model.BreakoutEvent) []model.DailySummary {
	byDate := make(map[string]*model.DailySummary)
	for _, ev := range events {
		key := ev.Date.Format(model.DateLayout)
		s, ok := byDate[key]
		if !ok {
			s = &model.DailySummary{Date: key}
			byDate[key] = s
		}
		switch ev.Verdict() {
		case model.VerdictInsufficient:
			s.Insufficient++
			continue
		case model.VerdictBreak:
			s.Breaks++
		}
		s.Total++
	}

	out := make([]model.DailySummary, 0, len(byDate))
	for _, s := range byDate {
		if s.Total > 0 {
			s.BreakRatioPct = float64(s.Breaks) / float64(s.Total) * 100
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// BreakDetails returns the break events sorted by date (newest first) and then by ratio (highest first).
func BreakDetails(events []model.BreakoutEvent) []model.BreakoutEvent {
	var out []model.BreakoutEvent
	for _, ev := range events {
		if ev.IsBreak {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].RatioOr(0) > out[j].RatioOr(0)
	})
	return out
}

// EventsFor returns one symbol's events, preserving order.
func EventsFor(events []model.BreakoutEvent, symbol string) []model.BreakoutEvent {
	var out []model.BreakoutEvent
	for _, ev := range events {
		if ev.Symbol == symbol {
			out = append(out, ev)
		}
	}
	return out
}
