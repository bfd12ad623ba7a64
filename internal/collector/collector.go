package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"go.uber.org/zap"

	"VolumeBreakout/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without explicit Bars get a generated series.
type MockFetcher struct {
	BaseVolume float64
	Bars       map[string][]model.DailyBar
	Errs       map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchQuotes(_ context.Context, symbols []string) (map[string]model.Snapshot, error) {
	out := make(map[string]model.Snapshot, len(symbols))
	for _, sym := range symbols {
		if _, failed := m.Errs[sym]; failed {
			continue
		}
		bars := m.bars(sym, 2)
		if len(bars) == 0 {
			continue
		}
		last := bars[len(bars)-1]
		prev := last
		if len(bars) > 1 {
			prev = bars[len(bars)-2]
		}
		chg := 0.0
		if prev.Close != 0 {
			chg = (last.Close - prev.Close) / prev.Close * 100
		}
		out[sym] = model.Snapshot{
			Symbol:    sym,
			Name:      sym,
			Time:      time.Now(),
			Price:     last.Close,
			ChangePct: chg,
			Volume:    last.Volume,
		}
	}
	return out, nil
}

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, bars int) ([]model.DailyBar, error) {
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	return m.bars(symbol, bars), nil
}

func (m *MockFetcher) bars(symbol string, count int) []model.DailyBar {
	if b, ok := m.Bars[symbol]; ok {
		if count < len(b) {
			return b[len(b)-count:]
		}
		return b
	}
	base := m.BaseVolume
	if base == 0 {
		base = 1_000_000
	}
	return generateMockBars(symbol, base, count)
}

// generateMockBars builds weekday bars ending yesterday with a per-symbol
// deterministic volume pattern. Roughly one symbol in three spikes on the last bar.
func generateMockBars(symbol string, baseVolume float64, count int) []model.DailyBar {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	seed := h.Sum32()

	bars := make([]model.DailyBar, count)
	day := time.Now().UTC().Truncate(24 * time.Hour)
	for i := count - 1; i >= 0; i-- {
		day = day.AddDate(0, 0, -1)
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, -1)
		}
		wobble := float64((seed>>uint(i%16))%7) / 10
		p := 10 + float64(seed%90) + float64(i)*0.01
		bars[i] = model.DailyBar{
			Symbol: symbol,
			Time:   day,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: baseVolume * (0.7 + wobble),
		}
	}
	if count > 0 && seed%3 == 0 {
		bars[count-1].Volume = baseVolume * 2.5
	}
	return bars
}

// Collector wraps a Fetcher with batching and per-symbol failure isolation.
type Collector struct {
	Fetcher   Fetcher
	BatchSize int
	Log       *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, batchSize int, log *zap.Logger) *Collector {
	if batchSize <= 0 {
		batchSize = 200
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{Fetcher: fetcher, BatchSize: batchSize, Log: log}
}

// FetchLatest returns snapshots for every symbol the provider answered for.
// A failed batch or a symbol missing from the answer becomes an ErrorRecord;
// neither aborts the remaining batches.
func (c *Collector) FetchLatest(ctx context.Context, symbols []string) (map[string]model.Snapshot, []model.ErrorRecord) {
	out := make(map[string]model.Snapshot, len(symbols))
	var errs []model.ErrorRecord

	for start := 0; start < len(symbols); start += c.BatchSize {
		end := min(start+c.BatchSize, len(symbols))
		batch := symbols[start:end]

		quotes, err := c.Fetcher.FetchQuotes(ctx, batch)
		if err != nil {
			c.Log.Warn("quote batch failed",
				zap.String("fetcher", c.Fetcher.Name()),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			for _, sym := range batch {
				errs = append(errs, model.NewErrorRecord(sym, model.PhaseLive, fmt.Errorf("fetch quote: %w", err)))
			}
			continue
		}
		for _, sym := range batch {
			q, ok := quotes[sym]
			if !ok {
				errs = append(errs, model.NewErrorRecord(sym, model.PhaseLive, fmt.Errorf("fetch quote: %w", ErrNoData)))
				continue
			}
			out[sym] = q
		}
	}
	return out, errs
}

// FetchHistory returns up to bars daily candles for symbol, oldest first,
// deduplicated by bar time.
func (c *Collector) FetchHistory(ctx context.Context, symbol string, bars int) ([]model.DailyBar, error) {
	raw, err := c.Fetcher.FetchDailyBars(ctx, symbol, bars)
	if err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, ErrNoData)
	}
	return normalizeBars(symbol, raw), nil
}

func normalizeBars(symbol string, raw []model.DailyBar) []model.DailyBar {
	byTime := make(map[int64]model.DailyBar, len(raw))
	for _, b := range raw {
		b.Symbol = symbol
		byTime[b.Time.Unix()] = b
	}
	out := make([]model.DailyBar, 0, len(byTime))
	for _, b := range byTime {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
