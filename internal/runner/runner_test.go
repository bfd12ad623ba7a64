package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"VolumeBreakout/internal/model"
	"VolumeBreakout/mocks"
)

type RunnerTestSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	data   *mocks.MockMarketData
	runner *Runner
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (s *RunnerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.data = mocks.NewMockMarketData(s.ctrl)
	s.runner = New(s.data, 120, 49, time.UTC, nil)
}

func (s *RunnerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

var day0 = time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)

// series builds n consecutive daily bars with constant volume and a final volume.
func series(symbol string, n int, vol, last float64) []model.DailyBar {
	bars := make([]model.DailyBar, n)
	for i := range bars {
		bars[i] = model.DailyBar{
			Symbol: symbol,
			Time:   day0.AddDate(0, 0, i),
			Close:  100 + float64(i),
			Volume: vol,
		}
	}
	if n > 0 {
		bars[n-1].Volume = last
	}
	return bars
}

func symbolsN(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("SET:S%02d", i)
	}
	return out
}

func (s *RunnerTestSuite) TestBackfill_SingleSymbolSixtyDays() {
	s.data.EXPECT().FetchHistory(gomock.Any(), "SET:PTT", 60+49).
		Return(series("SET:PTT", 109, 100, 500), nil)

	res := s.runner.Backfill(context.Background(), []string{"SET:PTT"}, 60, 1, nil)

	s.Require().Len(res.Events, 60)
	s.Empty(res.Errors)
	for i := 1; i < len(res.Events); i++ {
		s.True(res.Events[i-1].Date.Before(res.Events[i].Date))
	}
	last := res.Events[59]
	s.Equal(model.VerdictBreak, last.Verdict())
	s.Equal(model.VerdictNoBreak, res.Events[0].Verdict())
	s.NotEmpty(res.RunID)
}

func (s *RunnerTestSuite) TestBackfill_DatesFollowMarketLocation() {
	ict := time.FixedZone("ICT", 7*3600)
	rn := New(s.data, 120, 49, ict, nil)

	bars := series("SET:PTT", 10, 100, 100)
	for i := range bars {
		bars[i].Time = time.Date(2024, 1, 1+i, 20, 0, 0, 0, time.UTC)
	}
	s.data.EXPECT().FetchHistory(gomock.Any(), "SET:PTT", 5+49).Return(bars, nil)
	s.data.EXPECT().FetchHistory(gomock.Any(), "SET:PTT", 60+49).Return(bars, nil)

	res := rn.Backfill(context.Background(), []string{"SET:PTT"}, 5, 1, nil)
	sum := Summarize(res.Events)
	s.Require().NotEmpty(sum)
	s.Equal("2024-01-11", sum[0].Date)
	s.Equal(time.UTC, bars[0].Time.Location(), "fetched bars are not mutated")

	chart, err := rn.Chart(context.Background(), "SET:PTT", 60)
	s.Require().NoError(err)
	s.Equal("2024-01-02", chart.Points[0].Date)
}

func (s *RunnerTestSuite) TestBackfill_ShortHistoryKeepsEveryDayWithInsufficientFlag() {
	s.data.EXPECT().FetchHistory(gomock.Any(), "SET:NEW", gomock.Any()).
		Return(series("SET:NEW", 7, 100, 100), nil)

	res := s.runner.Backfill(context.Background(), []string{"SET:NEW"}, 60, 2, nil)

	s.Require().Len(res.Events, 7)
	for i := 0; i < 4; i++ {
		s.True(res.Events[i].InsufficientHistory, "index %d", i)
		s.False(res.Events[i].IsBreak)
	}
	s.Equal(model.VerdictNoBreak, res.Events[4].Verdict())
}

func (s *RunnerTestSuite) TestBackfill_OneFailureInTen() {
	syms := symbolsN(10)
	for i, sym := range syms {
		if i == 6 {
			s.data.EXPECT().FetchHistory(gomock.Any(), sym, gomock.Any()).
				Return(nil, errors.New("provider timeout"))
			continue
		}
		s.data.EXPECT().FetchHistory(gomock.Any(), sym, gomock.Any()).
			Return(series(sym, 30, 100, 100), nil)
	}

	var calls int32
	res := s.runner.Backfill(context.Background(), syms, 20, 4, func(done, total int) {
		atomic.AddInt32(&calls, 1)
		s.Equal(10, total)
	})

	s.Require().Len(res.Errors, 1)
	s.Equal(syms[6], res.Errors[0].Symbol)
	s.Equal(model.PhaseBackfill, res.Errors[0].Phase)
	s.Contains(res.Errors[0].Message, "provider timeout")
	s.Len(res.Events, 9*20)
	s.EqualValues(10, atomic.LoadInt32(&calls))

	seen := map[string]bool{}
	for _, ev := range res.Events {
		seen[ev.Symbol] = true
	}
	s.Len(seen, 9)
	s.False(seen[syms[6]])
}

func (s *RunnerTestSuite) TestBackfill_PerSymbolOrderIsChronological() {
	syms := symbolsN(5)
	for _, sym := range syms {
		s.data.EXPECT().FetchHistory(gomock.Any(), sym, gomock.Any()).
			Return(series(sym, 15, 100, 100), nil)
	}

	res := s.runner.Backfill(context.Background(), syms, 10, 5, nil)

	s.Require().Len(res.Events, 50)
	for _, sym := range syms {
		evs := EventsFor(res.Events, sym)
		s.Require().Len(evs, 10)
		for i := 1; i < len(evs); i++ {
			s.True(evs[i-1].Date.Before(evs[i].Date))
		}
	}
}

func (s *RunnerTestSuite) TestBackfill_RespectsWorkerLimit() {
	syms := symbolsN(12)
	var inFlight, peak int32
	s.data.EXPECT().FetchHistory(gomock.Any(), gomock.Any(), gomock.Any()).
		Times(12).
		DoAndReturn(func(_ context.Context, sym string, _ int) ([]model.DailyBar, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return series(sym, 10, 1, 1), nil
		})

	s.runner.Backfill(context.Background(), syms, 5, 3, nil)

	s.LessOrEqual(atomic.LoadInt32(&peak), int32(3))
}

func (s *RunnerTestSuite) TestBackfill_CancelledContextRecordsErrors() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.runner.Backfill(ctx, symbolsN(3), 10, 2, nil)

	s.Empty(res.Events)
	s.Len(res.Errors, 3)
}

func (s *RunnerTestSuite) TestRefreshLive_ReplacesTodayVolume() {
	now := day0.AddDate(0, 0, 9).Add(2 * time.Hour)
	s.data.EXPECT().FetchLatest(gomock.Any(), []string{"SET:A", "SET:B", "SET:C"}).
		Return(map[string]model.Snapshot{
			"SET:A": {Symbol: "SET:A", Name: "A", Time: now, Price: 12, ChangePct: 1.5, Volume: 900},
			"SET:B": {Symbol: "SET:B", Name: "B", Time: now, Price: 5, Volume: 10},
		}, []model.ErrorRecord{{Symbol: "SET:C", Phase: model.PhaseLive, Message: "no data returned"}})
	// Last bar of A is today's partial bar; its volume is replaced by the quote.
	s.data.EXPECT().FetchHistory(gomock.Any(), "SET:A", 120).
		Return(series("SET:A", 10, 100, 1), nil)
	s.data.EXPECT().FetchHistory(gomock.Any(), "SET:B", 120).
		Return(nil, errors.New("ws closed"))

	res := s.runner.RefreshLive(context.Background(), []string{"SET:A", "SET:B", "SET:C"}, 2)

	s.Equal(3, res.Universe)
	s.Require().Len(res.Rows, 1)
	row := res.Rows[0]
	s.Equal("SET:A", row.Symbol)
	s.Equal(900.0, row.Event.VolToday)
	s.Require().True(row.Averages.Avg5.IsSome())
	s.InDelta((100*4+900)/5.0, row.Averages.Avg5.Unwrap(), 1e-9)
	s.True(row.Averages.Avg10.IsSome())
	s.True(row.Averages.Avg20.IsNone())
	s.True(row.Event.IsBreak)
	s.Equal(12.0, row.Close)
	s.Len(res.Breaks(), 1)

	s.Require().Len(res.Errors, 2)
	bySymbol := map[string]model.ErrorRecord{}
	for _, e := range res.Errors {
		bySymbol[e.Symbol] = e
	}
	s.Contains(bySymbol, "SET:B")
	s.Contains(bySymbol, "SET:C")
}

func (s *RunnerTestSuite) TestRefreshLive_AppendsBarForNewDay() {
	now := day0.AddDate(0, 0, 20)
	s.data.EXPECT().FetchLatest(gomock.Any(), gomock.Any()).
		Return(map[string]model.Snapshot{"SET:A": {Symbol: "SET:A", Time: now, Volume: 50}}, nil)
	s.data.EXPECT().FetchHistory(gomock.Any(), "SET:A", gomock.Any()).
		Return(series("SET:A", 5, 100, 100), nil)

	res := s.runner.RefreshLive(context.Background(), []string{"SET:A"}, 1)

	s.Require().Len(res.Rows, 1)
	row := res.Rows[0]
	s.InDelta((100*4+50)/5.0, row.Averages.Avg5.Unwrap(), 1e-9)
	s.Equal(model.VerdictNoBreak, row.Event.Verdict())
}

func (s *RunnerTestSuite) TestChart() {
	s.data.EXPECT().FetchHistory(gomock.Any(), "SET:PTT", 60+49).
		Return(series("SET:PTT", 109, 100, 100), nil)

	data, err := s.runner.Chart(context.Background(), "SET:PTT", 60)
	s.Require().NoError(err)

	s.Len(data.Points, 60)
	s.NotNil(data.Points[0].SMA50)
	s.Require().Len(data.Status, 4)
	for _, st := range data.Status {
		// Closes rise every day, so the last close is above every trailing mean.
		s.Equal("Above", st.Status, "window %d", st.Window)
	}
}

func (s *RunnerTestSuite) TestChart_ShortHistory() {
	s.data.EXPECT().FetchHistory(gomock.Any(), "SET:NEW", gomock.Any()).
		Return(series("SET:NEW", 8, 100, 100), nil)

	data, err := s.runner.Chart(context.Background(), "SET:NEW", 60)
	s.Require().NoError(err)
	s.Len(data.Points, 8)
	s.Equal("Above", data.Status[0].Status)
	s.Equal("n/a", data.Status[1].Status)
	s.Nil(data.Points[0].VAvg5)
}

func event(sym string, d int, vol float64, avg5 optional.Option[float64]) model.BreakoutEvent {
	ev := model.BreakoutEvent{Symbol: sym, Date: day0.AddDate(0, 0, d), VolToday: vol, Avg5: avg5, Ratio: optional.None[float64]()}
	if avg5.IsNone() {
		ev.InsufficientHistory = true
		return ev
	}
	ev.IsBreak = vol > avg5.Unwrap()
	ev.Ratio = optional.Some(vol / avg5.Unwrap())
	return ev
}

func (s *RunnerTestSuite) TestSummarizeAndBreakDetails() {
	events := []model.BreakoutEvent{
		event("SET:A", 0, 200, optional.Some(100.0)),
		event("SET:B", 0, 50, optional.Some(100.0)),
		event("SET:C", 0, 50, optional.None[float64]()),
		event("SET:A", 1, 300, optional.Some(100.0)),
		event("SET:B", 1, 150, optional.Some(100.0)),
	}

	sum := Summarize(events)
	s.Require().Len(sum, 2)
	s.Equal(day0.AddDate(0, 0, 1).Format(model.DateLayout), sum[0].Date)
	s.Equal(2, sum[0].Total)
	s.Equal(2, sum[0].Breaks)
	s.InDelta(100.0, sum[0].BreakRatioPct, 1e-9)
	s.Equal(2, sum[1].Total)
	s.Equal(1, sum[1].Breaks)
	s.Equal(1, sum[1].Insufficient)
	s.InDelta(50.0, sum[1].BreakRatioPct, 1e-9)

	details := BreakDetails(events)
	s.Require().Len(details, 3)
	s.Equal("SET:A", details[0].Symbol)
	s.Equal(1, details[0].Date.Day()-day0.Day())
	s.Equal("SET:B", details[1].Symbol)
	s.Equal("SET:A", details[2].Symbol)
	s.Equal(day0, details[2].Date)
}
