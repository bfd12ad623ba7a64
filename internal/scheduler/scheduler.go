package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"VolumeBreakout/internal/notifier"
	"VolumeBreakout/internal/runner"
	"VolumeBreakout/internal/session"
)

// Scheduler manages all cron tasks: live auto-refresh during market
// sessions, the hourly report and the daily close report.
type Scheduler struct {
	Cron    *cron.Cron
	Clock   *MarketClock
	Runner  *runner.Runner
	State   *session.State
	Sender  notifier.Sender
	Workers int
	Log     *zap.Logger
	Ctx     context.Context

	now func() time.Time

	mu            sync.Mutex
	lastHourKey   string
	lastDailyDay  string
	reportedBreak map[string]bool
}

// NewScheduler creates a new Scheduler. sender may be nil to disable reports.
func NewScheduler(ctx context.Context, clock *MarketClock, rn *runner.Runner, st *session.State, sender notifier.Sender, workers int, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		Cron:          cron.New(cron.WithSeconds(), cron.WithLocation(clock.Location)),
		Clock:         clock,
		Runner:        rn,
		State:         st,
		Sender:        sender,
		Workers:       workers,
		Log:           log,
		Ctx:           ctx,
		now:           clock.Now,
		reportedBreak: map[string]bool{},
	}
}

// RegisterAll registers the live refresh (when autoRefresh is set) and the report tasks.
func (s *Scheduler) RegisterAll(autoRefresh bool, scanInterval time.Duration) error {
	if autoRefresh {
		if _, err := s.Cron.AddFunc(fmt.Sprintf("@every %s", scanInterval), s.liveTick); err != nil {
			return fmt.Errorf("register live refresh: %w", err)
		}
	}
	if s.Sender == nil {
		return nil
	}
	if _, err := s.Cron.AddFunc("0 0 * * * 1-5", s.hourlyTask); err != nil {
		return fmt.Errorf("register hourly report: %w", err)
	}
	if _, err := s.Cron.AddFunc(s.Clock.DailyCloseSpec(), s.dailyTask); err != nil {
		return fmt.Errorf("register daily close report: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started", zap.Int("tasks", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RefreshLive runs one live refresh over the session's symbols and stores the
// result. It returns session.ErrBusy if another run is in flight.
func (s *Scheduler) RefreshLive() (*runner.LiveResult, error) {
	return s.State.RunLive(s.Ctx, s.Runner, s.Workers)
}

func (s *Scheduler) liveTick() {
	if !s.Clock.IsOpen(s.now()) {
		return
	}
	if _, err := s.RefreshLive(); err != nil {
		s.Log.Info("live refresh skipped", zap.Error(err))
	}
}

// freshLive returns a live result no older than maxAge, refreshing if needed.
func (s *Scheduler) freshLive(maxAge time.Duration) *runner.LiveResult {
	res := s.State.Live()
	if res != nil && s.now().Sub(res.FinishedAt) <= maxAge {
		return res
	}
	fresh, err := s.RefreshLive()
	if err != nil {
		s.Log.Warn("live refresh for report failed", zap.Error(err))
		return res
	}
	return fresh
}

func (s *Scheduler) hourlyTask() {
	now := s.now()
	if !s.Clock.IsOpen(now) {
		return
	}
	s.mu.Lock()
	key := HourKey(now)
	if key == s.lastHourKey {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	res := s.freshLive(5 * time.Minute)
	if res == nil {
		return
	}

	s.mu.Lock()
	newBreaks := 0
	current := map[string]bool{}
	for _, row := range res.Breaks() {
		current[row.Symbol] = true
		if !s.reportedBreak[row.Symbol] {
			newBreaks++
		}
	}
	s.reportedBreak = current
	s.lastHourKey = key
	s.mu.Unlock()

	s.trySend(notifier.FormatHourlyReport(now, res.Universe, newBreaks, res.Rows))
}

func (s *Scheduler) dailyTask() {
	now := s.now()
	s.mu.Lock()
	due := s.Clock.ShouldSendDaily(now, s.lastDailyDay)
	s.mu.Unlock()
	if !due {
		return
	}

	res := s.freshLive(30 * time.Minute)
	if res == nil {
		return
	}
	s.trySend(notifier.FormatDailyCloseReport(now, res.Universe, res.Rows))

	s.mu.Lock()
	s.lastDailyDay = DayKey(now.In(s.Clock.Location))
	s.reportedBreak = map[string]bool{}
	s.mu.Unlock()
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/live":
		res := s.State.Live()
		if res == nil {
			return "No live data yet. Send /refresh to scan now."
		}
		return s.liveSummary(res)
	case "/refresh":
		res, err := s.RefreshLive()
		if err != nil {
			return fmt.Sprintf("Refresh not started: %v", err)
		}
		return s.liveSummary(res)
	case "/errors":
		errs, dropped := s.State.Errors()
		return notifier.FormatErrorSummary(errs, dropped, 10)
	default:
		return "Commands:\n/live - latest breakouts\n/refresh - scan now\n/errors - recent errors"
	}
}

func (s *Scheduler) liveSummary(res *runner.LiveResult) string {
	top := notifier.TopBreaks(res.Rows, notifier.HourlyTopN)
	header := fmt.Sprintf("Live @ %s | Universe: %d | Break AVG5: %d | Errors: %d\n",
		res.FinishedAt.In(s.Clock.Location).Format("2006-01-02 15:04"),
		res.Universe, len(res.Breaks()), len(res.Errors))
	if len(top) == 0 {
		return header
	}
	return header + notifier.FormatBreakTable(top)
}

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		return
	}
	if err := s.Sender.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Log.Error("send report failed", zap.Error(err))
	}
}
