package session

import (
	"errors"
	"sync"
	"time"

	"VolumeBreakout/internal/model"
	"VolumeBreakout/internal/runner"
)

// ErrBusy is returned when a live refresh or backfill is already running.
var ErrBusy = errors.New("a refresh or backfill is already running")

// DefaultMaxErrors bounds the error log when no limit is configured.
const DefaultMaxErrors = 500

// State holds one dashboard session: the symbol universe, the latest live and
// backfill results, and the error log. Results are replaced on every run,
// never merged. The error log keeps the newest MaxErrors records.
type State struct {
	mu        sync.RWMutex
	run       sync.Mutex
	symbols   []string
	loadedAt  time.Time
	live      *runner.LiveResult
	backfill  *runner.BackfillResult
	errors    []model.ErrorRecord
	dropped   int
	maxErrors int
}

// New creates an empty session state.
func New(maxErrors int) *State {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &State{maxErrors: maxErrors}
}

// Begin reserves the session for one run. The returned release func must be
// called when the run ends. ErrBusy is returned if another run holds it.
func (s *State) Begin() (release func(), err error) {
	if !s.run.TryLock() {
		return nil, ErrBusy
	}
	var once sync.Once
	return func() { once.Do(s.run.Unlock) }, nil
}

// SetSymbols replaces the symbol universe.
func (s *State) SetSymbols(symbols []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols = append([]string(nil), symbols...)
	s.loadedAt = time.Now()
}

// Symbols returns a copy of the symbol universe and when it was loaded.
func (s *State) Symbols() ([]string, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.symbols...), s.loadedAt
}

// SetLive replaces the live result and logs its errors.
func (s *State) SetLive(res *runner.LiveResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = res
	s.appendErrors(res.Errors)
}

// Live returns the latest live result, or nil.
func (s *State) Live() *runner.LiveResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// SetBackfill replaces the backfill result and logs its errors.
func (s *State) SetBackfill(res *runner.BackfillResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backfill = res
	s.appendErrors(res.Errors)
}

// Backfill returns the latest backfill result, or nil.
func (s *State) Backfill() *runner.BackfillResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backfill
}

// AppendErrors adds records to the error log.
func (s *State) AppendErrors(records ...model.ErrorRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErrors(records)
}

func (s *State) appendErrors(records []model.ErrorRecord) {
	s.errors = append(s.errors, records...)
	if over := len(s.errors) - s.maxErrors; over > 0 {
		s.dropped += over
		s.errors = append([]model.ErrorRecord(nil), s.errors[over:]...)
	}
}

// Errors returns the error log oldest first and how many older records were evicted.
func (s *State) Errors() ([]model.ErrorRecord, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ErrorRecord(nil), s.errors...), s.dropped
}

// Reset clears results and the error log. The symbol universe is kept.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = nil
	s.backfill = nil
	s.errors = nil
	s.dropped = 0
}

// MaxErrors is the error log capacity.
func (s *State) MaxErrors() int { return s.maxErrors }
