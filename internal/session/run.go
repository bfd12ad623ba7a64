package session

import (
	"context"

	"VolumeBreakout/internal/runner"
)

// RunLive performs one live refresh over the session's symbols and replaces
// the live result. It returns ErrBusy if another run is in flight.
func (s *State) RunLive(ctx context.Context, rn *runner.Runner, workers int) (*runner.LiveResult, error) {
	release, err := s.Begin()
	if err != nil {
		return nil, err
	}
	defer release()

	syms, _ := s.Symbols()
	res := rn.RefreshLive(ctx, syms, workers)
	s.SetLive(res)
	return res, nil
}

// RunBackfill performs one backfill over the session's symbols and replaces
// the backfill result. It returns ErrBusy if another run is in flight.
func (s *State) RunBackfill(ctx context.Context, rn *runner.Runner, days, workers int, progress runner.ProgressFunc) (*runner.BackfillResult, error) {
	release, err := s.Begin()
	if err != nil {
		return nil, err
	}
	defer release()

	syms, _ := s.Symbols()
	res := rn.Backfill(ctx, syms, days, workers, progress)
	s.SetBackfill(res)
	return res, nil
}
