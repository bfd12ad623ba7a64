package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VolumeBreakout/internal/model"
	"VolumeBreakout/internal/runner"
)

func rec(i int) model.ErrorRecord {
	return model.ErrorRecord{Symbol: fmt.Sprintf("SET:S%d", i), Phase: model.PhaseLive, Message: "x"}
}

func TestErrorLog_CapsAndDropsOldest(t *testing.T) {
	s := New(3)
	for i := 0; i < 5; i++ {
		s.AppendErrors(rec(i))
	}

	errs, dropped := s.Errors()
	require.Len(t, errs, 3)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, "SET:S2", errs[0].Symbol)
	assert.Equal(t, "SET:S4", errs[2].Symbol)
}

func TestErrorLog_AccumulatesAcrossPhases(t *testing.T) {
	s := New(0)
	s.SetLive(&runner.LiveResult{Errors: []model.ErrorRecord{rec(1)}})
	s.SetBackfill(&runner.BackfillResult{Errors: []model.ErrorRecord{
		{Symbol: "SET:B", Phase: model.PhaseBackfill, Message: "timeout"},
	}})
	s.SetLive(&runner.LiveResult{Errors: []model.ErrorRecord{rec(2)}})

	errs, dropped := s.Errors()
	assert.Len(t, errs, 3)
	assert.Zero(t, dropped)
	assert.Equal(t, model.PhaseBackfill, errs[1].Phase)
}

func TestResults_ReplacedNotMerged(t *testing.T) {
	s := New(10)
	first := &runner.LiveResult{RunID: "a", Rows: []model.LiveRow{{Symbol: "SET:A"}}}
	second := &runner.LiveResult{RunID: "b"}

	s.SetLive(first)
	s.SetLive(second)

	assert.Equal(t, "b", s.Live().RunID)
	assert.Empty(t, s.Live().Rows)
}

func TestReset(t *testing.T) {
	s := New(10)
	s.SetSymbols([]string{"SET:A"})
	s.SetLive(&runner.LiveResult{Errors: []model.ErrorRecord{rec(1)}})
	s.SetBackfill(&runner.BackfillResult{})

	s.Reset()

	assert.Nil(t, s.Live())
	assert.Nil(t, s.Backfill())
	errs, _ := s.Errors()
	assert.Empty(t, errs)
	syms, _ := s.Symbols()
	assert.Equal(t, []string{"SET:A"}, syms)
}

func TestBegin_OneRunAtATime(t *testing.T) {
	s := New(10)

	release, err := s.Begin()
	require.NoError(t, err)

	_, err = s.Begin()
	assert.ErrorIs(t, err, ErrBusy)

	release()
	release()

	again, err := s.Begin()
	require.NoError(t, err)
	again()
}

func TestSymbols_ReturnsCopy(t *testing.T) {
	s := New(10)
	s.SetSymbols([]string{"SET:A", "SET:B"})
	syms, at := s.Symbols()
	syms[0] = "MUTATED"
	again, _ := s.Symbols()
	assert.Equal(t, "SET:A", again[0])
	assert.False(t, at.IsZero())
}
