package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"VolumeBreakout/internal/model"
	"VolumeBreakout/internal/runner"
	"VolumeBreakout/internal/symbols"
)

type symbolsRequest struct {
	Symbols []string `json:"symbols"`
	Raw     string   `json:"raw"`
}

type symbolsResponse struct {
	Symbols  []string  `json:"symbols"`
	Count    int       `json:"count"`
	LoadedAt time.Time `json:"loaded_at"`
}

type liveRequest struct {
	Workers int `validate:"min=1,max=8"`
}

type backfillRequest struct {
	Days    int `json:"days" validate:"min=7,max=120"`
	Workers int `json:"workers" validate:"min=1,max=8"`
}

type chartRequest struct {
	Bars int `validate:"min=60,max=260"`
}

type backfillResponse struct {
	Result  *runner.BackfillResult `json:"result"`
	Summary []model.DailySummary   `json:"summary"`
	Breaks  []model.BreakoutEvent  `json:"breaks"`
}

type errorsResponse struct {
	Errors  []model.ErrorRecord `json:"errors"`
	Dropped int                 `json:"dropped"`
}

func (s *Server) symbolsSnapshot() symbolsResponse {
	syms, at := s.state.Symbols()
	return symbolsResponse{Symbols: syms, Count: len(syms), LoadedAt: at}
}

func (s *Server) handleGetSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.symbolsSnapshot())
}

func (s *Server) handlePutSymbols(w http.ResponseWriter, r *http.Request) {
	var req symbolsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode body: %v", err))
		return
	}
	list := append(req.Symbols, symbols.Parse(req.Raw)...)
	if err := s.saveSymbols(list); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.symbolsSnapshot())
}

func (s *Server) saveSymbols(list []string) error {
	saved, err := s.store.Save(list)
	if err != nil {
		return err
	}
	s.state.SetSymbols(saved)
	s.log.Info("symbols saved", zap.Int("count", len(saved)), zap.String("path", s.store.Path))
	return nil
}

func (s *Server) handleReloadSymbols(w http.ResponseWriter, r *http.Request) {
	s.reloadSymbols()
	writeJSON(w, http.StatusOK, s.symbolsSnapshot())
}

func (s *Server) reloadSymbols() {
	syms, err := s.store.Load()
	if err != nil {
		s.log.Warn("symbols file unreadable, using defaults", zap.Error(err))
	}
	s.state.SetSymbols(syms)
}

func (s *Server) handleGetLive(w http.ResponseWriter, r *http.Request) {
	res := s.state.Live()
	if res == nil {
		writeError(w, http.StatusNotFound, "no live result yet")
		return
	}
	if r.URL.Query().Get("only_breaks") == "true" {
		filtered := *res
		filtered.Rows = res.Breaks()
		res = &filtered
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRefreshLive(w http.ResponseWriter, r *http.Request) {
	req := liveRequest{Workers: intParam(r, "workers", s.opts.LiveWorkers)}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := s.runContext(r)
	defer cancel()
	res, err := s.state.RunLive(ctx, s.runner, req.Workers)
	if err != nil {
		writeError(w, runStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	sym := symbols.NormalizeSymbol(mux.Vars(r)["symbol"], s.store.DefaultExchange)
	if sym == "" {
		writeError(w, http.StatusBadRequest, "invalid symbol")
		return
	}
	req := chartRequest{Bars: intParam(r, "bars", s.opts.ChartBars)}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := s.runner.Chart(r.Context(), sym, req.Bars)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleGetBackfill(w http.ResponseWriter, r *http.Request) {
	res := s.state.Backfill()
	if res == nil {
		writeError(w, http.StatusNotFound, "no backfill result yet")
		return
	}
	writeJSON(w, http.StatusOK, backfillResponse{
		Result:  res,
		Summary: runner.Summarize(res.Events),
		Breaks:  runner.BreakDetails(res.Events),
	})
}

func (s *Server) handleRunBackfill(w http.ResponseWriter, r *http.Request) {
	req := backfillRequest{Days: s.opts.BackfillDays, Workers: s.opts.BackfillWorkers}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("decode body: %v", err))
			return
		}
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := s.runContext(r)
	defer cancel()
	res, err := s.state.RunBackfill(ctx, s.runner, req.Days, req.Workers, nil)
	if err != nil {
		writeError(w, runStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, backfillResponse{
		Result:  res,
		Summary: runner.Summarize(res.Events),
		Breaks:  runner.BreakDetails(res.Events),
	})
}

func (s *Server) handleGetErrors(w http.ResponseWriter, r *http.Request) {
	errs, dropped := s.state.Errors()
	writeJSON(w, http.StatusOK, errorsResponse{Errors: errs, Dropped: dropped})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.state.Reset()
	s.log.Info("session reset")
	w.WriteHeader(http.StatusNoContent)
}

// intParam reads an integer from the query string or form, falling back to def.
func intParam(r *http.Request, name string, def int) int {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
