package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"VolumeBreakout/internal/model"
	"VolumeBreakout/internal/notifier"
	"VolumeBreakout/internal/runner"
	"VolumeBreakout/internal/strategy"
	"VolumeBreakout/internal/symbols"
)

var tabs = []string{"symbols", "live", "chart", "backfill", "errors"}

// parsePages pairs the shared layout with each tab's content template.
func parsePages(funcs template.FuncMap) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(tabs))
	for _, tab := range tabs {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+tab+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s page: %w", tab, err)
		}
		pages[tab] = t
	}
	return pages, nil
}

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"vol":    notifier.FormatVolume,
		"optvol": notifier.FormatOptVolume,
		"ratio":  notifier.FormatRatio,
		"price":  notifier.FormatPrice,
		"pct":    notifier.FormatPct,
		"ptrvol": func(p *float64) string {
			if p == nil {
				return "-"
			}
			return notifier.FormatVolume(*p)
		},
		"ptrprice": func(p *float64) string {
			if p == nil {
				return "-"
			}
			return notifier.FormatPrice(*p)
		},
		"label":   strategy.Label,
		"verdict": func(ev model.BreakoutEvent) string { return string(ev.Verdict()) },
		"date":    func(t time.Time) string { return t.In(s.opts.Location).Format(model.DateLayout) },
		"ts": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.In(s.opts.Location).Format("2006-01-02 15:04:05")
		},
	}
}

type page struct {
	Tab      string
	Title    string
	Universe int
	LoadedAt time.Time
	Flash    string
	Error    string
	Data     any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, tab string, data any) {
	syms, at := s.state.Symbols()
	p := page{
		Tab:      tab,
		Title:    strings.ToUpper(tab[:1]) + tab[1:],
		Universe: len(syms),
		LoadedAt: at,
		Flash:    r.URL.Query().Get("msg"),
		Data:     data,
	}
	if status >= http.StatusBadRequest {
		p.Error = p.Flash
		p.Flash = ""
	}

	var buf bytes.Buffer
	if err := s.pages[tab].ExecuteTemplate(&buf, "layout.html", p); err != nil {
		s.log.Error("render page", zap.String("tab", tab), zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail re-renders tab with a 4xx status and an error banner.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, tab, msg string, data any) {
	q := r.URL.Query()
	q.Set("msg", msg)
	r.URL.RawQuery = q.Encode()
	s.render(w, r, status, tab, data)
}

func redirect(w http.ResponseWriter, r *http.Request, path, msg string) {
	if msg != "" {
		path += "?msg=" + url.QueryEscape(msg)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

type symbolsPage struct {
	Symbols []string
	Raw     string
	Path    string
}

func (s *Server) symbolsPageData() symbolsPage {
	syms, _ := s.state.Symbols()
	return symbolsPage{Symbols: syms, Raw: strings.Join(syms, "\n"), Path: s.store.Path}
}

func (s *Server) handleSymbolsPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "symbols", s.symbolsPageData())
}

func (s *Server) handleSymbolsForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, http.StatusBadRequest, "symbols", err.Error(), s.symbolsPageData())
		return
	}
	switch r.PostForm.Get("action") {
	case "reload":
		s.reloadSymbols()
		redirect(w, r, "/symbols", "Symbols reloaded")
	case "defaults":
		if err := s.saveSymbols(s.store.DefaultSymbols()); err != nil {
			s.fail(w, r, http.StatusInternalServerError, "symbols", err.Error(), s.symbolsPageData())
			return
		}
		redirect(w, r, "/symbols", "Default symbols restored")
	default:
		list := symbols.Parse(r.PostForm.Get("symbols"))
		if len(list) == 0 {
			s.fail(w, r, http.StatusBadRequest, "symbols", "symbol list is empty", s.symbolsPageData())
			return
		}
		if err := s.saveSymbols(list); err != nil {
			s.fail(w, r, http.StatusInternalServerError, "symbols", err.Error(), s.symbolsPageData())
			return
		}
		syms, _ := s.state.Symbols()
		redirect(w, r, "/symbols", fmt.Sprintf("Saved %d symbols", len(syms)))
	}
}

type livePage struct {
	Result     *runner.LiveResult
	Rows       []model.LiveRow
	Breaks     int
	OnlyBreaks bool
	Workers    int
}

// handleLivePage shows breaks only unless the filter form was submitted
// with the box unchecked. Rows are ranked breaks first, then by ratio5.
func (s *Server) handleLivePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := livePage{
		Result:     s.state.Live(),
		OnlyBreaks: q.Get("only_breaks") == "on" || !q.Has("filtered"),
		Workers:    s.opts.LiveWorkers,
	}
	if data.Result != nil {
		breaks := data.Result.Breaks()
		data.Breaks = len(breaks)
		data.Rows = data.Result.Rows
		if data.OnlyBreaks {
			data.Rows = breaks
		}
		data.Rows = rankRows(data.Rows)
	}
	s.render(w, r, http.StatusOK, "live", data)
}

// rankRows returns a copy of rows with breaks first, each group by ratio5
// descending. Rows without a ratio sort last within their group.
func rankRows(rows []model.LiveRow) []model.LiveRow {
	out := append([]model.LiveRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Event, out[j].Event
		if a.IsBreak != b.IsBreak {
			return a.IsBreak
		}
		return a.RatioOr(math.Inf(-1)) > b.RatioOr(math.Inf(-1))
	})
	return out
}

func (s *Server) handleLiveForm(w http.ResponseWriter, r *http.Request) {
	req := liveRequest{Workers: intParam(r, "workers", s.opts.LiveWorkers)}
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, r, http.StatusBadRequest, "live", "workers must be between 1 and 8",
			livePage{Result: s.state.Live(), Workers: s.opts.LiveWorkers})
		return
	}
	ctx, cancel := s.runContext(r)
	defer cancel()
	res, err := s.state.RunLive(ctx, s.runner, req.Workers)
	if err != nil {
		s.fail(w, r, runStatus(err), "live", err.Error(),
			livePage{Result: s.state.Live(), Workers: req.Workers})
		return
	}
	redirect(w, r, "/live", fmt.Sprintf("Refreshed %d symbols, %d errors", len(res.Rows), len(res.Errors)))
}

type chartPage struct {
	Symbols []string
	Symbol  string
	Bars    int
	Chart   *runner.ChartData
	Plot    *plot
}

func (s *Server) handleChartPage(w http.ResponseWriter, r *http.Request) {
	syms, _ := s.state.Symbols()
	data := chartPage{Symbols: syms, Bars: intParam(r, "bars", s.opts.ChartBars)}
	data.Symbol = symbols.NormalizeSymbol(r.URL.Query().Get("symbol"), s.store.DefaultExchange)
	if data.Symbol == "" && len(syms) > 0 {
		data.Symbol = syms[0]
	}
	if err := s.validate.Struct(chartRequest{Bars: data.Bars}); err != nil {
		data.Bars = s.opts.ChartBars
		s.fail(w, r, http.StatusBadRequest, "chart", "bars must be between 60 and 260", data)
		return
	}
	if data.Symbol == "" {
		s.render(w, r, http.StatusOK, "chart", data)
		return
	}

	chart, err := s.runner.Chart(r.Context(), data.Symbol, data.Bars)
	if err != nil {
		s.log.Warn("chart fetch failed", zap.String("symbol", data.Symbol), zap.Error(err))
		s.fail(w, r, http.StatusBadGateway, "chart", err.Error(), data)
		return
	}
	data.Chart = chart
	data.Plot = buildPlot(chart.Points)
	s.render(w, r, http.StatusOK, "chart", data)
}

type backfillPage struct {
	Result  *runner.BackfillResult
	Summary []model.DailySummary
	Breaks  []model.BreakoutEvent
	Days    int
	Workers int
}

func (s *Server) backfillPageData(days, workers int) backfillPage {
	data := backfillPage{Result: s.state.Backfill(), Days: days, Workers: workers}
	if data.Result != nil {
		data.Summary = runner.Summarize(data.Result.Events)
		data.Breaks = runner.BreakDetails(data.Result.Events)
	}
	return data
}

func (s *Server) handleBackfillPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "backfill", s.backfillPageData(s.opts.BackfillDays, s.opts.BackfillWorkers))
}

func (s *Server) handleBackfillForm(w http.ResponseWriter, r *http.Request) {
	req := backfillRequest{
		Days:    intParam(r, "days", s.opts.BackfillDays),
		Workers: intParam(r, "workers", s.opts.BackfillWorkers),
	}
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, r, http.StatusBadRequest, "backfill", "days must be 7-120 and workers 1-8",
			s.backfillPageData(s.opts.BackfillDays, s.opts.BackfillWorkers))
		return
	}
	ctx, cancel := s.runContext(r)
	defer cancel()
	res, err := s.state.RunBackfill(ctx, s.runner, req.Days, req.Workers, nil)
	if err != nil {
		s.fail(w, r, runStatus(err), "backfill", err.Error(), s.backfillPageData(req.Days, req.Workers))
		return
	}
	redirect(w, r, "/backfill", fmt.Sprintf("Backfill %s: %d events, %d errors",
		res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond), len(res.Events), len(res.Errors)))
}

type errorsPage struct {
	Errors  []model.ErrorRecord
	Dropped int
	Max     int
}

func (s *Server) handleErrorsPage(w http.ResponseWriter, r *http.Request) {
	errs, dropped := s.state.Errors()
	// newest first
	rev := make([]model.ErrorRecord, len(errs))
	for i, e := range errs {
		rev[len(errs)-1-i] = e
	}
	s.render(w, r, http.StatusOK, "errors", errorsPage{Errors: rev, Dropped: dropped, Max: s.state.MaxErrors()})
}

func (s *Server) handleResetForm(w http.ResponseWriter, r *http.Request) {
	s.state.Reset()
	s.log.Info("session reset")
	redirect(w, r, "/live", "Session reset")
}
