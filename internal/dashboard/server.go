package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"VolumeBreakout/internal/runner"
	"VolumeBreakout/internal/session"
	"VolumeBreakout/internal/symbols"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options holds the dashboard control defaults.
type Options struct {
	LiveWorkers     int
	BackfillDays    int
	BackfillWorkers int
	ChartBars       int
	Location        *time.Location
}

// Server serves the dashboard tabs and the JSON API over one session.
type Server struct {
	store    *symbols.Store
	state    *session.State
	runner   *runner.Runner
	opts     Options
	log      *zap.Logger
	validate *validator.Validate
	pages    map[string]*template.Template
	server   *http.Server
	base     context.Context
	stop     context.CancelFunc
}

// New creates a dashboard server listening on addr.
func New(addr string, store *symbols.Store, st *session.State, rn *runner.Runner, opts Options, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ChartBars == 0 {
		opts.ChartBars = 120
	}
	s := &Server{
		store:    store,
		state:    st,
		runner:   rn,
		opts:     opts,
		log:      log,
		validate: validator.New(),
	}
	s.base, s.stop = context.WithCancel(context.Background())
	pages, err := parsePages(s.funcs())
	if err != nil {
		return nil, err
	}
	s.pages = pages
	// Backfills run inside the request, so writes may take minutes.
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      10 * time.Minute,
	}
	return s, nil
}

// Handler returns the router with all page and API routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/live", http.StatusFound)
	}).Methods(http.MethodGet)
	r.HandleFunc("/symbols", s.handleSymbolsPage).Methods(http.MethodGet)
	r.HandleFunc("/symbols", s.handleSymbolsForm).Methods(http.MethodPost)
	r.HandleFunc("/live", s.handleLivePage).Methods(http.MethodGet)
	r.HandleFunc("/live", s.handleLiveForm).Methods(http.MethodPost)
	r.HandleFunc("/chart", s.handleChartPage).Methods(http.MethodGet)
	r.HandleFunc("/backfill", s.handleBackfillPage).Methods(http.MethodGet)
	r.HandleFunc("/backfill", s.handleBackfillForm).Methods(http.MethodPost)
	r.HandleFunc("/errors", s.handleErrorsPage).Methods(http.MethodGet)
	r.HandleFunc("/reset", s.handleResetForm).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/symbols", s.handleGetSymbols).Methods(http.MethodGet)
	api.HandleFunc("/symbols", s.handlePutSymbols).Methods(http.MethodPut)
	api.HandleFunc("/symbols/reload", s.handleReloadSymbols).Methods(http.MethodPost)
	api.HandleFunc("/live", s.handleGetLive).Methods(http.MethodGet)
	api.HandleFunc("/live/refresh", s.handleRefreshLive).Methods(http.MethodPost)
	api.HandleFunc("/chart/{symbol}", s.handleGetChart).Methods(http.MethodGet)
	api.HandleFunc("/backfill", s.handleGetBackfill).Methods(http.MethodGet)
	api.HandleFunc("/backfill", s.handleRunBackfill).Methods(http.MethodPost)
	api.HandleFunc("/errors", s.handleGetErrors).Methods(http.MethodGet)
	api.HandleFunc("/session/reset", s.handleReset).Methods(http.MethodPost)

	return r
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.log.Info("dashboard listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("dashboard server failed", zap.Error(err))
		}
	}()
}

// Shutdown cancels running refreshes and backfills, stops accepting
// requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	return s.server.Shutdown(ctx)
}

// runContext detaches a run from its request so a client disconnect does
// not cancel it. Only Shutdown cancels the returned context.
func (s *Server) runContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	if s.base.Err() != nil {
		cancel()
	}
	stop := context.AfterFunc(s.base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// runStatus maps a run error to an HTTP status.
func runStatus(err error) int {
	if errors.Is(err, session.ErrBusy) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
