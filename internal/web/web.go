// Package web serves the daemon's local status endpoints.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"datestack/internal/ics"
	appLog "datestack/internal/log"
	"datestack/internal/model"
	"datestack/internal/syncer"
)

// SnapshotSource exposes the most recent sync.
type SnapshotSource interface {
	Last() (syncer.Snapshot, bool)
}

type Server struct {
	snapshots SnapshotSource
	runner    syncer.Runner
	metrics   http.Handler
	name      string
	router    *mux.Router
}

type Option func(*Server)

// WithRunner enables POST /api/sync.
func WithRunner(r syncer.Runner) Option {
	return func(s *Server) { s.runner = r }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithCalendarName sets X-WR-CALNAME on the ICS rendition.
func WithCalendarName(name string) Option {
	return func(s *Server) { s.name = name }
}

func NewServer(snapshots SnapshotSource, opts ...Option) *Server {
	s := &Server{
		snapshots: snapshots,
		router:    mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/events", s.handleEvents).Methods(http.MethodGet)
	if s.runner != nil {
		s.router.HandleFunc("/api/sync", s.handleSync).Methods(http.MethodPost)
	}
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
}

// Start serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting status server", "listen", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type statusResponse struct {
	LastSync   *time.Time     `json:"last_sync"`
	EventCount int            `json:"event_count"`
	Result     *syncer.Result `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.snapshots.Last()
	if !ok {
		writeJSON(w, http.StatusOK, statusResponse{})
		return
	}
	at := snap.At
	writeJSON(w, http.StatusOK, statusResponse{
		LastSync:   &at,
		EventCount: len(snap.Events),
		Result:     snap.Result,
		Error:      snap.Error,
	})
}

// handleEvents returns the events of the last sync as JSON, or as an
// iCalendar document with ?format=ics.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := []model.Event{}
	if snap, ok := s.snapshots.Last(); ok && snap.Events != nil {
		events = snap.Events
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, events)
	case "ics":
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		if err := ics.Write(w, events, ics.Options{Name: s.name}); err != nil {
			appLog.Error("ics write failed", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "unsupported format")
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	res, err := s.runner.Run(r.Context(), force)
	if err != nil {
		appLog.Error("manual sync failed", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		appLog.Error("failed to encode JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
