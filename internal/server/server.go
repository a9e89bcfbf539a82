package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nao1215/riskscope/internal/dispatch"
	"github.com/nao1215/riskscope/internal/memory"
	"github.com/nao1215/riskscope/internal/model"
	"github.com/nao1215/riskscope/internal/pipeline"
)

const (
	// DefaultEventLimit is the page size of GET /events.
	DefaultEventLimit = 50

	// DefaultRecentLimit is the page size of GET /memory/recent.
	DefaultRecentLimit = 10

	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// Dispatcher routes inputs through analysis, decision and the
// post-decision pipeline.
type Dispatcher interface {
	Route(ctx context.Context, in model.Input) (*pipeline.Outcome, error)
	RouteTagged(ctx context.Context, data []byte) (*pipeline.Outcome, error)
}

// EventStore reads and deletes stored decisions.
type EventStore interface {
	Get(ctx context.Context, id int64) (*model.Event, error)
	Recent(ctx context.Context, limit int) ([]model.Event, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// MemoryView reads the memory store.
type MemoryView interface {
	Summary() memory.Summary
	Recent(limit int) []memory.Entry
}

// Server is the REST API.
type Server struct {
	dispatcher Dispatcher
	events     EventStore
	memory     MemoryView
	metrics    http.Handler
	logger     *slog.Logger
	version    string
}

// Option configures a Server.
type Option func(*Server)

// WithEventStore enables the /events routes.
func WithEventStore(s EventStore) Option {
	return func(srv *Server) {
		srv.events = s
	}
}

// WithMemory enables the /memory routes.
func WithMemory(m MemoryView) Option {
	return func(srv *Server) {
		srv.memory = m
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(srv *Server) {
		srv.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		srv.logger = logger
	}
}

// WithVersion sets the version reported by GET /.
func WithVersion(v string) Option {
	return func(srv *Server) {
		srv.version = v
	}
}

// New creates a Server.
func New(d Dispatcher, opts ...Option) *Server {
	s := &Server{dispatcher: d}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Routes returns the chi router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Route("/analyze", func(r chi.Router) {
		r.Post("/url", s.handleAnalyze(model.KindURL))
		r.Post("/password", s.handleAnalyze(model.KindPassword))
		r.Post("/text", s.handleAnalyze(model.KindText))
	})
	r.Post("/agent/route", s.handleRoute)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", s.handleListEvents)
		r.Get("/{id}", s.handleGetEvent)
		r.Delete("/{id}", s.handleDeleteEvent)
	})

	r.Get("/memory/summary", s.handleMemorySummary)
	r.Get("/memory/recent", s.handleMemoryRecent)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Serve listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

// requestLogger logs each request at debug level. Bodies are never logged.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"http_request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	body := map[string]string{"service": "riskscope", "status": "ok"}
	if s.version != "" {
		body["version"] = s.version
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.events != nil {
		if err := s.events.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "storage": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// analyzeRequest is the body of the /analyze routes. Only the field named
// after the route is read.
type analyzeRequest struct {
	URL      *string `json:"url"`
	Password *string `json:"password"`
	Text     *string `json:"text"`
}

func (a analyzeRequest) value(kind model.Kind) *string {
	switch kind {
	case model.KindURL:
		return a.URL
	case model.KindPassword:
		return a.Password
	case model.KindText:
		return a.Text
	default:
		return nil
	}
}

// analyzeResponse is returned by the analyze and route endpoints.
type analyzeResponse struct {
	Findings   model.Findings `json:"findings"`
	Decision   model.Decision `json:"decision"`
	EventID    int64          `json:"event_id,omitempty"`
	Notified   bool           `json:"notified,omitempty"`
	StepErrors []string       `json:"step_errors,omitempty"`
}

func newAnalyzeResponse(o *pipeline.Outcome) analyzeResponse {
	return analyzeResponse{
		Findings:   o.Decision.Findings,
		Decision:   o.Decision,
		EventID:    o.EventID,
		Notified:   o.Notified,
		StepErrors: o.StepErrors,
	}
}

func (s *Server) handleAnalyze(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: CodeInvalidInput, Detail: "invalid JSON body"})
			return
		}
		value := req.value(kind)
		if value == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: CodeInvalidInput, Detail: "missing field " + string(kind)})
			return
		}

		in, err := dispatch.NewInput(kind, *value)
		if err != nil {
			s.writeError(w, err)
			return
		}

		outcome, err := s.dispatcher.Route(r.Context(), in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAnalyzeResponse(outcome))
	}
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: CodeInvalidInput, Detail: "invalid JSON body"})
		return
	}

	outcome, err := s.dispatcher.RouteTagged(r.Context(), raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAnalyzeResponse(outcome))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		s.writeError(w, errStorageDisabled)
		return
	}
	limit, ok := parseLimit(w, r, DefaultEventLimit)
	if !ok {
		return
	}
	events, err := s.events.Recent(r.Context(), limit)
	if err != nil {
		s.writeInternal(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		s.writeError(w, errStorageDisabled)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	event, err := s.events.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		s.writeError(w, errStorageDisabled)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.events.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMemorySummary(w http.ResponseWriter, _ *http.Request) {
	if s.memory == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: CodeStorageDisabled, Detail: "memory is disabled"})
		return
	}
	writeJSON(w, http.StatusOK, s.memory.Summary())
}

func (s *Server) handleMemoryRecent(w http.ResponseWriter, r *http.Request) {
	if s.memory == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: CodeStorageDisabled, Detail: "memory is disabled"})
		return
	}
	limit, ok := parseLimit(w, r, DefaultRecentLimit)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.memory.Recent(limit))
}

// writeError maps err to a status code. Failures of the analyzers are
// logged at warn; input errors are the client's problem and logged at debug.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func (s *Server) writeInternal(w http.ResponseWriter, err error) {
	s.logger.Error("internal error", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: CodeInternal, Detail: err.Error()})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: CodeInvalidInput, Detail: "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: CodeInvalidInput, Detail: "limit must be a positive integer"})
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
