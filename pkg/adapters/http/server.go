// Package http exposes sessions over HTTP: start a component, invoke its actions, dispatch
// patches, evaluate expressions and stream store diffs as Server-Sent Events.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/few"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/ports"
	"github.com/aretw0/few/pkg/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server holds the handlers. Build it with NewHandler.
type Server struct {
	Engine   *few.Engine
	Sessions *session.Manager

	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h under /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates a new HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Engine:   sessions.Engine(),
		Sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/components", s.ListComponents)
	r.Get("/events", s.SubscribeReload)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Put("/", s.PutSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/actions/{action}", s.InvokeAction)
			r.Post("/dispatch", s.Dispatch)
			r.Post("/eval", s.Eval)
			r.Get("/events", s.SubscribeSession)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartRequest is the body of POST /sessions and PUT /sessions/{id}.
type StartRequest struct {
	Component string         `json:"component"`
	Props     map[string]any `json:"props,omitempty"`
}

// EvalRequest is the body of POST /sessions/{id}/eval.
type EvalRequest struct {
	Expression string `json:"expression"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "few-http",
		"version": few.Version,
	})
}

// ListComponents handles GET /components.
func (s *Server) ListComponents(w http.ResponseWriter, r *http.Request) {
	names, err := s.Engine.Components(r.Context())
	if err != nil {
		s.fail(w, "ListComponents", err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// StartSession handles POST /sessions. It always creates a new session.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Component == "" {
		http.Error(w, "component is required", http.StatusBadRequest)
		return
	}
	snap, err := s.Sessions.Start(r.Context(), body.Component, body.Props)
	if err != nil {
		s.fail(w, "StartSession", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, snap)
}

// PutSession handles PUT /sessions/{id}: it returns the session, creating it first if needed.
func (s *Server) PutSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if !s.decode(w, r, &body) {
		return
	}
	snap, err := s.Sessions.LoadOrStart(r.Context(), chi.URLParam(r, "id"), body.Component, body.Props)
	if err != nil {
		s.fail(w, "PutSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InvokeAction handles POST /sessions/{id}/actions/{action}.
func (s *Server) InvokeAction(w http.ResponseWriter, r *http.Request) {
	id, action := chi.URLParam(r, "id"), chi.URLParam(r, "action")
	res, err := s.Sessions.Invoke(r.Context(), id, action)
	if err != nil {
		s.fail(w, "InvokeAction", err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// Dispatch handles POST /sessions/{id}/dispatch. The body is an action, {"value": {path: value}}.
func (s *Server) Dispatch(w http.ResponseWriter, r *http.Request) {
	var body domain.Action
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.Sessions.Dispatch(r.Context(), chi.URLParam(r, "id"), body.Value)
	if err != nil {
		s.fail(w, "Dispatch", err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// Eval handles POST /sessions/{id}/eval.
func (s *Server) Eval(w http.ResponseWriter, r *http.Request) {
	var body EvalRequest
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.Sessions.Eval(r.Context(), chi.URLParam(r, "id"), body.Expression)
	if err != nil {
		s.fail(w, "Eval", err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// SubscribeSession handles GET /sessions/{id}/events (SSE). Each event carries a store diff.
// The optional watch parameter, a comma separated list of top-level keys, drops diffs that
// touch none of them.
func (s *Server) SubscribeSession(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := s.Sessions.Snapshot(r.Context(), id); err != nil {
		s.fail(w, "SubscribeSession", err)
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, key := range strings.Split(raw, ",") {
			watch = append(watch, strings.TrimSpace(key))
		}
	}

	diffs, cancel := s.Sessions.Subscribe(id)
	defer cancel()

	streamHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: subscribed to session", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", id)
			return
		case diff, ok := <-diffs:
			if !ok {
				return
			}
			if !touches(diff, watch) {
				continue
			}
			payload, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("SSE: encoding diff", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// SubscribeReload handles GET /events (SSE): it emits the name of every changed component
// when the loader can watch its backend.
func (s *Server) SubscribeReload(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	watchable, ok := s.Engine.Loader().(ports.Watchable)
	if !ok {
		http.Error(w, "component loader does not support watching", http.StatusNotImplemented)
		return
	}
	events, err := watchable.Watch(r.Context())
	if err != nil {
		s.fail(w, "SubscribeReload", err)
		return
	}

	streamHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case name, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: %s\n\n", name)
			flusher.Flush()
		}
	}
}

func streamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

func touches(diff *domain.StoreDiff, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	for _, key := range watch {
		if _, ok := diff.Data[key]; ok {
			return true
		}
	}
	return false
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

// writeJSON encodes v before writing the header, so a value that cannot be encoded turns
// into a 500 instead of a truncated body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
		status = http.StatusInternalServerError
		buf.Reset()
		json.NewEncoder(&buf).Encode(map[string]string{"error": "response encode failed: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("response write failed", "err", err)
	}
}

// fail maps domain errors to status codes: missing things are 404, rejected expressions,
// paths, definitions, failed actions and unserializable values are 422. Anything else is a 500.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	var (
		exprErr *domain.ExpressionError
		pathErr *domain.PathResolutionError
		defErr  *domain.DefinitionError
		actErr  *domain.ActionInvocationError
	)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrComponentNotFound),
		errors.Is(err, domain.ErrActionNotFound):
		return http.StatusNotFound
	case errors.As(err, &exprErr), errors.As(err, &pathErr), errors.As(err, &defErr), errors.As(err, &actErr),
		errors.Is(err, domain.ErrNotSerializable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
