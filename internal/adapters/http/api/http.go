// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/okian/localscan/internal/domain/model"
	"github.com/okian/localscan/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Lookup enriches every resolvable name. It returns an error wrapping
	// service.ErrNoCharacters when none resolved.
	Lookup(ctx context.Context, names []string) ([]model.CharacterRecord, error)
}

// Server wires HTTP routes for the lookup API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	charactersHandler *CharactersHandler
	log               logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used by handlers and request logging.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("api")
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.charactersHandler = NewCharactersHandler(deps, s.log)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Post("/api/characters", MetricsMiddleware(s.charactersHandler.HandleLookup, "characters"))
}

// Router returns a chi router with the global middleware and every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestLogger(s.log))
	r.Use(chiMiddleware.Recoverer)
	s.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
