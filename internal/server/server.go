package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/repcycle/internal/ingest"
	"github.com/claude/repcycle/internal/journal"
	"github.com/claude/repcycle/internal/tracker"
)

// Tracker is the workout state the handlers operate on.
type Tracker interface {
	Load(ctx context.Context) (*ingest.Result, error)
	Current(ctx context.Context) (*tracker.WorkoutView, error)
	Skip(ctx context.Context) (*tracker.WorkoutView, error)
	Complete(ctx context.Context) (*tracker.CompletionView, error)
	FindNext(ctx context.Context, offset int) (*tracker.NextView, error)
	Dashboard(ctx context.Context) (*tracker.DashboardView, error)
	Status(ctx context.Context) (*tracker.StatusView, error)
	Journal(ctx context.Context, limit int) ([]journal.Entry, error)
	Retrain(ctx context.Context) (*tracker.RetrainView, error)
}

var _ Tracker = (*tracker.Tracker)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	tracker Tracker
	log     *slog.Logger
	apiKey  string
	whois   WhoIser
	router  chi.Router
}

// New creates a new Server with all routes configured. When apiKey is
// empty the mutating endpoints are open.
func New(t Tracker, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		tracker: t,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale enables identity lookup of tailnet callers.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// Mount attaches an extra handler, such as the MCP endpoint, under pattern.
// The handler can mutate state, so it sits behind the API key when one is
// configured.
func (s *Server) Mount(pattern string, h http.Handler) {
	if s.apiKey != "" {
		h = APIKeyAuth(s.apiKey)(h)
	}
	s.router.Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)
		r.Get("/status", s.handleStatus)
		r.Get("/workout", s.handleCurrent)
		r.Get("/workout/next", s.handleFindNext)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/journal", s.handleJournal)

		// Mutating endpoints (API key required when configured)
		r.Group(func(r chi.Router) {
			if s.apiKey != "" {
				r.Use(APIKeyAuth(s.apiKey))
			}
			r.Post("/workout/skip", s.handleSkip)
			r.Post("/workout/complete", s.handleComplete)
			r.Post("/reload", s.handleReload)
			r.Post("/difficulty/retrain", s.handleRetrain)
		})
	})
}
