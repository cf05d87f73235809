package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentstation/sightline/internal/server/handlers"
	"github.com/agentstation/sightline/internal/server/middleware"
	"github.com/agentstation/sightline/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	h := handlers.New(handlers.Deps{
		App:            s.app,
		Sessions:       s.sessions,
		Broker:         s.broker,
		WSHub:          s.wsHub,
		SSEBroadcaster: s.sseBroadcaster,
		Upgrader:       s.upgrader,
		Metrics:        s.metrics,
		Logger:         s.logger,
		Clock:          s.clock,
		StartTime:      s.startTime,
	})

	r := chi.NewRouter()
	r.Use(s.middlewares()...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r.Method)
	})

	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/health", h.HandleHealth)
	if s.config.MetricsEnabled {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route(s.config.PathPrefix, func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Get("/ready", h.HandleReady)

		r.Post("/guess", h.HandleGuess)
		r.Get("/mappings", h.HandleListMappings)
		r.Get("/summaries", h.HandleSummaries)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.HandleListSessions)
			r.Post("/", h.HandleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.HandleGetSession)
				r.Delete("/", h.HandleDeleteSession)
				r.Post("/analyze", h.HandleAnalyze)
				r.Get("/result", h.HandleResult)
				r.Get("/export.csv", h.HandleExport)
				r.Get("/events", h.HandleSessionEvents)
			})
		})

		r.Get("/updates/ws", h.HandleWebSocket)
		r.Get("/updates/stream", h.HandleSSE)
	})

	return r
}

// middlewares returns the middleware chain, outermost first.
func (s *Server) middlewares() []func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logger(s.logger),
	}
	if s.config.CORSEnabled {
		chain = append(chain, middleware.CORS(s.config.CORSOrigins))
	}
	chain = append(chain, middleware.MaxBody(s.config.MaxUploadBytes))
	return chain
}
