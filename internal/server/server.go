// Package server provides the HTTP API for running analyses in sessions.
//
// A session holds the result of its last run. Runs within one session
// are serialized; runs of different sessions proceed independently.
// Progress is published to SSE and WebSocket clients.
package server

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/sightline/cmd/application"
	"github.com/agentstation/sightline/internal/metrics"
	"github.com/agentstation/sightline/internal/server/events"
	"github.com/agentstation/sightline/internal/server/events/adapters"
	"github.com/agentstation/sightline/internal/server/session"
	"github.com/agentstation/sightline/internal/server/sse"
	ws "github.com/agentstation/sightline/internal/server/websocket"
	"github.com/agentstation/sightline/pkg/errors"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app            application.Application
	sessions       *session.Registry
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	metrics        *metrics.Metrics
	logger         *zerolog.Logger
	config         Config
	clock          func() time.Time
	ctx            context.Context
	cancel         context.CancelFunc
	startTime      time.Time
}

// Option configures a Server.
type Option func(*Server) error

// WithClock fixes "now" for analyses run by the server.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) error {
		if clock == nil {
			return errors.NewValidationError("clock", nil, "clock must not be nil")
		}
		s.clock = clock
		return nil
	}
}

// WithMetrics sets the metrics instance. By default a new one is created.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

// New creates a new server instance with the given configuration.
func New(app application.Application, cfg Config, opts ...Option) (*Server, error) {
	logger := app.Logger()
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		app:            app,
		sessions:       session.NewRegistry(cfg.SessionTTL),
		broker:         events.NewBroker(logger),
		wsHub:          ws.NewHub(logger),
		sseBroadcaster: sse.NewBroadcaster(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.CORSOrigins),
		},
		logger:    logger,
		config:    cfg,
		clock:     time.Now,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			cancel()
			return nil, err
		}
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	s.broker.Subscribe("websocket", adapters.WebSocket(s.wsHub))
	s.broker.Subscribe("sse", adapters.SSE(s.sseBroadcaster))

	s.sessions.OnRemoved(func(sess *session.Session) {
		s.metrics.SessionClosed()
		s.broker.Publish(events.SessionClosed, sess.ID(), nil)
		s.logger.Debug().Str("session_id", sess.ID()).Msg("Session closed")
	})

	logger.Debug().
		Str("prefix", cfg.PathPrefix).
		Dur("session_ttl", cfg.SessionTTL).
		Msg("Server instance created")
	return s, nil
}

// checkOrigin accepts WebSocket upgrades from the listed origins, or from
// anywhere when none are listed. Requests without an Origin header are
// not from browsers and always pass.
func checkOrigin(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(origins) == 0 {
			return true
		}
		return slices.ContainsFunc(origins, func(o string) bool {
			return o == "*" || strings.EqualFold(o, origin)
		})
	}
}

// Start starts the background services.
func (s *Server) Start() {
	go s.broker.Run(s.ctx)
	go s.wsHub.Run(s.ctx)
	go s.sseBroadcaster.Run(s.ctx)
	s.logger.Debug().Msg("Background services started")
}

// Handler returns the configured http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// HTTPServer returns an http.Server for the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// Shutdown stops the background services and drops all sessions.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()
	s.sessions.Clear()
	return nil
}

// Sessions returns the session registry.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// Metrics returns the metrics instance.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
