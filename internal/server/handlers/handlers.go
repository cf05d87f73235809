// Package handlers provides HTTP request handlers for the sightline API.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/sightline/cmd/application"
	"github.com/agentstation/sightline/internal/metrics"
	"github.com/agentstation/sightline/internal/server/events"
	"github.com/agentstation/sightline/internal/server/response"
	"github.com/agentstation/sightline/internal/server/session"
	"github.com/agentstation/sightline/internal/server/sse"
	ws "github.com/agentstation/sightline/internal/server/websocket"
	"github.com/agentstation/sightline/pkg/errors"
)

// Deps are the collaborators handlers need.
type Deps struct {
	App            application.Application
	Sessions       *session.Registry
	Broker         *events.Broker
	WSHub          *ws.Hub
	SSEBroadcaster *sse.Broadcaster
	Upgrader       websocket.Upgrader
	Metrics        *metrics.Metrics
	Logger         *zerolog.Logger
	Clock          func() time.Time
	StartTime      time.Time
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	app            application.Application
	sessions       *session.Registry
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	metrics        *metrics.Metrics
	logger         *zerolog.Logger
	clock          func() time.Time
	startTime      time.Time
}

// New creates a new Handlers instance.
func New(d Deps) *Handlers {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		nop := zerolog.Nop()
		d.Logger = &nop
	}
	return &Handlers{
		app:            d.App,
		sessions:       d.Sessions,
		broker:         d.Broker,
		wsHub:          d.WSHub,
		sseBroadcaster: d.SSEBroadcaster,
		upgrader:       d.Upgrader,
		metrics:        d.Metrics,
		logger:         d.Logger,
		clock:          d.Clock,
		startTime:      d.StartTime,
	}
}

// session resolves the {id} URL parameter, writing a 404 when it is
// unknown.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorFromType(w, err)
		return nil, false
	}
	return sess, true
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err == nil || stderrors.Is(err, io.EOF) {
		return nil
	}
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return err
	}
	return errors.NewParseError("json", "request body", "invalid JSON", err)
}
