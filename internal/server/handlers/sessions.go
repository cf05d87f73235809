package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/agentstation/sightline"
	"github.com/agentstation/sightline/internal/filter"
	"github.com/agentstation/sightline/internal/server/events"
	"github.com/agentstation/sightline/internal/server/response"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/export"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/logging"
	"github.com/agentstation/sightline/pkg/reconcile"
)

// HandleCreateSession handles POST /sessions.
func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decode(r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	settings := req.Settings.Apply(h.app.Settings())
	if err := settings.Validate(); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	sess := h.sessions.Create(settings)
	h.metrics.SessionOpened()
	h.broker.Publish(events.SessionCreated, sess.ID(), sess.Info())

	logging.FromContext(r.Context()).Info().
		Str("session_id", sess.ID()).
		Msg("Session created")
	response.Created(w, sess.Info())
}

// HandleListSessions handles GET /sessions.
func (h *Handlers) HandleListSessions(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, h.sessions.List())
}

// HandleGetSession handles GET /sessions/{id}.
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	response.OK(w, sess.Info())
}

// HandleDeleteSession handles DELETE /sessions/{id}.
func (h *Handlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Delete(sess.ID()); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAnalyze handles POST /sessions/{id}/analyze.
//
// Runs of one session are queued; the request waits for an earlier run
// to finish or for the client to go away. With ?wait=false a busy session
// answers 409 instead.
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if err := decode(r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if len(req.Sources) == 0 {
		response.ErrorFromType(w, errors.NewValidationError("sources", nil, "at least one source is required"))
		return
	}

	settings := req.Settings.Apply(sess.Settings())
	if err := settings.Validate(); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx).With().Str("session_id", sess.ID()).Logger()
	h.broker.Publish(events.AnalysisStarted, sess.ID(), map[string]any{
		"sources": len(req.Sources),
	})

	run := sess.Run
	if r.URL.Query().Get("wait") == "false" {
		run = sess.TryRun
	}
	result, err := run(ctx, settings, func(ctx context.Context, settings inventory.Settings) (*reconcile.Result, error) {
		return h.analyze(ctx, sess.ID(), settings, req.Sources)
	})
	if err != nil {
		h.metrics.RecordRunError()
		h.broker.Publish(events.AnalysisFailed, sess.ID(), map[string]any{
			"error": err.Error(),
		})
		logger.Warn().Err(err).Msg("Analysis failed")
		response.ErrorFromType(w, err)
		return
	}

	summary := summarize(result)
	h.broker.Publish(events.AnalysisCompleted, sess.ID(), summary)
	logger.Info().
		Str("run_id", result.RunID).
		Int("machines", summary.Machines).
		Int("disappeared", summary.DisappearedCount).
		Msg("Analysis completed")
	response.OK(w, result)
}

func (h *Handlers) analyze(ctx context.Context, sessionID string, settings inventory.Settings, sources []SourceRequest) (*reconcile.Result, error) {
	opts := []sightline.Option{
		sightline.WithSettings(settings),
		sightline.WithClock(h.clock),
	}
	inputs := make([]sightline.Input, 0, len(sources))
	for _, src := range sources {
		if src.FileName == "" {
			return nil, errors.NewValidationError("file_name", src.FileName, "file name is required")
		}
		inputs = append(inputs, sightline.Input{FileName: src.FileName, Content: []byte(src.Content)})
		if src.Mapping != nil {
			opts = append(opts, sightline.WithMapping(src.FileName, *src.Mapping))
		}
	}

	sl, err := h.app.Sightline(opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sl.Close(); cerr != nil {
			h.logger.Warn().Err(cerr).Msg("Failed to close analysis")
		}
	}()

	sl.OnAnalysisComplete(h.metrics.ObserveRun)
	sl.OnSourceFailed(func(runID string, report reconcile.FileReport) {
		h.broker.Publish(events.SourceFailed, sessionID, map[string]any{
			"run_id":      runID,
			"source_file": report.SourceFile,
			"error":       report.Error,
		})
	})

	for i, src := range sources {
		if !src.Remember || src.Mapping == nil {
			continue
		}
		if err := sl.Remember(ctx, inputs[i], *src.Mapping); err != nil {
			return nil, err
		}
	}

	prepared, err := sl.Prepare(ctx, inputs...)
	if err != nil {
		return nil, err
	}
	return sl.Analyze(ctx, prepared)
}

// HandleResult handles GET /sessions/{id}/result.
//
// Query parameters:
//   - filter: filter expression (name pattern and status terms)
//   - pattern_type: auto, glob, regex or substring
//   - ignore_case: match names case-insensitively
func (h *Handlers) HandleResult(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	result := sess.Result()
	if result == nil {
		response.ErrorFromType(w, errors.NewNotFoundError("result", sess.ID()))
		return
	}

	view, err := viewFromQuery(r, result)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, map[string]any{
		"result": result,
		"view":   view,
	})
}

// HandleExport handles GET /sessions/{id}/export.csv. It accepts the
// same filter parameters as HandleResult.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	result := sess.Result()
	if result == nil {
		response.ErrorFromType(w, errors.NewNotFoundError("result", sess.ID()))
		return
	}

	view, err := viewFromQuery(r, result)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sightline-`+result.RunID+`.csv"`)
	if err := export.WriteCSV(w, view.Machines, result.SourceFiles); err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID()).Msg("CSV export failed")
	}
}

func viewFromQuery(r *http.Request, result *reconcile.Result) (*filter.View, error) {
	q := r.URL.Query()
	patternType, err := filter.ParsePatternType(q.Get("pattern_type"))
	if err != nil {
		return nil, err
	}
	ignoreCase := false
	if v := q.Get("ignore_case"); v != "" {
		ignoreCase, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.NewValidationError("ignore_case", v, "must be a boolean")
		}
	}
	f, err := filter.Parse(q.Get("filter"), filter.Options{
		PatternType:     patternType,
		CaseInsensitive: ignoreCase,
	})
	if err != nil {
		return nil, err
	}
	return f.ApplyView(result)
}
