package handlers

import (
	"net/http"

	"github.com/agentstation/sightline/internal/server/response"
	"github.com/agentstation/sightline/pkg/dateformat"
	"github.com/agentstation/sightline/pkg/errors"
)

// HandleGuess handles POST /guess. It ranks the known date formats
// against the posted samples.
func (h *Handlers) HandleGuess(w http.ResponseWriter, r *http.Request) {
	var req GuessRequest
	if err := decode(r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if len(req.Samples) == 0 {
		response.ErrorFromType(w, errors.NewValidationError("samples", nil, "at least one sample is required"))
		return
	}

	settings := req.Settings.Apply(h.app.Settings())
	opts := append(settings.DateOptions(), dateformat.WithNow(h.clock))

	resp := GuessResponse{Candidates: []dateformat.GuessResult{}}
	for _, c := range dateformat.Rank(req.Samples, opts...) {
		if c.Score > 0 {
			resp.Candidates = append(resp.Candidates, c)
		}
	}
	if format, ok := dateformat.GuessFormat(req.Samples, opts...); ok {
		resp.Format = format
		resp.Found = true
	}
	h.metrics.ObserveGuess(resp.Found)
	response.OK(w, resp)
}
