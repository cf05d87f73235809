package handlers

import (
	"net/http"

	"github.com/agentstation/sightline/internal/server/response"
	"github.com/agentstation/sightline/internal/store"
)

// HandleListMappings handles GET /mappings.
func (h *Handlers) HandleListMappings(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Store()
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	entries, err := st.List(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	response.OK(w, entries)
}

// HandleSummaries handles GET /summaries, the per-file summaries of the
// last analysis.
func (h *Handlers) HandleSummaries(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Store()
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	summaries, err := st.Summaries(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	response.OK(w, summaries)
}
