package handlers

import (
	"github.com/agentstation/sightline/pkg/dateformat"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/reconcile"
)

// SettingsRequest overrides analysis settings. Omitted fields keep the
// base value.
type SettingsRequest struct {
	DisappearanceThresholdDays *int  `json:"disappearance_threshold_days,omitempty"`
	StaleThresholdDays         *int  `json:"stale_threshold_days,omitempty"`
	CaseSensitive              *bool `json:"case_sensitive,omitempty"`
	SampleSize                 *int  `json:"sample_size,omitempty"`
	MinPlausibleYear           *int  `json:"min_plausible_year,omitempty"`
	MaxYearLookahead           *int  `json:"max_year_lookahead,omitempty"`
}

// Apply returns base with the request's fields set. A nil request
// returns base unchanged.
func (s *SettingsRequest) Apply(base inventory.Settings) inventory.Settings {
	if s == nil {
		return base
	}
	out := base
	if s.DisappearanceThresholdDays != nil {
		out.DisappearanceThresholdDays = *s.DisappearanceThresholdDays
	}
	if s.StaleThresholdDays != nil {
		out.StaleThresholdDays = *s.StaleThresholdDays
	}
	if s.CaseSensitive != nil {
		out.CaseSensitive = *s.CaseSensitive
	}
	if s.SampleSize != nil {
		out.SampleSize = *s.SampleSize
	}
	if s.MinPlausibleYear != nil {
		out.YearBounds.Min = *s.MinPlausibleYear
	}
	if s.MaxYearLookahead != nil {
		out.YearBounds.Ahead = *s.MaxYearLookahead
	}
	return out
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Settings *SettingsRequest `json:"settings,omitempty"`
}

// SourceRequest is one uploaded export.
type SourceRequest struct {
	FileName string             `json:"file_name"`
	Content  string             `json:"content"`
	Mapping  *inventory.Mapping `json:"mapping,omitempty"`

	// Remember stores Mapping under the content key of the file.
	Remember bool `json:"remember,omitempty"`
}

// AnalyzeRequest is the body of POST /sessions/{id}/analyze.
type AnalyzeRequest struct {
	Settings *SettingsRequest `json:"settings,omitempty"`
	Sources  []SourceRequest  `json:"sources"`
}

// GuessRequest is the body of POST /guess.
type GuessRequest struct {
	Samples  []string         `json:"samples"`
	Settings *SettingsRequest `json:"settings,omitempty"`
}

// GuessResponse carries the best format and every candidate that parsed
// at least one sample, best first.
type GuessResponse struct {
	Format     string                   `json:"format,omitempty"`
	Found      bool                     `json:"found"`
	Candidates []dateformat.GuessResult `json:"candidates"`
}

// AnalysisSummary is the payload of analysis.completed events.
type AnalysisSummary struct {
	RunID            string   `json:"run_id"`
	SourceFiles      []string `json:"source_files"`
	Machines         int      `json:"machines"`
	DisappearedCount int      `json:"disappeared_count"`
	FailedFiles      int      `json:"failed_files"`
	Summary          string   `json:"summary"`
}

func summarize(result *reconcile.Result) AnalysisSummary {
	return AnalysisSummary{
		RunID:            result.RunID,
		SourceFiles:      result.SourceFiles,
		Machines:         len(result.Machines),
		DisappearedCount: result.DisappearedCount,
		FailedFiles:      len(result.Errors()),
		Summary:          result.Summary(),
	}
}
