// Package inventory holds the data model shared by every analysis stage:
// sources and their column mappings, normalized records, per-source slots
// and the run-wide settings.
package inventory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/dateformat"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/records"
)

// Mapping tells the analysis which columns of a source carry the machine
// name and the last-seen timestamp.
type Mapping struct {
	NameColumn string `json:"name_column" yaml:"name_column"`
	DateColumn string `json:"date_column,omitempty" yaml:"date_column,omitempty"`
	DateFormat string `json:"date_format,omitempty" yaml:"date_format,omitempty"`
}

// Configured reports whether the mapping names a machine-name column.
// Sources without one take no part in a run.
func (m Mapping) Configured() bool {
	return strings.TrimSpace(m.NameColumn) != ""
}

// HasDateColumn reports whether a date column is mapped. The literal
// "none" (any case) means no date column.
func (m Mapping) HasDateColumn() bool {
	c := strings.TrimSpace(m.DateColumn)
	return c != "" && !strings.EqualFold(c, constants.NoDateColumn)
}

// Validate checks the mapping against a source's headers.
func (m Mapping) Validate(headers []string) error {
	if !m.Configured() {
		return errors.NewValidationError("name_column", m.NameColumn, "machine name column is required")
	}
	if !contains(headers, m.NameColumn) {
		return errors.NewValidationError("name_column", m.NameColumn, "column not found in headers")
	}
	if m.HasDateColumn() && !contains(headers, m.DateColumn) {
		return errors.NewValidationError("date_column", m.DateColumn, "column not found in headers")
	}
	if m.DateFormat != "" {
		if !m.HasDateColumn() {
			return errors.NewValidationError("date_format", m.DateFormat, "date format requires a date column")
		}
		if _, err := dateformat.Compile(m.DateFormat); err != nil {
			return err
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Source is one uploaded export file together with its mapping.
type Source struct {
	FileName string        `json:"file_name" yaml:"file_name"`
	Mapping  Mapping       `json:"mapping" yaml:"mapping"`
	Headers  []string      `json:"headers" yaml:"headers"`
	Rows     []records.Row `json:"rows" yaml:"rows"`
}

// NewSource parses content into a Source with an empty mapping.
func NewSource(fileName, content string) *Source {
	table := records.Parse(content)
	return &Source{
		FileName: fileName,
		Headers:  table.Headers,
		Rows:     table.Rows,
	}
}

// Configured reports whether the source takes part in a run.
func (s *Source) Configured() bool {
	return s != nil && s.Mapping.Configured()
}

// DateSamples returns up to n non-blank values of the mapped date column.
func (s *Source) DateSamples(n int) []string {
	if !s.Mapping.HasDateColumn() {
		return nil
	}
	return dateformat.Samples(s.Rows, s.Mapping.DateColumn, n)
}

// Record is one source row reduced to its identity and sighting.
type Record struct {
	Name       string
	Domain     string
	LastSeen   time.Time
	SourceFile string

	// Row is the index of the originating row in the source; Raw is
	// that row, kept for display.
	Row int
	Raw records.Row
}

// Dated reports whether the record carries a real last-seen date.
func (r Record) Dated() bool {
	return !r.LastSeen.IsZero()
}

type recordWire struct {
	Name       string    `json:"name" yaml:"name"`
	Domain     string    `json:"domain,omitempty" yaml:"domain,omitempty"`
	LastSeen   *utc.Time `json:"last_seen,omitempty" yaml:"last_seen,omitempty"`
	SourceFile string    `json:"source_file" yaml:"source_file"`
	Row        int       `json:"row" yaml:"row"`
}

func (r Record) wire() recordWire {
	w := recordWire{Name: r.Name, Domain: r.Domain, SourceFile: r.SourceFile, Row: r.Row}
	if r.Dated() {
		w.LastSeen = &utc.Time{Time: r.LastSeen}
	}
	return w
}

// MarshalJSON omits last_seen for undated records.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

// MarshalYAML mirrors MarshalJSON.
func (r Record) MarshalYAML() (any, error) {
	return r.wire(), nil
}

// Settings are the run-wide knobs every stage receives explicitly.
type Settings struct {
	DisappearanceThresholdDays int                   `json:"disappearance_threshold_days" yaml:"disappearance_threshold_days"`
	StaleThresholdDays         int                   `json:"stale_threshold_days,omitempty" yaml:"stale_threshold_days,omitempty"`
	CaseSensitive              bool                  `json:"case_sensitive" yaml:"case_sensitive"`
	SampleSize                 int                   `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`
	YearBounds                 dateformat.YearBounds `json:"year_bounds" yaml:"year_bounds"`
	Location                   *time.Location        `json:"-" yaml:"-"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		DisappearanceThresholdDays: constants.DefaultDisappearanceThresholdDays,
		SampleSize:                 constants.DefaultSampleSize,
		YearBounds:                 dateformat.DefaultYearBounds(),
		Location:                   time.Local,
	}
}

// StaleDays is the stale threshold, falling back to the disappearance
// threshold when unset.
func (s Settings) StaleDays() int {
	if s.StaleThresholdDays > 0 {
		return s.StaleThresholdDays
	}
	return s.DisappearanceThresholdDays
}

// Validate rejects settings a run cannot use.
func (s Settings) Validate() error {
	if s.DisappearanceThresholdDays <= 0 {
		return errors.NewValidationError("disappearance_threshold_days", s.DisappearanceThresholdDays, "must be a positive number of days")
	}
	if s.StaleThresholdDays < 0 {
		return errors.NewValidationError("stale_threshold_days", s.StaleThresholdDays, "must not be negative")
	}
	if s.SampleSize < 0 {
		return errors.NewValidationError("sample_size", s.SampleSize, "must not be negative")
	}
	if s.YearBounds.Min > 0 && s.YearBounds.Ahead < 0 {
		return errors.NewValidationError("max_year_lookahead", s.YearBounds.Ahead, "must not be negative")
	}
	return nil
}

// DateOptions returns the dateformat options implied by the settings.
func (s Settings) DateOptions() []dateformat.Option {
	opts := []dateformat.Option{dateformat.WithLocation(s.Location)}
	if s.YearBounds != (dateformat.YearBounds{}) {
		opts = append(opts, dateformat.WithYearBounds(s.YearBounds))
	}
	return opts
}

func (s Settings) String() string {
	return fmt.Sprintf("disappearance=%dd stale=%dd case_sensitive=%t", s.DisappearanceThresholdDays, s.StaleDays(), s.CaseSensitive)
}
