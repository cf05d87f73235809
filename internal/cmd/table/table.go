// Package table converts analysis results into rows for the table
// formatter.
package table

import (
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/sightline/internal/cmd/emoji"
	"github.com/agentstation/sightline/internal/store"
	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/dateformat"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/reconcile"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// DateLayout formats dates in table cells.
const DateLayout = "2006-01-02"

// MachinesToTableData converts a view of machines to table format. The
// wide form spells out every cell with reconcile.Describe.
func MachinesToTableData(result *reconcile.Result, view []reconcile.Machine, wide bool) Data {
	headers := []string{"Machine", "Last Seen", "Source"}
	headers = append(headers, result.SourceFiles...)

	staleBoundary := result.StaleBoundary.Time
	rows := make([][]string, 0, len(view))
	for _, m := range view {
		name := m.Name
		if result.IsDisappeared(m) {
			name += " " + emoji.Disappeared
		}
		lastSeen, source := "-", "-"
		if m.Seen() {
			lastSeen = m.LastSeen.Format(DateLayout)
			source = m.LastSeenSource
		}
		row := []string{name, lastSeen, source}
		for _, file := range result.SourceFiles {
			slot := m.Slot(file)
			if wide {
				row = append(row, reconcile.Describe(slot, file, staleBoundary))
				continue
			}
			row = append(row, Cell(slot, staleBoundary))
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows}
}

// Cell renders a slot compactly.
func Cell(slot inventory.Slot, staleBoundary time.Time) string {
	switch reconcile.Classify(slot, staleBoundary) {
	case reconcile.StatusMissing:
		return "-"
	case reconcile.StatusNoDate:
		return constants.PresentNoDateLabel
	case reconcile.StatusStale:
		return slot.At.Format(DateLayout) + " " + emoji.Warning
	default:
		return slot.At.Format(DateLayout)
	}
}

// StatsToTableData converts per-file stats to table format.
func StatsToTableData(stats []reconcile.FileStats) Data {
	headers := []string{"File", "Rows", "Unique", "Present", "Stale", "No Date", "Missing", "In View"}
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.SourceFile,
			strconv.Itoa(s.SourceRecordCount),
			strconv.Itoa(s.UniqueSourceRecordCount),
			strconv.Itoa(s.Present),
			strconv.Itoa(s.Stale),
			strconv.Itoa(s.NoDate),
			strconv.Itoa(s.Missing),
			strconv.Itoa(s.TotalInView),
		})
	}
	return Data{
		Headers: headers,
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft, AlignRight, AlignRight, AlignRight,
			AlignRight, AlignRight, AlignRight, AlignRight,
		},
	}
}

// ComparisonsToTableData lists, per pair of files, the machines one has
// and the other lacks.
func ComparisonsToTableData(comparisons []reconcile.Comparison) Data {
	headers := []string{"Source", "Target", "Missing In Target", "Missing In Source"}
	rows := make([][]string, 0, len(comparisons))
	for _, c := range comparisons {
		rows = append(rows, []string{
			c.SourceFile,
			c.TargetFile,
			joinOrDash(c.MissingInTargetNames()),
			joinOrDash(c.MissingInSourceNames()),
		})
	}
	return Data{Headers: headers, Rows: rows}
}

// FilesToTableData lists the per-file outcome of a run.
func FilesToTableData(files []reconcile.FileReport) Data {
	headers := []string{"File", "Rows", "Status"}
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		status := emoji.Success + " ok"
		if f.Failed() {
			status = emoji.Error + " " + f.Error
		}
		rows = append(rows, []string{f.SourceFile, strconv.Itoa(f.RowCount), status})
	}
	return Data{Headers: headers, Rows: rows}
}

// MappingsToTableData converts stored mappings to table format.
func MappingsToTableData(entries []store.Entry) Data {
	headers := []string{"File", "Name Column", "Date Column", "Date Format", "Updated", "Key"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.FileName,
			e.Mapping.NameColumn,
			orDash(e.Mapping.DateColumn),
			orDash(e.Mapping.DateFormat),
			e.UpdatedAt.Format(time.DateTime),
			shortKey(e.Key),
		})
	}
	return Data{Headers: headers, Rows: rows}
}

// SummariesToTableData converts stored file summaries to table format.
func SummariesToTableData(summaries []store.Summary) Data {
	headers := []string{"File", "Total Lines", "Unique Machines", "Analyzed"}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.FileName,
			strconv.Itoa(s.TotalLines),
			strconv.Itoa(s.UniqueMachines),
			s.AnalyzedAt.Format(time.DateTime),
		})
	}
	return Data{
		Headers:         headers,
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignLeft},
	}
}

// GuessesToTableData converts ranked format candidates to table format.
// Candidates that parsed nothing are skipped.
func GuessesToTableData(candidates []dateformat.GuessResult, total int) Data {
	headers := []string{"Format", "Score", "Example"}
	rows := [][]string{}
	for i, c := range candidates {
		if c.Score <= 0 {
			continue
		}
		format := c.Format
		if i == 0 {
			format += " " + emoji.Success
		}
		example := "-"
		if len(c.Parsed) > 0 {
			example = c.Parsed[0].Value + " => " + c.Parsed[0].Time.Format(time.DateTime)
		}
		rows = append(rows, []string{format, strconv.Itoa(c.Score) + "/" + strconv.Itoa(total), example})
	}
	return Data{Headers: headers, Rows: rows}
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// shortKey trims the content hash of a store key for display.
func shortKey(key string) string {
	name := store.FileNameFromKey(key)
	hash := strings.TrimPrefix(key, name+":")
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return hash
}
