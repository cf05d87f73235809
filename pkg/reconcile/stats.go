package reconcile

import (
	"fmt"
	"time"

	"github.com/agentstation/sightline/pkg/inventory"
)

// Status classifies a machine's slot in one source.
type Status string

const (
	StatusMissing Status = "missing"
	StatusNoDate  Status = "no_date"
	StatusStale   Status = "stale"
	StatusPresent Status = "present"
)

// Boundary returns now minus days. All comparisons of one run share the
// instant returned by a single call.
func Boundary(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// Classify returns the status of a slot given the stale boundary.
// Checks run in order: absent, undated, older than boundary, present.
func Classify(slot inventory.Slot, staleBoundary time.Time) Status {
	switch {
	case slot.IsAbsent():
		return StatusMissing
	case !slot.HasDate():
		return StatusNoDate
	case slot.At.Before(staleBoundary):
		return StatusStale
	default:
		return StatusPresent
	}
}

// Disappeared reports whether m has no real sighting at all or was last
// seen before the boundary.
func Disappeared(m Machine, boundary time.Time) bool {
	return !m.Seen() || m.LastSeen.Before(boundary)
}

// CountDisappeared counts the disappeared machines of a view.
func CountDisappeared(view []Machine, boundary time.Time) int {
	n := 0
	for _, m := range view {
		if Disappeared(m, boundary) {
			n++
		}
	}
	return n
}

// DisappearedNames lists the disappeared machines in view order.
func DisappearedNames(view []Machine, boundary time.Time) []string {
	out := []string{}
	for _, m := range view {
		if Disappeared(m, boundary) {
			out = append(out, m.Name)
		}
	}
	return out
}

// FileStats tallies one source file against the consolidated view.
type FileStats struct {
	SourceFile string `json:"source_file" yaml:"source_file"`

	// SourceRecordCount is the number of raw rows in the file and
	// UniqueSourceRecordCount the distinct names among them.
	SourceRecordCount       int `json:"source_record_count" yaml:"source_record_count"`
	UniqueSourceRecordCount int `json:"unique_source_record_count" yaml:"unique_source_record_count"`

	Present     int `json:"present" yaml:"present"`
	Stale       int `json:"stale" yaml:"stale"`
	NoDate      int `json:"no_date" yaml:"no_date"`
	Missing     int `json:"missing" yaml:"missing"`
	TotalInView int `json:"total_in_view" yaml:"total_in_view"`
}

func (s FileStats) String() string {
	return fmt.Sprintf("%s: %d present, %d stale, %d no date, %d missing of %d",
		s.SourceFile, s.Present, s.Stale, s.NoDate, s.Missing, s.TotalInView)
}

func (s *FileStats) add(st Status) {
	switch st {
	case StatusMissing:
		s.Missing++
	case StatusNoDate:
		s.NoDate++
	case StatusStale:
		s.Stale++
	case StatusPresent:
		s.Present++
	}
}

// Stats classifies every slot of view per file. view may be a filtered
// subset of a run's view; the per-file record counts always come from
// the whole file.
func Stats(view []Machine, files []FileReport, staleBoundary time.Time) []FileStats {
	out := make([]FileStats, 0, len(files))
	for _, f := range files {
		s := FileStats{
			SourceFile:              f.SourceFile,
			SourceRecordCount:       f.RowCount,
			UniqueSourceRecordCount: len(inventory.UniqueNames(f.Records)),
			TotalInView:             len(view),
		}
		for _, m := range view {
			s.add(Classify(m.Slot(f.SourceFile), staleBoundary))
		}
		out = append(out, s)
	}
	return out
}
