package reconcile

import (
	"fmt"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/sightline/pkg/inventory"
)

// FileReport is the outcome of normalizing one source. A failed file has
// Err set and no records; the run carries on without it.
type FileReport struct {
	SourceFile string `json:"source_file" yaml:"source_file"`
	RowCount   int    `json:"row_count" yaml:"row_count"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`

	Records []inventory.Record `json:"-" yaml:"-"`
	Err     error              `json:"-" yaml:"-"`
}

// Failed reports whether the file could not be normalized.
func (f FileReport) Failed() bool {
	return f.Err != nil
}

// Result is everything one analysis run produces.
type Result struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	GeneratedAt utc.Time           `json:"generated_at" yaml:"generated_at"`
	Settings    inventory.Settings `json:"settings" yaml:"settings"`

	// SourceFiles lists the configured sources in input order; every
	// machine has one slot per entry.
	SourceFiles []string `json:"source_files" yaml:"source_files"`

	Machines    []Machine    `json:"machines" yaml:"machines"`
	Comparisons []Comparison `json:"comparisons" yaml:"comparisons"`
	Stats       []FileStats  `json:"stats" yaml:"stats"`

	// Disappeared names the machines with no sighting newer than the
	// disappearance boundary, in view order.
	Disappeared      []string `json:"disappeared" yaml:"disappeared"`
	DisappearedCount int      `json:"disappeared_count" yaml:"disappeared_count"`

	Files []FileReport `json:"files" yaml:"files"`

	StaleBoundary         utc.Time      `json:"stale_boundary" yaml:"stale_boundary"`
	DisappearanceBoundary utc.Time      `json:"disappearance_boundary" yaml:"disappearance_boundary"`
	Duration              time.Duration `json:"duration" yaml:"duration"`
}

func newResult(runID string, now time.Time, settings inventory.Settings) *Result {
	return &Result{
		RunID:                 runID,
		GeneratedAt:           utc.Time{Time: now},
		Settings:              settings,
		SourceFiles:           []string{},
		Machines:              []Machine{},
		Comparisons:           []Comparison{},
		Stats:                 []FileStats{},
		Disappeared:           []string{},
		Files:                 []FileReport{},
		StaleBoundary:         utc.Time{Time: Boundary(now, settings.StaleDays())},
		DisappearanceBoundary: utc.Time{Time: Boundary(now, settings.DisappearanceThresholdDays)},
	}
}

// Empty reports whether the run had no machines.
func (r *Result) Empty() bool {
	return len(r.Machines) == 0
}

// Machine looks up a machine by canonical name.
func (r *Result) Machine(name string) (Machine, bool) {
	for _, m := range r.Machines {
		if m.Name == name {
			return m, true
		}
	}
	return Machine{}, false
}

// StatsFor returns the stats of one source file.
func (r *Result) StatsFor(sourceFile string) (FileStats, bool) {
	for _, s := range r.Stats {
		if s.SourceFile == sourceFile {
			return s, true
		}
	}
	return FileStats{}, false
}

// IsDisappeared reports whether m is disappeared under this run's boundary.
func (r *Result) IsDisappeared(m Machine) bool {
	return Disappeared(m, r.DisappearanceBoundary.Time)
}

// Status classifies a machine's slot under this run's stale boundary.
func (r *Result) Status(m Machine, sourceFile string) Status {
	return Classify(m.Slot(sourceFile), r.StaleBoundary.Time)
}

// Recalculate computes per-file stats over a subset of the view, such as
// a filtered one, with the run's boundary.
func (r *Result) Recalculate(view []Machine) []FileStats {
	return Stats(view, r.Files, r.StaleBoundary.Time)
}

// HasErrors reports whether any source failed.
func (r *Result) HasErrors() bool {
	for _, f := range r.Files {
		if f.Failed() {
			return true
		}
	}
	return false
}

// Errors returns the failures of all failed sources.
func (r *Result) Errors() []error {
	var errs []error
	for _, f := range r.Files {
		if f.Failed() {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// Summary returns a one-line description of the run.
func (r *Result) Summary() string {
	if len(r.SourceFiles) == 0 {
		return "No configured sources"
	}
	s := fmt.Sprintf("%d machines across %d sources, %d disappeared, %d discrepant pairs",
		len(r.Machines), len(r.SourceFiles), r.DisappearedCount, countNonEmpty(r.Comparisons))
	if errs := r.Errors(); len(errs) > 0 {
		s += fmt.Sprintf(", %d sources failed", len(errs))
	}
	return s
}

func countNonEmpty(cs []Comparison) int {
	n := 0
	for _, c := range cs {
		if !c.Empty() {
			n++
		}
	}
	return n
}
