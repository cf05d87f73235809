// Package reconcile merges normalized inventory records from several
// sources into one consolidated view, compares the sources pairwise and
// classifies every machine's presence per source.
//
// A run is atomic: it reads an immutable snapshot of its sources and
// settings and returns a freshly built Result. Nothing is cached between
// runs and inputs are never modified.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/logging"
)

// Reconciler runs analyses.
type Reconciler interface {
	// Run analyzes the configured sources. Unconfigured sources are
	// ignored; with none configured the result is empty. A source that
	// fails to normalize is reported in Result.Files and does not fail
	// the run.
	Run(ctx context.Context, sources []*inventory.Source, settings inventory.Settings) (*Result, error)
}

// NormalizeFunc turns a source into records.
type NormalizeFunc func(ctx context.Context, src *inventory.Source, settings inventory.Settings) []inventory.Record

// Observer is notified after every completed run.
type Observer interface {
	ObserveRun(result *Result)
}

// reconciler is the default implementation of Reconciler
type reconciler struct {
	clock            func() time.Time
	emptyComparisons bool
	normalize        NormalizeFunc
	observers        []Observer
}

// Option configures a Reconciler
type Option func(*reconciler) error

// New creates a new Reconciler with options
func New(opts ...Option) (Reconciler, error) {
	r := &reconciler{
		clock:     time.Now,
		normalize: inventory.NormalizeSource,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// WithClock sets the source of "now" used for the staleness and
// disappearance boundaries.
func WithClock(clock func() time.Time) Option {
	return func(r *reconciler) error {
		if clock == nil {
			return errors.NewValidationError("clock", nil, "clock must not be nil")
		}
		r.clock = clock
		return nil
	}
}

// WithEmptyComparisons keeps source pairs without discrepancies in
// Result.Comparisons. By default they are omitted.
func WithEmptyComparisons(include bool) Option {
	return func(r *reconciler) error {
		r.emptyComparisons = include
		return nil
	}
}

// WithNormalizer replaces the per-source normalization step.
func WithNormalizer(fn NormalizeFunc) Option {
	return func(r *reconciler) error {
		if fn == nil {
			return errors.NewValidationError("normalizer", nil, "normalizer must not be nil")
		}
		r.normalize = fn
		return nil
	}
}

// WithObserver registers an observer for completed runs.
func WithObserver(o Observer) Option {
	return func(r *reconciler) error {
		if o != nil {
			r.observers = append(r.observers, o)
		}
		return nil
	}
}

// Analyze runs a one-off analysis with a default Reconciler.
func Analyze(ctx context.Context, sources []*inventory.Source, settings inventory.Settings, opts ...Option) (*Result, error) {
	r, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, sources, settings)
}

// Run implements Reconciler.
func (r *reconciler) Run(ctx context.Context, sources []*inventory.Source, settings inventory.Settings) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.Location == nil {
		settings.Location = time.Local
	}

	start := time.Now()
	now := r.clock()
	runID := uuid.NewString()
	ctx = logging.WithRun(ctx, runID)
	log := logging.FromContext(ctx)

	configured, err := configuredSources(sources)
	if err != nil {
		return nil, err
	}

	result := newResult(runID, now, settings)
	if len(configured) == 0 {
		log.Debug().Msg("No configured sources, returning empty result")
		result.Duration = time.Since(start)
		r.notify(result)
		return result, nil
	}

	var all []inventory.Record
	for _, src := range configured {
		report := r.normalizeFile(ctx, src, settings)
		result.Files = append(result.Files, report)
		result.SourceFiles = append(result.SourceFiles, src.FileName)
		all = append(all, report.Records...)
	}

	result.Machines = Consolidate(all, result.SourceFiles)
	result.Comparisons = Compare(result.Files, r.emptyComparisons)
	result.Stats = Stats(result.Machines, result.Files, result.StaleBoundary.Time)
	result.Disappeared = DisappearedNames(result.Machines, result.DisappearanceBoundary.Time)
	result.DisappearedCount = len(result.Disappeared)
	result.Duration = time.Since(start)

	log.Info().
		Int("sources", len(result.SourceFiles)).
		Int("records", len(all)).
		Int("machines", len(result.Machines)).
		Int("disappeared", result.DisappearedCount).
		Int("failed_sources", len(result.Errors())).
		Dur("duration", result.Duration).
		Msg("Analysis complete")

	r.notify(result)
	return result, nil
}

func (r *reconciler) notify(result *Result) {
	for _, o := range r.observers {
		o.ObserveRun(result)
	}
}

// normalizeFile normalizes one source, turning a failure into a report
// for that file alone.
func (r *reconciler) normalizeFile(ctx context.Context, src *inventory.Source, settings inventory.Settings) (report FileReport) {
	report = FileReport{SourceFile: src.FileName, RowCount: len(src.Rows), Records: []inventory.Record{}}
	ctx = logging.WithSourceFile(ctx, src.FileName)

	fail := func(err error) {
		report.Records = []inventory.Record{}
		report.Err = err
		report.Error = err.Error()
		logging.FromContext(ctx).Warn().Err(err).Msg("Source failed, continuing without its records")
	}

	defer func() {
		if p := recover(); p != nil {
			fail(errors.NewSourceError(src.FileName, "normalize", fmt.Errorf("panic: %v", p)))
		}
	}()

	// A column missing from the headers leaves names unknown or records
	// undated; the file still takes part in the run.
	if err := src.Mapping.Validate(src.Headers); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Mapping does not match headers")
	}

	if recs := r.normalize(ctx, src, settings); recs != nil {
		report.Records = recs
	}
	logging.FromContext(ctx).Debug().
		Int("rows", report.RowCount).
		Int("records", len(report.Records)).
		Msg("Normalized source")
	return report
}

func configuredSources(sources []*inventory.Source) ([]*inventory.Source, error) {
	seen := make(map[string]struct{}, len(sources))
	out := make([]*inventory.Source, 0, len(sources))
	for _, src := range sources {
		if !src.Configured() {
			continue
		}
		if _, dup := seen[src.FileName]; dup {
			return nil, errors.NewValidationError("file_name", src.FileName, "duplicate source file name")
		}
		seen[src.FileName] = struct{}{}
		out = append(out, src)
	}
	return out, nil
}
