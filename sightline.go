// Package sightline reconciles machine inventory exports from several
// systems into one view of when each machine was last seen, and where it
// has gone missing.
//
// The facade loads export files, restores column mappings remembered for
// identical file content, fills in missing date formats by guessing from
// samples, runs the analysis and remembers per-file summaries of the run.
// The analysis itself lives in pkg/reconcile and can be used directly.
package sightline

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentstation/sightline/internal/store"
	"github.com/agentstation/sightline/pkg/dateformat"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/logging"
	"github.com/agentstation/sightline/pkg/reconcile"
)

// Sightline prepares sources and runs analyses over them.
type Sightline interface {
	// Prepare parses inputs into sources and fills in their mappings.
	Prepare(ctx context.Context, inputs ...Input) ([]*inventory.Source, error)

	// Analyze runs one analysis over prepared sources.
	Analyze(ctx context.Context, sources []*inventory.Source) (*reconcile.Result, error)

	// AnalyzeFiles reads, prepares and analyzes files in one call.
	AnalyzeFiles(ctx context.Context, paths ...string) (*reconcile.Result, error)

	// Remember stores the mapping of an input under its content key.
	Remember(ctx context.Context, input Input, mapping inventory.Mapping) error

	// Settings returns the analysis settings.
	Settings() inventory.Settings

	// OnAnalysisComplete registers a callback for finished runs
	OnAnalysisComplete(AnalysisCompleteHook)

	// OnSourceFailed registers a callback for files that failed in a run
	OnSourceFailed(SourceFailedHook)

	// Close releases the mapping store.
	Close() error
}

// Input is the raw content of one export file.
type Input struct {
	FileName string
	Content  []byte
}

// Key returns the store key of the input.
func (in Input) Key() string {
	return store.Key(in.FileName, in.Content)
}

// ReadInputs reads files from disk. Inputs are named by base file name, so
// two paths with the same base name are rejected by the analysis.
func ReadInputs(paths ...string) ([]Input, error) {
	inputs := make([]Input, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.WrapIO("read", p, err)
		}
		inputs = append(inputs, Input{FileName: filepath.Base(p), Content: content})
	}
	return inputs, nil
}

// sightline is the default implementation of Sightline
type sightline struct {
	mu     sync.Mutex
	config *config
	hooks  *hooks
	store  store.Store
	recon  reconcile.Reconciler
}

// New creates a Sightline with options.
func New(opts ...Option) (Sightline, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errors.WrapValidation("option", err)
		}
	}
	if err := cfg.settings.Validate(); err != nil {
		return nil, err
	}

	st := cfg.store
	if st == nil {
		st = store.NewMemory()
	}

	s := &sightline{
		config: cfg,
		hooks:  &hooks{},
		store:  st,
	}

	ropts := append([]reconcile.Option{reconcile.WithObserver(s.hooks)}, cfg.reconcileOpts...)
	recon, err := reconcile.New(ropts...)
	if err != nil {
		return nil, err
	}
	s.recon = recon
	return s, nil
}

// Settings implements Sightline.
func (s *sightline) Settings() inventory.Settings {
	return s.config.settings
}

// OnAnalysisComplete implements Sightline.
func (s *sightline) OnAnalysisComplete(fn AnalysisCompleteHook) {
	s.hooks.OnAnalysisComplete(fn)
}

// OnSourceFailed implements Sightline.
func (s *sightline) OnSourceFailed(fn SourceFailedHook) {
	s.hooks.OnSourceFailed(fn)
}

// Prepare implements Sightline. Mapping precedence per file is: a mapping
// given for that file name, a remembered mapping for identical content,
// then the default mapping. A date format left empty is guessed from the
// first samples of the date column; an explicit format is never replaced.
func (s *sightline) Prepare(ctx context.Context, inputs ...Input) ([]*inventory.Source, error) {
	logger := logging.FromContext(ctx)
	settings := s.config.settings

	sources := make([]*inventory.Source, 0, len(inputs))
	contents := make(map[string][]byte, len(inputs))
	for _, in := range inputs {
		src := inventory.NewSource(in.FileName, string(in.Content))
		if m, ok := s.config.mappings[in.FileName]; ok {
			src.Mapping = m
		}
		sources = append(sources, src)
		contents[in.FileName] = in.Content
	}

	restored, err := store.Resolve(ctx, s.store, sources, contents)
	if err != nil {
		return nil, err
	}
	if restored > 0 {
		logger.Debug().Int("mappings", restored).Msg("Restored stored mappings")
	}

	for _, src := range sources {
		if !src.Configured() && s.config.defaultMapping.Configured() {
			src.Mapping = s.config.defaultMapping
		}
		if s.config.guessFormats {
			s.guessFormat(ctx, src, settings)
		}
	}
	return sources, nil
}

func (s *sightline) guessFormat(ctx context.Context, src *inventory.Source, settings inventory.Settings) {
	if !src.Configured() || !src.Mapping.HasDateColumn() || src.Mapping.DateFormat != "" {
		return
	}
	samples := src.DateSamples(settings.SampleSize)
	format, ok := dateformat.GuessFormat(samples, settings.DateOptions()...)
	log := logging.FromContext(logging.WithSourceFile(ctx, src.FileName))
	if !ok {
		log.Debug().Int("samples", len(samples)).Msg("No date format recognized, falling back to generic parsing")
		return
	}
	log.Debug().Str("format", format).Msg("Guessed date format")
	src.Mapping.DateFormat = format
}

// Analyze implements Sightline. Runs on one instance are serialized and
// summaries of every successful run are saved to the store.
func (s *sightline) Analyze(ctx context.Context, sources []*inventory.Source) (*reconcile.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.recon.Run(ctx, sources, s.config.settings)
	if err != nil {
		return nil, err
	}

	if len(result.Files) > 0 {
		if err := s.store.SaveSummaries(ctx, store.SummariesFromResult(result)); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("Failed to save file summaries")
		}
	}
	return result, nil
}

// AnalyzeFiles implements Sightline.
func (s *sightline) AnalyzeFiles(ctx context.Context, paths ...string) (*reconcile.Result, error) {
	inputs, err := ReadInputs(paths...)
	if err != nil {
		return nil, err
	}
	sources, err := s.Prepare(ctx, inputs...)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, sources)
}

// Remember implements Sightline.
func (s *sightline) Remember(ctx context.Context, input Input, mapping inventory.Mapping) error {
	src := inventory.NewSource(input.FileName, string(input.Content))
	if err := mapping.Validate(src.Headers); err != nil {
		return err
	}
	return s.store.Put(ctx, input.Key(), mapping)
}

// Close implements Sightline.
func (s *sightline) Close() error {
	if s.config.closeStore {
		return s.store.Close()
	}
	return nil
}
