// Package app holds the process state of the sightline CLI: the loaded
// configuration, the logger, and the mapping store every command and the
// server share.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/sightline"
	"github.com/agentstation/sightline/cmd/application"
	"github.com/agentstation/sightline/internal/cmd/output"
	"github.com/agentstation/sightline/internal/store"
	"github.com/agentstation/sightline/pkg/dateformat"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
)

// Build identifies the binary. Release builds stamp it via ldflags in
// main.
type Build struct {
	version, commit, date, builtBy string
}

// NewBuild returns build information.
func NewBuild(version, commit, date, builtBy string) Build {
	return Build{version: version, commit: commit, date: date, builtBy: builtBy}
}

func (b Build) Version() string { return b.version }
func (b Build) Commit() string  { return b.commit }
func (b Build) Date() string    { return b.date }
func (b Build) BuiltBy() string { return b.builtBy }

// App implements application.Application for the CLI.
type App struct {
	Build

	config *Config
	logger *zerolog.Logger

	// The store opens lazily and is shared until Shutdown.
	mu    sync.Mutex
	store store.Store
}

var _ application.Application = (*App)(nil)

// Option adjusts an App before first use.
type Option func(*App)

// WithConfig replaces the loaded configuration.
func WithConfig(config *Config) Option { return func(a *App) { a.config = config } }

// WithLogger replaces the logger built from configuration.
func WithLogger(logger *zerolog.Logger) Option { return func(a *App) { a.logger = logger } }

// WithStore supplies an already open mapping store.
func WithStore(st store.Store) Option { return func(a *App) { a.store = st } }

// New loads configuration from the environment and the default config
// file, then applies opts.
func New(build Build, opts ...Option) (*App, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	logger := NewLogger(config)

	a := &App{Build: build, config: config, logger: &logger}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the live configuration. Flags write into it.
func (a *App) Config() *Config { return a.config }

// Logger returns the logger configured by the last command setup.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured format, or the one suited to
// stdout when none is set.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// NoColor reports whether --no-color or the config disabled color.
func (a *App) NoColor() bool { return a.config.NoColor }

// Settings derives analysis settings from the configuration.
func (a *App) Settings() inventory.Settings {
	s := inventory.DefaultSettings()
	s.DisappearanceThresholdDays = a.config.DisappearanceThresholdDays
	s.StaleThresholdDays = a.config.StaleThresholdDays
	s.CaseSensitive = a.config.CaseSensitive
	s.SampleSize = a.config.SampleSize
	s.YearBounds = dateformat.YearBounds{Min: a.config.MinPlausibleYear, Ahead: a.config.MaxYearLookahead}
	return s
}

// Store opens the configured mapping store on first call.
func (a *App) Store() (store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		return a.store, nil
	}

	st, err := store.Open(store.Kind(a.config.Store), a.config.StorePath)
	if err != nil {
		return nil, errors.WrapResource("open", "store", a.config.Store, err)
	}
	a.logger.Debug().Str("store", a.config.Store).Str("path", a.config.StorePath).Msg("Opened mapping store")
	a.store = st
	return st, nil
}

// Sightline returns an engine over the shared store. Closing the engine
// leaves the store open.
func (a *App) Sightline(opts ...sightline.Option) (sightline.Sightline, error) {
	st, err := a.Store()
	if err != nil {
		return nil, err
	}
	sl, err := sightline.New(append([]sightline.Option{
		sightline.WithSettings(a.Settings()),
		sightline.WithStore(st, false),
	}, opts...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "sightline", "", err)
	}
	return sl, nil
}

// Shutdown closes the store if it was opened. It is safe to call twice.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		return nil
	}
	st := a.store
	a.store = nil
	return errors.WrapResource("close", "store", a.config.Store, st.Close())
}
