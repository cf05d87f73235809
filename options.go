package sightline

import (
	"time"

	"github.com/agentstation/sightline/internal/store"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/reconcile"
)

// config holds the options of a Sightline instance
type config struct {
	settings       inventory.Settings
	store          store.Store
	closeStore     bool
	mappings       map[string]inventory.Mapping
	defaultMapping inventory.Mapping
	guessFormats   bool
	reconcileOpts  []reconcile.Option
}

func defaultConfig() *config {
	return &config{
		settings:     inventory.DefaultSettings(),
		mappings:     make(map[string]inventory.Mapping),
		guessFormats: true,
	}
}

// Option is a function that configures a Sightline instance
type Option func(*config) error

// WithSettings replaces the analysis settings.
func WithSettings(settings inventory.Settings) Option {
	return func(c *config) error {
		if settings.Location == nil {
			settings.Location = time.Local
		}
		c.settings = settings
		return nil
	}
}

// WithStore sets the mapping store. The store is closed with the instance
// when owned is true.
func WithStore(s store.Store, owned bool) Option {
	return func(c *config) error {
		if s == nil {
			return errors.New("store must not be nil")
		}
		c.store = s
		c.closeStore = owned
		return nil
	}
}

// WithMapping sets the mapping of one file by name. It wins over stored
// mappings.
func WithMapping(fileName string, m inventory.Mapping) Option {
	return func(c *config) error {
		if fileName == "" {
			return errors.New("file name must not be empty")
		}
		c.mappings[fileName] = m
		return nil
	}
}

// WithDefaultMapping sets the mapping used for files that have neither an
// explicit nor a stored mapping.
func WithDefaultMapping(m inventory.Mapping) Option {
	return func(c *config) error {
		c.defaultMapping = m
		return nil
	}
}

// WithFormatGuessing configures whether missing date formats are guessed.
// Enabled by default.
func WithFormatGuessing(enabled bool) Option {
	return func(c *config) error {
		c.guessFormats = enabled
		return nil
	}
}

// WithClock fixes the source of "now" for staleness boundaries.
func WithClock(clock func() time.Time) Option {
	return WithReconcileOptions(reconcile.WithClock(clock))
}

// WithReconcileOptions passes options through to the underlying
// reconciler.
func WithReconcileOptions(opts ...reconcile.Option) Option {
	return func(c *config) error {
		c.reconcileOpts = append(c.reconcileOpts, opts...)
		return nil
	}
}
