package application

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/sightline"
	"github.com/agentstation/sightline/internal/store"
	"github.com/agentstation/sightline/pkg/inventory"
)

// Mock is an Application for command and server tests. Every method calls
// its *Func field when set and otherwise returns a working default: one
// in-memory store shared by all engines, default settings, a no-op
// logger, table output and placeholder build information.
type Mock struct {
	SightlineFunc    func(...sightline.Option) (sightline.Sightline, error)
	StoreFunc        func() (store.Store, error)
	SettingsFunc     func() inventory.Settings
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	NoColorFunc      func() bool
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string

	once  sync.Once
	store store.Store
}

var _ Application = (*Mock)(nil)

func orDefault[T any](fn func() T, def T) T {
	if fn != nil {
		return fn()
	}
	return def
}

// Sightline builds an engine over Store and Settings unless
// SightlineFunc is set.
func (m *Mock) Sightline(opts ...sightline.Option) (sightline.Sightline, error) {
	if m.SightlineFunc != nil {
		return m.SightlineFunc(opts...)
	}
	st, err := m.Store()
	if err != nil {
		return nil, err
	}
	return sightline.New(append([]sightline.Option{
		sightline.WithSettings(m.Settings()),
		sightline.WithStore(st, false),
	}, opts...)...)
}

func (m *Mock) Store() (store.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc()
	}
	m.once.Do(func() { m.store = store.NewMemory() })
	return m.store, nil
}

func (m *Mock) Settings() inventory.Settings {
	return orDefault(m.SettingsFunc, inventory.DefaultSettings())
}

func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	nop := zerolog.Nop()
	return &nop
}

func (m *Mock) OutputFormat() string { return orDefault(m.OutputFormatFunc, "table") }
func (m *Mock) NoColor() bool        { return orDefault(m.NoColorFunc, false) }
func (m *Mock) Version() string      { return orDefault(m.VersionFunc, "dev") }
func (m *Mock) Commit() string       { return orDefault(m.CommitFunc, "unknown") }
func (m *Mock) Date() string         { return orDefault(m.DateFunc, "unknown") }
func (m *Mock) BuiltBy() string      { return orDefault(m.BuiltByFunc, "test") }
