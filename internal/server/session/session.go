// Package session keeps HTTP analysis sessions in memory with a sliding
// expiry. Each session holds the result of its last run and admits one
// run at a time.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/reconcile"
)

// Session is one client's analysis workspace.
type Session struct {
	id        string
	createdAt time.Time

	// sem admits a single run; waiting callers queue on it.
	sem chan struct{}

	mu       sync.RWMutex
	settings inventory.Settings
	result   *reconcile.Result
	runs     int
	running  bool
}

// Info is the serializable state of a session.
type Info struct {
	ID        string             `json:"id" yaml:"id"`
	CreatedAt utc.Time           `json:"created_at" yaml:"created_at"`
	Settings  inventory.Settings `json:"settings" yaml:"settings"`
	Runs      int                `json:"runs" yaml:"runs"`
	Running   bool               `json:"running" yaml:"running"`
	LastRunID string             `json:"last_run_id,omitempty" yaml:"last_run_id,omitempty"`
}

func newSession(settings inventory.Settings) *Session {
	return &Session{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		sem:       make(chan struct{}, 1),
		settings:  settings,
	}
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Settings returns the settings of the session.
func (s *Session) Settings() inventory.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Result returns the last run's result, or nil before the first run.
func (s *Session) Result() *reconcile.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Info returns a snapshot of the session state.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := Info{
		ID:        s.id,
		CreatedAt: utc.Time{Time: s.createdAt},
		Settings:  s.settings,
		Runs:      s.runs,
		Running:   s.running,
	}
	if s.result != nil {
		info.LastRunID = s.result.RunID
	}
	return info
}

// RunFunc performs one analysis with the given settings.
type RunFunc func(ctx context.Context, settings inventory.Settings) (*reconcile.Result, error)

// Run executes fn once no other run of the session is in progress. While
// it runs, Result keeps returning the previous result; the new one
// replaces it only on success, together with settings. Waiting for the
// session gives up when ctx is done.
func (s *Session) Run(ctx context.Context, settings inventory.Settings, fn RunFunc) (*reconcile.Result, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.run(ctx, settings, fn)
}

// TryRun is Run without waiting: it returns an error satisfying
// errors.IsBusy when a run is already in progress.
func (s *Session) TryRun(ctx context.Context, settings inventory.Settings, fn RunFunc) (*reconcile.Result, error) {
	select {
	case s.sem <- struct{}{}:
	default:
		return nil, errors.WrapResource("run", "session", s.id, errors.ErrBusy)
	}
	return s.run(ctx, settings, fn)
}

// run expects the semaphore to be held and releases it.
func (s *Session) run(ctx context.Context, settings inventory.Settings, fn RunFunc) (*reconcile.Result, error) {
	defer func() { <-s.sem }()

	s.setRunning(true)
	defer s.setRunning(false)

	result, err := fn(ctx, settings)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.result = result
	s.settings = settings
	s.runs++
	s.mu.Unlock()
	return result, nil
}

func (s *Session) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

// Registry holds the open sessions. Sessions expire after ttl without
// access.
type Registry struct {
	items *gocache.Cache
}

// NewRegistry creates a registry with the given idle TTL.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{items: gocache.New(ttl, ttl/2)}
}

// OnRemoved registers fn to be called when a session expires or is
// deleted. Only one callback is kept.
func (r *Registry) OnRemoved(fn func(*Session)) {
	r.items.OnEvicted(func(_ string, v any) {
		if s, ok := v.(*Session); ok && fn != nil {
			fn(s)
		}
	})
}

// Create opens a new session with the given settings.
func (r *Registry) Create(settings inventory.Settings) *Session {
	s := newSession(settings)
	r.items.Set(s.id, s, gocache.DefaultExpiration)
	return s
}

// Get returns a session and extends its expiry.
func (r *Registry) Get(id string) (*Session, error) {
	v, ok := r.items.Get(id)
	if !ok {
		return nil, errors.NewNotFoundError("session", id)
	}
	s := v.(*Session)
	r.items.Set(id, s, gocache.DefaultExpiration)
	return s, nil
}

// Delete closes a session.
func (r *Registry) Delete(id string) error {
	if _, ok := r.items.Get(id); !ok {
		return errors.NewNotFoundError("session", id)
	}
	r.items.Delete(id)
	return nil
}

// Count returns the number of open sessions.
func (r *Registry) Count() int {
	return r.items.ItemCount()
}

// List returns the info of every open session.
func (r *Registry) List() []Info {
	items := r.items.Items()
	out := make([]Info, 0, len(items))
	for _, it := range items {
		if s, ok := it.Object.(*Session); ok {
			out = append(out, s.Info())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Clear removes every session without calling the removal callback.
func (r *Registry) Clear() {
	r.items.Flush()
}
