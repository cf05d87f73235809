package store

import (
	"context"
	"sync"

	"github.com/agentstation/utc"

	"github.com/agentstation/sightline/pkg/inventory"
)

// Memory is an in-process store. Its zero value is not usable; call
// NewMemory.
type Memory struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	summaries []Summary
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (s *Memory) Get(_ context.Context, key string) (inventory.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return inventory.Mapping{}, notFound(key)
	}
	return e.Mapping, nil
}

func (s *Memory) Put(_ context.Context, key string, m inventory.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Key: key, FileName: FileNameFromKey(key), Mapping: m, UpdatedAt: utc.Now()}
	return nil
}

func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return notFound(key)
	}
	delete(s.entries, key)
	return nil
}

func (s *Memory) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

func (s *Memory) SaveSummaries(_ context.Context, summaries []Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append([]Summary(nil), summaries...)
	return nil
}

func (s *Memory) Summaries(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Summary{}, s.summaries...), nil
}

func (s *Memory) Close() error { return nil }
