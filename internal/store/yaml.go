package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"

	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
)

// yamlDocument is the on-disk layout of a YAML store.
type yamlDocument struct {
	Mappings  []Entry   `yaml:"mappings"`
	Summaries []Summary `yaml:"summaries"`
}

// YAML keeps the whole store in one YAML file, rewritten on every change.
type YAML struct {
	path string
	mem  *Memory
	mu   sync.Mutex
}

// OpenYAML loads path, creating an empty store when it does not exist.
func OpenYAML(path string) (*YAML, error) {
	s := &YAML{path: path, mem: NewMemory()}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, errors.WrapIO("read", path, err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	for _, e := range doc.Mappings {
		s.mem.entries[e.Key] = e
	}
	s.mem.summaries = doc.Summaries
	return s, nil
}

// Path returns the backing file.
func (s *YAML) Path() string { return s.path }

func (s *YAML) Get(ctx context.Context, key string) (inventory.Mapping, error) {
	return s.mem.Get(ctx, key)
}

func (s *YAML) Put(ctx context.Context, key string, m inventory.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.mem.entries[key]
	_ = s.mem.Put(ctx, key, m)
	if err := s.flush(ctx); err != nil {
		if had {
			s.mem.entries[key] = prev
		} else {
			delete(s.mem.entries, key)
		}
		return err
	}
	return nil
}

func (s *YAML) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.mem.entries[key]
	if err := s.mem.Delete(ctx, key); err != nil {
		return err
	}
	if err := s.flush(ctx); err != nil {
		if had {
			s.mem.entries[key] = prev
		}
		return err
	}
	return nil
}

func (s *YAML) List(ctx context.Context) ([]Entry, error) {
	return s.mem.List(ctx)
}

func (s *YAML) SaveSummaries(ctx context.Context, summaries []Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.mem.summaries
	_ = s.mem.SaveSummaries(ctx, summaries)
	if err := s.flush(ctx); err != nil {
		s.mem.summaries = prev
		return err
	}
	return nil
}

func (s *YAML) Summaries(ctx context.Context) ([]Summary, error) {
	return s.mem.Summaries(ctx)
}

func (s *YAML) Close() error { return nil }

// flush writes the store to a temporary file and renames it over path.
func (s *YAML) flush(ctx context.Context) error {
	entries, _ := s.mem.List(ctx)
	summaries, _ := s.mem.Summaries(ctx)
	doc := yamlDocument{Mappings: entries, Summaries: summaries}

	data, err := yaml.MarshalWithOptions(doc, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return errors.WrapParse("yaml", s.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(s.path), err)
	}
	tmp := s.path + ".tmp-" + utc.Now().Format("20060102150405.000000000")
	if err := os.WriteFile(tmp, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapIO("rename", s.path, err)
	}
	return nil
}
