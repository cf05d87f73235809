// Package store persists column mappings between runs, keyed by file name
// and content hash, together with summaries of the files last analyzed.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentstation/utc"

	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/reconcile"
)

// Kind names a store backend.
type Kind string

const (
	KindYAML   Kind = "yaml"
	KindSQLite Kind = "sqlite"
	KindMemory Kind = "memory"
	KindNone   Kind = "none"
)

// Entry is one stored mapping.
type Entry struct {
	Key       string            `json:"key" yaml:"key"`
	FileName  string            `json:"file_name" yaml:"file_name"`
	Mapping   inventory.Mapping `json:"mapping" yaml:"mapping"`
	UpdatedAt utc.Time          `json:"updated_at" yaml:"updated_at"`
}

// Summary describes one file of the last analysis.
type Summary struct {
	FileName       string   `json:"file_name" yaml:"file_name"`
	TotalLines     int      `json:"total_lines" yaml:"total_lines"`
	UniqueMachines int      `json:"unique_machines" yaml:"unique_machines"`
	AnalyzedAt     utc.Time `json:"analyzed_at" yaml:"analyzed_at"`
}

// Store is a mapping store.
type Store interface {
	// Get returns the mapping stored under key or a NotFoundError.
	Get(ctx context.Context, key string) (inventory.Mapping, error)
	// Put stores a mapping, replacing any previous one.
	Put(ctx context.Context, key string, m inventory.Mapping) error
	// Delete removes a mapping or returns a NotFoundError.
	Delete(ctx context.Context, key string) error
	// List returns every entry ordered by file name, then key.
	List(ctx context.Context) ([]Entry, error)
	// SaveSummaries replaces the stored summaries.
	SaveSummaries(ctx context.Context, summaries []Summary) error
	// Summaries returns the stored summaries in saved order.
	Summaries(ctx context.Context) ([]Summary, error)
	// Close releases the store.
	Close() error
}

// Key derives the lookup key of a file: its name and the SHA-256 of its
// exact content, so a changed file never inherits a stale mapping.
func Key(fileName string, content []byte) string {
	sum := sha256.Sum256(content)
	return fileName + ":" + hex.EncodeToString(sum[:])
}

// FileNameFromKey returns the file name part of a key.
func FileNameFromKey(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[:i]
	}
	return key
}

// Open opens a store of the given kind at path. An empty path uses the
// default file under the user's home directory.
func Open(kind Kind, path string) (Store, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindYAML, "":
		if path == "" {
			path = DefaultPath(KindYAML)
		}
		return OpenYAML(path)
	case KindSQLite:
		if path == "" {
			path = DefaultPath(KindSQLite)
		}
		return OpenSQLite(path)
	case KindMemory, KindNone:
		return NewMemory(), nil
	default:
		return nil, errors.NewValidationError("store", string(kind), "must be one of yaml, sqlite, memory, none")
	}
}

// DefaultPath returns the default file for a backend.
func DefaultPath(kind Kind) string {
	file := constants.DefaultYAMLStoreFile
	if kind == KindSQLite {
		file = constants.DefaultSQLiteStoreFile
	}
	return filepath.Join(storeDir(), file)
}

func storeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return constants.DefaultStoreDir
	}
	return filepath.Join(home, constants.DefaultStoreDir)
}

// SummariesFromResult builds file summaries from a run.
func SummariesFromResult(result *reconcile.Result) []Summary {
	out := make([]Summary, 0, len(result.Files))
	for _, f := range result.Files {
		out = append(out, Summary{
			FileName:       f.SourceFile,
			TotalLines:     f.RowCount,
			UniqueMachines: len(inventory.UniqueNames(f.Records)),
			AnalyzedAt:     result.GeneratedAt,
		})
	}
	return out
}

// Resolve looks up the mapping of every source by its content key and
// applies it when the source has none. It returns the number of mappings
// restored.
func Resolve(ctx context.Context, s Store, sources []*inventory.Source, contents map[string][]byte) (int, error) {
	n := 0
	for _, src := range sources {
		if src.Configured() {
			continue
		}
		content, ok := contents[src.FileName]
		if !ok {
			continue
		}
		m, err := s.Get(ctx, Key(src.FileName, content))
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return n, err
		}
		src.Mapping = m
		n++
	}
	return n, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].FileName != entries[j].FileName {
			return entries[i].FileName < entries[j].FileName
		}
		return entries[i].Key < entries[j].Key
	})
}

func notFound(key string) error {
	return errors.NewNotFoundError("mapping", key)
}
