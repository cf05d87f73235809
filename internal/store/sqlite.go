package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agentstation/utc"

	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/errors"
	"github.com/agentstation/sightline/pkg/inventory"
	"github.com/agentstation/sightline/pkg/logging"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS mappings (
	key TEXT PRIMARY KEY,
	file_name TEXT NOT NULL,
	name_column TEXT NOT NULL,
	date_column TEXT NOT NULL DEFAULT '',
	date_format TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mappings_file_name ON mappings(file_name);
CREATE TABLE IF NOT EXISTS file_summaries (
	position INTEGER PRIMARY KEY,
	file_name TEXT NOT NULL,
	total_lines INTEGER NOT NULL,
	unique_machines INTEGER NOT NULL,
	analyzed_at DATETIME NOT NULL
);
`

// SQLite stores mappings in a SQLite database.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", filepath.Dir(path), err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WrapResource("open", "sqlite", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.Debug().Err(err).Msg("Failed to set sqlite busy_timeout")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("migrate", "sqlite", path, err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Get(ctx context.Context, key string) (inventory.Mapping, error) {
	var m inventory.Mapping
	err := s.db.QueryRowContext(ctx,
		`SELECT name_column, date_column, date_format FROM mappings WHERE key = ?`, key).
		Scan(&m.NameColumn, &m.DateColumn, &m.DateFormat)
	if stderrors.Is(err, sql.ErrNoRows) {
		return inventory.Mapping{}, notFound(key)
	}
	if err != nil {
		return inventory.Mapping{}, errors.WrapResource("get", "mapping", key, err)
	}
	return m, nil
}

func (s *SQLite) Put(ctx context.Context, key string, m inventory.Mapping) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mappings (key, file_name, name_column, date_column, date_format, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name_column = excluded.name_column,
			date_column = excluded.date_column,
			date_format = excluded.date_format,
			updated_at = excluded.updated_at`,
		key, FileNameFromKey(key), m.NameColumn, m.DateColumn, m.DateFormat, time.Now().UTC())
	if err != nil {
		return errors.WrapResource("put", "mapping", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mappings WHERE key = ?`, key)
	if err != nil {
		return errors.WrapResource("delete", "mapping", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(key)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, file_name, name_column, date_column, date_format, updated_at
		FROM mappings ORDER BY file_name, key`)
	if err != nil {
		return nil, errors.WrapResource("list", "mapping", "", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			updatedAt time.Time
		)
		if err := rows.Scan(&e.Key, &e.FileName, &e.Mapping.NameColumn, &e.Mapping.DateColumn, &e.Mapping.DateFormat, &updatedAt); err != nil {
			return nil, errors.WrapResource("list", "mapping", "", err)
		}
		e.UpdatedAt = utc.Time{Time: updatedAt}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", "mapping", "", err)
	}
	return out, nil
}

func (s *SQLite) SaveSummaries(ctx context.Context, summaries []Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("save", "summaries", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM file_summaries`); err != nil {
		return errors.WrapResource("save", "summaries", "", err)
	}
	for i, sum := range summaries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO file_summaries (position, file_name, total_lines, unique_machines, analyzed_at) VALUES (?, ?, ?, ?, ?)`,
			i, sum.FileName, sum.TotalLines, sum.UniqueMachines, sum.AnalyzedAt.Time.UTC()); err != nil {
			return errors.WrapResource("save", "summaries", sum.FileName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapResource("save", "summaries", "", err)
	}
	return nil
}

func (s *SQLite) Summaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_name, total_lines, unique_machines, analyzed_at FROM file_summaries ORDER BY position`)
	if err != nil {
		return nil, errors.WrapResource("list", "summaries", "", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum        Summary
			analyzedAt time.Time
		)
		if err := rows.Scan(&sum.FileName, &sum.TotalLines, &sum.UniqueMachines, &analyzedAt); err != nil {
			return nil, errors.WrapResource("list", "summaries", "", err)
		}
		sum.AnalyzedAt = utc.Time{Time: analyzedAt}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
