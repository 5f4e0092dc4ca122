// Package storage implements tasks.Persister backends. Every backend keeps
// the whole task list as one JSON blob under a single key.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"taskly/internal/tasks"
)

// DefaultKey is the well-known key the task list is stored under.
const DefaultKey = "tasks"

// ErrMalformed marks stored data that could not be decoded. Load returns
// an empty list alongside it.
var ErrMalformed = errors.New("stored tasks are malformed")

// Store persists the task blob in a sqlite key/value table.
type Store struct {
	db  *sql.DB
	key string
}

func Open(dbPath, key string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if key == "" {
		key = DefaultKey
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, key: key}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *Store) Load(ctx context.Context) ([]tasks.Task, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?;`, s.key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return []tasks.Task{}, nil
	}
	if err != nil {
		return []tasks.Task{}, fmt.Errorf("reading %q: %w", s.key, err)
	}
	return decode(s.key, []byte(blob))
}

// Save replaces the stored blob inside one transaction.
func (s *Store) Save(ctx context.Context, list []tasks.Task) error {
	data, err := tasks.Encode(list)
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value;`,
		s.key, string(data))
	if err != nil {
		return fmt.Errorf("writing %q: %w", s.key, err)
	}
	return tx.Commit()
}

func decode(key string, data []byte) ([]tasks.Task, error) {
	list, err := tasks.Decode(data)
	if err != nil {
		return []tasks.Task{}, fmt.Errorf("%w: key %q: %v", ErrMalformed, key, err)
	}
	return list, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
