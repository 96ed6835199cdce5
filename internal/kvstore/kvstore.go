// Package kvstore persists JSON values under string keys in a SQLite file.
//
// It is the only layer that touches the database. Read failures fall back
// to the caller's default and write failures report false; both are logged,
// neither is propagated.
package kvstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

type Store struct {
	db     *sql.DB
	logger *log.Logger
}

func Open(dbPath string, logger *log.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
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

// Get unmarshals the value stored under key into out and reports whether it
// did. On a missing key, unreadable row, or malformed document the caller's
// out is left untouched so its default survives.
func (s *Store) Get(key string, out any) bool {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?;`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		s.logger.Error("read failed", "key", key, "err", err)
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Error("stored value is malformed", "key", key, "err", err)
		return false
	}
	return true
}

// GetRaw returns the stored document without decoding it, for callers that
// validate the payload themselves.
func (s *Store) GetRaw(key string) ([]byte, bool) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?;`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.Error("read failed", "key", key, "err", err)
		return nil, false
	}
	return []byte(raw), true
}

// Set marshals v and stores it under key, reporting success.
func (s *Store) Set(key string, v any) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("marshal failed", "key", key, "err", err)
		return false
	}
	_, err = s.db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, key, string(raw))
	if err != nil {
		s.logger.Error("write failed", "key", key, "err", err)
		return false
	}
	return true
}

// Remove deletes the value stored under key, reporting success. Removing a
// key that was never set succeeds.
func (s *Store) Remove(key string) bool {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?;`, key)
	if err != nil {
		s.logger.Error("remove failed", "key", key, "err", err)
		return false
	}
	return true
}

// DataVersion reports SQLite's data_version for this connection. The value
// changes only when a different connection writes the database, which makes
// it a cheap signal that another process touched the file.
func (s *Store) DataVersion() int64 {
	var v int64
	if err := s.db.QueryRow(`PRAGMA data_version;`).Scan(&v); err != nil {
		s.logger.Error("data_version failed", "err", err)
		return 0
	}
	return v
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
