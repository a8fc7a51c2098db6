package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLiteMedium keeps every key in a single sqlite table. Each Write is its
// own transaction and WriteBatch commits several keys atomically.
type SQLiteMedium struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteMedium, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure database dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteMedium{db: db, path: path}, nil
}

// Close closes the database connection.
func (m *SQLiteMedium) Close() error {
	return m.db.Close()
}

// Path returns the database file location.
func (m *SQLiteMedium) Path() string {
	return m.path
}

func (m *SQLiteMedium) Read(key string) ([]byte, error) {
	var val []byte
	err := m.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", key, err)
	}
	return val, nil
}

func (m *SQLiteMedium) Write(key string, val []byte) error {
	return m.WriteBatch(map[string][]byte{key: val})
}

func (m *SQLiteMedium) WriteBatch(vals map[string][]byte) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	now := time.Now().UTC()
	for key, val := range vals {
		if err := validKey(key); err != nil {
			_ = tx.Rollback()
			return err
		}
		if val == nil {
			val = []byte{}
		}
		_, err := tx.Exec(
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, val, now,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (m *SQLiteMedium) Remove(key string) error {
	if _, err := m.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (m *SQLiteMedium) Keys(ctx context.Context, prefix string) []string {
	rows, err := m.db.QueryContext(ctx,
		"SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key", len(prefix), prefix)
	if err != nil {
		log.WithError(err).Warn("store: list keys")
		return nil
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			log.WithError(err).Warn("store: scan key")
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
