package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/checksum"
	"github.com/starford/navkit/internal/state"
)

const kvSchemaSQL = `
CREATE TABLE IF NOT EXISTS navigation_kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DefaultStateKey is the row key the snapshot is stored under.
const DefaultStateKey = "navigation.state"

// SQLite is a key-value store adapter: one row per snapshot key.
type SQLite struct {
	conn *sql.DB
	key  string
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(kvSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn, key: DefaultStateKey}, nil
}

// WithKey returns a store sharing the connection but using another row key,
// e.g. one snapshot per user profile.
func (db *SQLite) WithKey(key string) *SQLite {
	return &SQLite{conn: db.conn, key: key}
}

// Close closes the underlying database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}

func (db *SQLite) Save(ctx context.Context, s *state.NavigationState) error {
	doc, err := state.Encode(s)
	if err != nil {
		return err
	}
	sum := checksum.Sum(doc)
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO navigation_kv (key, value, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, db.key, doc, sum, time.Now().UTC())
	if err != nil {
		return apperr.PersistenceFailed("upsert", err)
	}
	return nil
}

func (db *SQLite) Restore(ctx context.Context) (*state.NavigationState, error) {
	var (
		doc []byte
		sum string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT value, checksum FROM navigation_kv WHERE key = ?`, db.key).Scan(&doc, &sum)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.PersistenceFailed("select", err)
	}
	return verify(doc, sum)
}

func (db *SQLite) Clear(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM navigation_kv WHERE key = ?`, db.key); err != nil {
		return apperr.PersistenceFailed("delete", err)
	}
	return nil
}

// Keys lists the snapshot keys currently stored.
func (db *SQLite) Keys(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT key FROM navigation_kv ORDER BY key`)
	if err != nil {
		return nil, apperr.PersistenceFailed("list keys", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
