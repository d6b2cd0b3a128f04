package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the pure-Go "sqlite" driver with database/sql. No CGo needed.
	_ "modernc.org/sqlite"
)

// SQLite keeps blobs in a single key/value table.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/pantry.db" → file-based database
//   - ":memory:"       → in-memory database, used by tests
func NewSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		dbPath = "data/pantry.db"
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database, so the pool is pinned to one connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &SQLite{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

func (db *SQLite) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS state (
			key        TEXT PRIMARY KEY,
			payload    BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating state table: %w", err)
	}
	return nil
}

func (db *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT payload FROM state WHERE key = ?`, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: reading %s: %w", key, err)
	}
	return payload, nil
}

func (db *SQLite) Put(ctx context.Context, key string, data []byte) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO state (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing %s: %w", key, err)
	}
	return nil
}

// Close closes the connection pool.
func (db *SQLite) Close() error {
	return db.conn.Close()
}
