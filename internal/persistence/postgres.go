package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" with database/sql
)

const defaultPostgresDSN = "postgres://localhost/pantry?sslmode=disable"

// Postgres keeps blobs in a key/value table. Payloads are BYTEA because a
// compressed record is not valid JSON.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects to dsn (falls back to a localhost default) and
// ensures the state table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: pinging: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS pantry_state (
		key        TEXT PRIMARY KEY,
		payload    BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ensuring state table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM pantry_state WHERE key = $1`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres: reading %s: %w", key, err)
	}
	return payload, nil
}

func (p *Postgres) Put(ctx context.Context, key string, data []byte) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO pantry_state (key, payload, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		key, data)
	if err != nil {
		return fmt.Errorf("postgres: writing %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }
