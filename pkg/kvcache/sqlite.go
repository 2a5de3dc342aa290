package kvcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wp-poweranalytics/power-analytics/pkg/sqliteutil"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at INTEGER NOT NULL
)`

// SQLite stores entries in a single table so that every short-lived process
// on one host sees the same dedup flags and session records.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

type SQLiteOpt func(*SQLite)

// WithClock replaces time.Now when computing and checking expiry.
func WithClock(now func() time.Time) SQLiteOpt {
	return func(s *SQLite) {
		s.now = now
	}
}

func OpenSQLite(path string, opts ...SQLiteOpt) (*SQLite, error) {
	db, err := sqliteutil.OpenDB(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	s := &SQLite{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, s.now().UnixMilli(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	now := s.now()

	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixMilli()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at != 0 AND expires_at <= ?`, now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("prune expired entries: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
