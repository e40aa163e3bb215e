package storage

import (
	"context"
	"database/sql"
	"errors"

	"meal-planner/internal/apperr"
)

// SQLiteStore keeps values in the kv_entries table created by the database migrations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore initializes the store with an existing, migrated database connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Storage(err, "read", key)
	}
	return true, decode(key, []byte(value), dest)
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data))
	if err != nil {
		return apperr.Storage(err, "write", key)
	}
	return nil
}
