package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore persists a blob in the blobs table under a fixed namespace.
// The table is created by the embedded migrations.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
}

// NewSQLiteStore creates an SQLite-backed blob store.
//
// Parameters:
//   - db: An open database with migrations applied
//   - namespace: Row key, e.g. "sched"
func NewSQLiteStore(db *sql.DB, namespace string) *SQLiteStore {
	return &SQLiteStore{db: db, namespace: namespace}
}

// Save upserts the blob.
func (s *SQLiteStore) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (namespace, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.namespace, data, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving blob %q: %w", s.namespace, err)
	}
	return nil
}

// Load returns the saved blob, or ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM blobs WHERE namespace = ?", s.namespace).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading blob %q: %w", s.namespace, err)
	}
	return data, nil
}

// Wipe deletes the blob. Wiping a missing blob is not an error.
func (s *SQLiteStore) Wipe(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE namespace = ?", s.namespace); err != nil {
		return fmt.Errorf("wiping blob %q: %w", s.namespace, err)
	}
	return nil
}
