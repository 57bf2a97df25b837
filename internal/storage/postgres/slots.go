package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/names-to-faces/internal/storage"
)

var _ storage.Backend = (*Store)(nil)

// Store provides PostgreSQL-backed slot and secret storage
type Store struct {
	pool *Pool
}

// NewStore creates a store on an already migrated pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Get returns the slot data, or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, slot string) ([]byte, error) {
	var data []byte
	err := s.pool.db.QueryRowContext(ctx, "SELECT data FROM slots WHERE name = $1", slot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %s: %w", slot, err)
	}
	return data, nil
}

// Put upserts the slot data.
func (s *Store) Put(ctx context.Context, slot string, data []byte) error {
	query := `
		INSERT INTO slots (name, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.pool.db.ExecContext(ctx, query, slot, data); err != nil {
		return fmt.Errorf("put slot %s: %w", slot, err)
	}
	return nil
}

// GetSecret returns the secret, or storage.ErrNotFound.
func (s *Store) GetSecret(ctx context.Context, name string) (string, error) {
	var value string
	err := s.pool.db.QueryRowContext(ctx, "SELECT value FROM secrets WHERE name = $1", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	return value, nil
}

// SetSecret upserts the secret.
func (s *Store) SetSecret(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO secrets (name, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.pool.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("set secret %s: %w", name, err)
	}
	return nil
}

// DeleteSecret removes the secret.
func (s *Store) DeleteSecret(ctx context.Context, name string) error {
	if _, err := s.pool.db.ExecContext(ctx, "DELETE FROM secrets WHERE name = $1", name); err != nil {
		return fmt.Errorf("delete secret %s: %w", name, err)
	}
	return nil
}
