// Package pgsql is a KeyValueStore backed by a PostgreSQL kv_store table.
package pgsql

import (
	"context"
	"errors"
	"fmt"

	portsrepo "github.com/SscSPs/stack_budget/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool the repository uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxKeyValueRepository stores each key as one row.
type PgxKeyValueRepository struct {
	db DBTX
}

// NewKeyValueRepository creates the repository over a pool or transaction.
func NewKeyValueRepository(db DBTX) *PgxKeyValueRepository {
	return &PgxKeyValueRepository{db: db}
}

// Ensure implementation matches interface
var _ portsrepo.KeyValueStore = (*PgxKeyValueRepository)(nil)

// Get retrieves a value by key.
func (r *PgxKeyValueRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM kv_store WHERE key = $1;`
	var value string
	err := r.db.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces a value.
func (r *PgxKeyValueRepository) Set(ctx context.Context, key string, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at;
	`
	if _, err := r.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}
