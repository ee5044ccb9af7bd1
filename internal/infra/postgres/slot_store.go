package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// SlotStore keeps each slot as one JSONB row in kv_slots; writes upsert the
// whole value.
type SlotStore struct {
	pool *pgxpool.Pool
}

func NewSlotStore(pool *pgxpool.Pool) *SlotStore {
	return &SlotStore{pool: pool}
}

func (s *SlotStore) Read(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT value::text FROM kv_slots WHERE key=$1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", key, err)
	}
	return raw, nil
}

func (s *SlotStore) Write(ctx context.Context, key string, value []byte) error {
	const stmt = `
INSERT INTO kv_slots (key, value, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := s.pool.Exec(ctx, stmt, key, string(value)); err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}
