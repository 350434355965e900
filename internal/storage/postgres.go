package storage

import (
	"context"
	"fmt"

	"artshift/internal/infra"
	"artshift/internal/sqlinline"
)

// PostgresStore keeps values in the kv_entries table. Queries go through an
// infra.SQLExecutor so every statement carries its audit marker.
type PostgresStore struct {
	sql infra.SQLExecutor
}

func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

// EnsureSchema creates the backing table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.sql == nil {
		return errNoStore
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QEnsureKVTable); err != nil {
		return fmt.Errorf("storage: ensure kv table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.sql == nil {
		return nil, false, errNoStore
	}
	var value []byte
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectKV, key).Scan(&value); err != nil {
		if infra.IsNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("storage: select %q: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	if s == nil || s.sql == nil {
		return errNoStore
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertKV, key, value); err != nil {
		return fmt.Errorf("storage: upsert %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.sql == nil {
		return errNoStore
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QDeleteKV, key); err != nil {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}

var _ KV = (*PostgresStore)(nil)
