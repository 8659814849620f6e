package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/example/equipment-rental/internal/persistence"
)

const driverName = "sqlite"

const createStateTable = `CREATE TABLE IF NOT EXISTS state (
	bucket TEXT PRIMARY KEY,
	payload BLOB NOT NULL
)`

const upsertState = `INSERT INTO state(bucket, payload) VALUES(?, ?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`

// Storage keeps every collection as one row of the state table.
type Storage struct {
	pool *ConnectionPool
}

var (
	_ persistence.Backend     = (*Storage)(nil)
	_ persistence.BatchWriter = (*Storage)(nil)
)

// Open opens the database file at path and ensures the state table exists.
func Open(ctx context.Context, path string) (*Storage, error) {
	pool, err := OpenPool(path)
	if err != nil {
		return nil, err
	}
	storage, err := New(ctx, pool)
	if err != nil {
		_ = pool.Close()
		return nil, err
	}
	return storage, nil
}

// New wraps an open pool and ensures the state table exists.
func New(ctx context.Context, pool *ConnectionPool) (*Storage, error) {
	if _, err := pool.DB().ExecContext(ctx, createStateTable); err != nil {
		return nil, fmt.Errorf("create state table: %w", mapError(err))
	}
	return &Storage{pool: pool}, nil
}

func (s *Storage) Driver() string { return driverName }

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Read returns the payload stored for key.
func (s *Storage) Read(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.pool.DB().QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, mapError(err))
	}
	return payload, nil
}

// Write upserts the payload for key in its own transaction.
func (s *Storage) Write(ctx context.Context, key string, payload []byte) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertState, key, payload); err != nil {
			return fmt.Errorf("upsert %s: %w", key, err)
		}
		return nil
	})
}

// WriteBatch upserts several keys in one transaction.
func (s *Storage) WriteBatch(ctx context.Context, payloads map[string][]byte) error {
	keys := make([]string, 0, len(payloads))
	for key := range payloads {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, upsertState, key, payloads[key]); err != nil {
				return fmt.Errorf("upsert %s: %w", key, err)
			}
		}
		return nil
	})
}

// Delete removes key. Missing keys are ignored.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.DB().ExecContext(ctx, `DELETE FROM state WHERE bucket = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, mapError(err))
	}
	return nil
}
