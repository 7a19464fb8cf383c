// Package store provides database access for the alarm pipeline.
//
// # Design
//
// The store uses raw SQL with pgx. Alarm payloads live in two JSONB
// tables: active_alarms holds the current standing alarms keyed by
// alarm_id, and alarm_history holds cleared alarms. Correlation context
// and the operator listings query the JSONB payloads directly, so the
// schema never needs a column per alarm field.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corenet-ops/nsp-faultmon/pkg/types"
)

// DB is the subset of pgxpool.Pool the store depends on. pgxmock's pool
// implements the same subset, which lets tests exercise the store
// without a live database.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Stat() *pgxpool.Stat
	Close()
}

// Store provides database operations.
type Store struct {
	db DB
}

// NewStore creates a new store on top of an existing connection pool.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// NewStoreFromURL creates a new store by connecting to the given database URL.
func NewStoreFromURL(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &Store{db: pool}, nil
}

// Close closes the database connection pool.
func (s *Store) Close() {
	s.db.Close()
}

// Ping tests database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetPoolStats returns the current connection pool statistics.
func (s *Store) GetPoolStats() types.PoolStats {
	stat := s.db.Stat()
	return types.PoolStats{
		TotalConnections:    stat.TotalConns(),
		IdleConnections:     stat.IdleConns(),
		AcquiredConnections: stat.AcquiredConns(),
		MaxConnections:      stat.MaxConns(),
	}
}
