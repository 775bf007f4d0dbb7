package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversation histories in PostgreSQL, one row per
// (origin, conversation id) holding the serialized turn array.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_histories (
			origin TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			history JSONB NOT NULL DEFAULT '[]',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (origin, conversation_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_histories_updated ON conversation_histories (updated_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, origin, conversationID string) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT history FROM conversation_histories WHERE origin=$1 AND conversation_id=$2`,
		origin, conversationID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return raw, nil
}

func (s *PostgresStore) Replace(ctx context.Context, origin, conversationID string, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_histories (origin, conversation_id, history, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (origin, conversation_id)
		 DO UPDATE SET history = EXCLUDED.history, updated_at = EXCLUDED.updated_at`,
		origin, conversationID, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
