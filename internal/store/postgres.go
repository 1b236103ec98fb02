package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// PgxPool is the subset of *pgxpool.Pool the store needs, so tests can use pgxmock
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore keeps references in the reference_embeddings table.
// A single upsert statement replaces the row, so no extra locking is needed.
type PostgresStore struct {
	pool PgxPool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, userID string, embedding []float64) (string, error) {
	key, err := NormalizeKey(userID)
	if err != nil {
		return "", err
	}
	if len(embedding) == 0 {
		return "", fmt.Errorf("save %s: empty embedding", key)
	}

	query := `
		INSERT INTO reference_embeddings (user_id, embedding, dimension, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET embedding = EXCLUDED.embedding, dimension = EXCLUDED.dimension, updated_at = NOW()
	`

	floats := make([]float32, len(embedding))
	for i, v := range embedding {
		floats[i] = float32(v)
	}

	if _, err := s.pool.Exec(ctx, query, key, pgvector.NewVector(floats), len(embedding)); err != nil {
		return "", fmt.Errorf("save reference embedding: %w", err)
	}

	return "reference_embeddings/" + key, nil
}

func (s *PostgresStore) Load(ctx context.Context, userID string) ([]float64, error) {
	key, err := NormalizeKey(userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT embedding
		FROM reference_embeddings
		WHERE user_id = $1
	`

	var embedding *pgvector.Vector
	err = s.pool.QueryRow(ctx, query, key).Scan(&embedding)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load reference embedding: %w", err)
	}

	if embedding == nil || len(embedding.Slice()) == 0 {
		return nil, fmt.Errorf("%w: %s: empty vector", ErrCorrupt, key)
	}

	out := make([]float64, len(embedding.Slice()))
	for i, v := range embedding.Slice() {
		out[i] = float64(v)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID string) error {
	key, err := NormalizeKey(userID)
	if err != nil {
		return err
	}

	query := `
		DELETE FROM reference_embeddings
		WHERE user_id = $1
	`

	result, err := s.pool.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete reference embedding: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}
	return nil
}
