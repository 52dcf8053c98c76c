package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz/internal/domain"
)

// ScoreStore keeps the score list as one JSONB document row keyed by name.
// Update locks the row (SELECT ... FOR UPDATE) for the read-modify-write.
type ScoreStore struct {
	pool *pgxpool.Pool
	key  string
}

func NewScoreStore(pool *pgxpool.Pool, key string) *ScoreStore {
	if key == "" {
		key = "scores"
	}
	return &ScoreStore{pool: pool, key: key}
}

func (s *ScoreStore) Get(ctx context.Context) ([]domain.ScoreRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM score_documents WHERE key=$1`, s.key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []domain.ScoreRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load scores: %w", domain.ErrPersistence, err)
	}
	return domain.DecodeScores(raw)
}

func (s *ScoreStore) Set(ctx context.Context, records []domain.ScoreRecord) error {
	data, err := domain.EncodeScores(records)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	const stmt = `
INSERT INTO score_documents (key, data, updated_at) VALUES ($1, $2::jsonb, NOW())
ON CONFLICT (key) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`
	if _, err := s.pool.Exec(ctx, stmt, s.key, string(data)); err != nil {
		return fmt.Errorf("%w: store scores: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *ScoreStore) Update(ctx context.Context, fn func([]domain.ScoreRecord) ([]domain.ScoreRecord, error)) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", domain.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback(ctx))
		}
	}()

	const (
		ensureStmt = `INSERT INTO score_documents (key) VALUES ($1) ON CONFLICT (key) DO NOTHING`
		lockStmt   = `SELECT data FROM score_documents WHERE key=$1 FOR UPDATE`
		writeStmt  = `UPDATE score_documents SET data=$2::jsonb, updated_at=NOW() WHERE key=$1`
	)

	if _, err = tx.Exec(ctx, ensureStmt, s.key); err != nil {
		return fmt.Errorf("%w: ensure document: %w", domain.ErrPersistence, err)
	}

	var raw []byte
	if err = tx.QueryRow(ctx, lockStmt, s.key).Scan(&raw); err != nil {
		return fmt.Errorf("%w: lock document: %w", domain.ErrPersistence, err)
	}

	records, err := domain.DecodeScores(raw)
	if err != nil {
		return err
	}

	next, err := fn(records)
	if err != nil {
		return err
	}

	data, err := domain.EncodeScores(next)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}

	if _, err = tx.Exec(ctx, writeStmt, s.key, string(data)); err != nil {
		return fmt.Errorf("%w: write document: %w", domain.ErrPersistence, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrPersistence, err)
	}
	return nil
}
