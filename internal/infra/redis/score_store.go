package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trivia-quiz/internal/domain"
)

const defaultUpdateRetries = 10

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// ScoreStore keeps the whole score list as one JSON document under a fixed key.
// Update uses WATCH/MULTI so concurrent writers never drop each other's records.
type ScoreStore struct {
	client  *redis.Client
	key     string
	retries int
}

func NewScoreStore(client *redis.Client, key string) *ScoreStore {
	if key == "" {
		key = "scores"
	}
	return &ScoreStore{client: client, key: key, retries: defaultUpdateRetries}
}

func (s *ScoreStore) Get(ctx context.Context) ([]domain.ScoreRecord, error) {
	return s.read(ctx, s.client)
}

func (s *ScoreStore) Set(ctx context.Context, records []domain.ScoreRecord) error {
	data, err := domain.EncodeScores(records)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", domain.ErrPersistence, s.key, err)
	}
	return nil
}

func (s *ScoreStore) Update(ctx context.Context, fn func([]domain.ScoreRecord) ([]domain.ScoreRecord, error)) error {
	txf := func(tx *redis.Tx) error {
		records, err := s.read(ctx, tx)
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
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < s.retries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			// another writer committed between our read and write; retry
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrCorruptScores) && !errors.Is(err, domain.ErrPersistence) {
			return fmt.Errorf("%w: update %s: %w", domain.ErrPersistence, s.key, err)
		}
		return err
	}
	return fmt.Errorf("%w: update %s: too much contention", domain.ErrPersistence, s.key)
}

func (s *ScoreStore) read(ctx context.Context, c getter) ([]domain.ScoreRecord, error) {
	raw, err := c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.ScoreRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", domain.ErrPersistence, s.key, err)
	}
	return domain.DecodeScores(raw)
}
