package memory

import (
	"context"
	"sync"

	"trivia-quiz/internal/domain"
)

// ScoreStore keeps the score document in process memory.
type ScoreStore struct {
	mu      sync.Mutex
	records []domain.ScoreRecord
}

func NewScoreStore(initial ...domain.ScoreRecord) *ScoreStore {
	return &ScoreStore{records: append([]domain.ScoreRecord(nil), initial...)}
}

func (s *ScoreStore) Get(_ context.Context) ([]domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

func (s *ScoreStore) Set(_ context.Context, records []domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]domain.ScoreRecord(nil), records...)
	return nil
}

func (s *ScoreStore) Update(_ context.Context, fn func([]domain.ScoreRecord) ([]domain.ScoreRecord, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.snapshotLocked())
	if err != nil {
		return err
	}
	s.records = append([]domain.ScoreRecord(nil), next...)
	return nil
}

func (s *ScoreStore) snapshotLocked() []domain.ScoreRecord {
	out := make([]domain.ScoreRecord, len(s.records))
	copy(out, s.records)
	return out
}
