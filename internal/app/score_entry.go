package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"trivia-quiz/internal/domain"
)

// ScoreStore persists the score list as a single document.
type ScoreStore interface {
	// Get returns the whole list, or an empty list when nothing is stored.
	Get(ctx context.Context) ([]domain.ScoreRecord, error)
	// Set replaces the whole list.
	Set(ctx context.Context, records []domain.ScoreRecord) error
	// Update applies fn to the stored list and writes the result back atomically
	// with respect to other Update calls on the same store.
	Update(ctx context.Context, fn func([]domain.ScoreRecord) ([]domain.ScoreRecord, error)) error
}

// ScoreEntry captures the player name for a completed session and saves the result.
type ScoreEntry struct {
	session *Session
	store   ScoreStore
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewScoreEntry opens the name-capture step for a completed session.
func NewScoreEntry(session *Session, store ScoreStore, logger *slog.Logger) (*ScoreEntry, error) {
	if session.State() != StateCompleted {
		return nil, domain.ErrSessionNotCompleted
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreEntry{session: session, store: store, logger: logger}, nil
}

// Submit validates name and appends the session result to the store.
// The entry closes only after the write succeeds, so a failed submit may be retried.
func (e *ScoreEntry) Submit(ctx context.Context, name string) (domain.ScoreRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.ScoreRecord{}, domain.ErrEntryClosed
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.ScoreRecord{}, domain.ErrValidation
	}

	result, err := e.session.Result()
	if err != nil {
		return domain.ScoreRecord{}, err
	}

	record := domain.ScoreRecord{
		Name:           trimmed,
		Score:          result.Score,
		ElapsedSeconds: result.ElapsedSeconds,
	}

	err = e.store.Update(ctx, func(records []domain.ScoreRecord) ([]domain.ScoreRecord, error) {
		return append(records, record), nil
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "score entry: save score failed",
			"session", e.session.ID(),
			"error", err,
		)
		if errors.Is(err, domain.ErrPersistence) {
			return domain.ScoreRecord{}, err
		}
		return domain.ScoreRecord{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	e.closed = true
	return record, nil
}

// Cancel discards the result without writing anything.
func (e *ScoreEntry) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

// RankScores returns a copy of records ordered by score descending, then by time ascending.
func RankScores(records []domain.ScoreRecord) []domain.ScoreRecord {
	ranked := append([]domain.ScoreRecord(nil), records...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ElapsedSeconds < ranked[j].ElapsedSeconds
	})
	return ranked
}
