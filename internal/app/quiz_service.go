package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trivia-quiz/internal/domain"
)

// SessionRepository abstracts where live quiz sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// CategoryRepository lists trivia categories (from cache/backing source).
type CategoryRepository interface {
	GetCategories(ctx context.Context) ([]domain.Category, error)
}

// Metrics receives quiz lifecycle signals.
type Metrics interface {
	SessionStarted()
	LoadFailed()
	AnswerRecorded(correct bool)
	SessionCompleted()
	ScoreSaved()
	SessionCancelled()
}

type nopMetrics struct{}

func (nopMetrics) SessionStarted()     {}
func (nopMetrics) LoadFailed()         {}
func (nopMetrics) AnswerRecorded(bool) {}
func (nopMetrics) SessionCompleted()   {}
func (nopMetrics) ScoreSaved()         {}
func (nopMetrics) SessionCancelled()   {}

type Config struct {
	Sessions   SessionRepository
	Source     TriviaSource
	Categories CategoryRepository
	Scores     ScoreStore
	Metrics    Metrics
	Logger     *slog.Logger
	// Clock and Shuffle are passed to every new session; nil keeps the defaults.
	Clock   func() time.Time
	Shuffle ShuffleFunc
}

// QuizService contains the quiz use cases, keyed by session id.
type QuizService struct {
	sessions   SessionRepository
	source     TriviaSource
	categories CategoryRepository
	scores     ScoreStore
	metrics    Metrics
	logger     *slog.Logger
	clock      func() time.Time
	shuffle    ShuffleFunc
}

func NewQuizService(c Config) *QuizService {
	s := &QuizService{
		sessions:   c.Sessions,
		source:     c.Source,
		categories: c.Categories,
		scores:     c.Scores,
		metrics:    c.Metrics,
		logger:     c.Logger,
		clock:      c.Clock,
		shuffle:    c.Shuffle,
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Start validates settings, loads questions and registers the new active session.
// Sessions that fail to load are never registered.
func (s *QuizService) Start(ctx context.Context, settings Settings, notifier Notifier) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	opts := []SessionOption{}
	if notifier != nil {
		opts = append(opts, WithNotifier(notifier))
	}
	if s.clock != nil {
		opts = append(opts, WithClock(s.clock))
	}
	if s.shuffle != nil {
		opts = append(opts, WithShuffle(s.shuffle))
	}
	session := NewSession(id.String(), settings, opts...)

	if err := session.Load(ctx, s.source); err != nil {
		s.metrics.LoadFailed()
		s.logger.ErrorContext(ctx, "quiz: load questions failed",
			"category", settings.Category,
			"difficulty", settings.Difficulty,
			"amount", settings.NumQuestions,
			"error", err,
		)
		return nil, err
	}

	s.sessions.Put(session)
	s.metrics.SessionStarted()
	s.logger.InfoContext(ctx, "quiz: session started",
		"session", session.ID(),
		"questions", session.View().Total,
	)
	return session, nil
}

// Session returns a live session by id.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// SelectAnswer records the player's current choice.
func (s *QuizService) SelectAnswer(_ context.Context, sessionID, option string) error {
	session, err := s.Session(sessionID)
	if err != nil {
		return err
	}
	return session.SelectAnswer(option)
}

// Advance commits the selected answer and moves the session forward.
func (s *QuizService) Advance(ctx context.Context, sessionID string) (Progress, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return Progress{}, err
	}

	progress, err := session.Advance()
	if err != nil {
		return Progress{}, err
	}

	s.metrics.AnswerRecorded(progress.Correct)
	if progress.Completed {
		s.metrics.SessionCompleted()
		s.logger.InfoContext(ctx, "quiz: session completed", "session", sessionID)
	}
	return progress, nil
}

// Submit saves the completed session under name and drops the session.
func (s *QuizService) Submit(ctx context.Context, sessionID, name string) (domain.ScoreRecord, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.ScoreRecord{}, err
	}

	entry, err := NewScoreEntry(session, s.scores, s.logger)
	if err != nil {
		return domain.ScoreRecord{}, err
	}

	record, err := entry.Submit(ctx, name)
	if err != nil {
		return domain.ScoreRecord{}, err
	}

	s.sessions.Delete(sessionID)
	s.metrics.ScoreSaved()
	s.logger.InfoContext(ctx, "quiz: score saved",
		"session", sessionID,
		"score", record.Score,
		"time", record.ElapsedSeconds,
	)
	return record, nil
}

// Cancel discards a session without saving. Unknown ids are ignored.
func (s *QuizService) Cancel(_ context.Context, sessionID string) {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return
	}
	s.sessions.Delete(sessionID)
	s.metrics.SessionCancelled()
}

// HighScores returns the stored scores ranked for display.
func (s *QuizService) HighScores(ctx context.Context) ([]domain.ScoreRecord, error) {
	records, err := s.scores.Get(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "quiz: read scores failed", "error", err)
		if errors.Is(err, domain.ErrPersistence) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return RankScores(records), nil
}

// Categories lists the categories a quiz can be started with.
func (s *QuizService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.GetCategories(ctx)
}
