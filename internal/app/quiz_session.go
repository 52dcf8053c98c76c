package app

import (
	"context"
	"fmt"
	"html"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"trivia-quiz/internal/domain"
)

// optionsPerQuestion is the multiple choice width: three incorrect answers plus the correct one.
const optionsPerQuestion = 4

// State is the lifecycle stage of a quiz session.
type State int

const (
	StateLoading State = iota
	StateActive
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// TriviaSource supplies raw questions for a session.
type TriviaSource interface {
	FetchQuestions(ctx context.Context, req domain.QuestionRequest) ([]domain.RawQuestion, error)
}

// Notifier delivers answer feedback to the player. Implementations must not block.
type Notifier interface {
	Notify(fb domain.Feedback)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(fb domain.Feedback)

func (f NotifierFunc) Notify(fb domain.Feedback) { f(fb) }

type nopNotifier struct{}

func (nopNotifier) Notify(domain.Feedback) {}

// ShuffleFunc permutes n elements through swap, with the semantics of rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock overrides time.Now, for deterministic timestamps in tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithShuffle overrides the option shuffler.
func WithShuffle(shuffle ShuffleFunc) SessionOption {
	return func(s *Session) { s.shuffle = shuffle }
}

// WithNotifier sets the feedback notifier.
func WithNotifier(n Notifier) SessionOption {
	return func(s *Session) { s.notifier = n }
}

// Progress is the outcome of a single advance.
type Progress struct {
	Correct   bool `json:"correct"`
	Completed bool `json:"completed"`
}

// Result summarizes a completed session.
type Result struct {
	Score          float64 `json:"score"`
	ElapsedSeconds int64   `json:"elapsedSeconds"`
	CorrectCount   int     `json:"correctCount"`
	Total          int     `json:"total"`
}

// View is a read-only snapshot of the session for presentation.
type View struct {
	ID           string           `json:"id"`
	State        string           `json:"state"`
	Index        int              `json:"index"`
	Total        int              `json:"total"`
	Question     *domain.Question `json:"question,omitempty"`
	Selected     string           `json:"selected,omitempty"`
	CorrectCount int              `json:"correctCount"`
	Last         bool             `json:"last"`
}

// Session is one attempt at a quiz, from question load to completion.
type Session struct {
	id       string
	settings Settings
	now      func() time.Time
	shuffle  ShuffleFunc
	notifier Notifier

	mu           sync.Mutex
	state        State
	questions    []domain.Question
	current      int
	selected     string
	hasSelection bool
	correct      int
	startedAt    time.Time
	finishedAt   time.Time
}

// NewSession creates a session in the loading state.
func NewSession(id string, settings Settings, opts ...SessionOption) *Session {
	s := &Session{
		id:       id,
		settings: settings,
		now:      time.Now,
		shuffle:  rand.Shuffle,
		notifier: nopNotifier{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Settings() Settings { return s.settings }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load fetches and prepares the questions, then starts the timer.
// On failure the session stays in the loading state and is not usable.
func (s *Session) Load(ctx context.Context, source TriviaSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoading {
		return domain.ErrSessionNotLoading
	}

	raw, err := source.FetchQuestions(ctx, s.settings.request())
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLoadFailure, err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: %w", domain.ErrLoadFailure, domain.ErrNoQuestions)
	}

	questions := make([]domain.Question, 0, len(raw))
	for n, r := range raw {
		q, err := decodeQuestion(r)
		if err != nil {
			return fmt.Errorf("%w: item %d: %w", domain.ErrLoadFailure, n, err)
		}
		s.shuffle(len(q.Options), func(i, j int) {
			q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
		})
		questions = append(questions, q)
	}

	s.questions = questions
	s.current = 0
	s.correct = 0
	s.hasSelection = false
	s.selected = ""
	s.startedAt = s.now()
	s.state = StateActive
	return nil
}

func decodeQuestion(r domain.RawQuestion) (domain.Question, error) {
	prompt := html.UnescapeString(r.Question)
	correct := html.UnescapeString(r.CorrectAnswer)
	if prompt == "" || correct == "" {
		return domain.Question{}, fmt.Errorf("missing question or correct answer")
	}
	if len(r.IncorrectAnswers) != optionsPerQuestion-1 {
		return domain.Question{}, fmt.Errorf("expected %d incorrect answers, got %d", optionsPerQuestion-1, len(r.IncorrectAnswers))
	}

	options := make([]string, 0, optionsPerQuestion)
	for _, a := range r.IncorrectAnswers {
		decoded := html.UnescapeString(a)
		if decoded == correct {
			return domain.Question{}, fmt.Errorf("incorrect answer %q equals the correct answer", decoded)
		}
		options = append(options, decoded)
	}
	options = append(options, correct)

	return domain.Question{
		Prompt:        prompt,
		CorrectAnswer: correct,
		Options:       options,
	}, nil
}

// SelectAnswer marks option as the current choice. The last call before Advance wins.
func (s *Session) SelectAnswer(option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return domain.ErrSessionNotActive
	}
	if !s.questions[s.current].HasOption(option) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidOption, option)
	}
	s.selected = option
	s.hasSelection = true
	return nil
}

// Advance records the selected answer, emits feedback and moves to the next question,
// or completes the session on the last one.
func (s *Session) Advance() (Progress, error) {
	s.mu.Lock()

	if s.state != StateActive {
		s.mu.Unlock()
		return Progress{}, domain.ErrSessionNotActive
	}
	if !s.hasSelection {
		s.mu.Unlock()
		return Progress{}, domain.ErrNoSelection
	}

	correct := s.selected == s.questions[s.current].CorrectAnswer
	if correct {
		s.correct++
	}

	if s.current == len(s.questions)-1 {
		s.finishedAt = s.now()
		s.state = StateCompleted
	} else {
		s.current++
		s.selected = ""
		s.hasSelection = false
	}
	progress := Progress{Correct: correct, Completed: s.state == StateCompleted}
	notifier := s.notifier
	s.mu.Unlock()

	notifier.Notify(domain.NewFeedback(correct))
	return progress, nil
}

// Score returns the final score of a completed session.
func (s *Session) Score() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return 0, domain.ErrSessionNotCompleted
	}
	return ComputeScore(s.correct, len(s.questions), s.settings.Difficulty)
}

// Elapsed returns the time between load and the last answer.
func (s *Session) Elapsed() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return 0, domain.ErrSessionNotCompleted
	}
	return s.finishedAt.Sub(s.startedAt), nil
}

// Result returns the score and rounded elapsed seconds of a completed session.
func (s *Session) Result() (Result, error) {
	score, err := s.Score()
	if err != nil {
		return Result{}, err
	}
	elapsed, err := s.Elapsed()
	if err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Result{
		Score:          score,
		ElapsedSeconds: ElapsedSeconds(elapsed),
		CorrectCount:   s.correct,
		Total:          len(s.questions),
	}, nil
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:           s.id,
		State:        s.state.String(),
		Index:        s.current,
		Total:        len(s.questions),
		CorrectCount: s.correct,
	}
	if s.state == StateActive {
		q := s.questions[s.current]
		q.Options = append([]string(nil), q.Options...)
		v.Question = &q
		v.Selected = s.selected
		v.Last = s.current == len(s.questions)-1
	}
	return v
}

// ComputeScore is round(correct/total * 10 * multiplier, 2).
func ComputeScore(correct, total int, difficulty domain.Difficulty) (float64, error) {
	multiplier, err := difficulty.Multiplier()
	if err != nil {
		return 0, fmt.Errorf("%w %q", err, difficulty)
	}
	if total <= 0 {
		return 0, domain.ErrNoQuestions
	}
	return decimal.NewFromInt(int64(correct)).
		Mul(decimal.NewFromInt(10 * multiplier)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64(), nil
}

// ElapsedSeconds rounds d to whole seconds.
func ElapsedSeconds(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(math.Round(d.Seconds()))
}
