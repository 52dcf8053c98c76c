package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
	"trivia-quiz/internal/infra/memory"
)

func TestComputeScore(t *testing.T) {
	multipliers := map[domain.Difficulty]float64{
		domain.DifficultyEasy:   1,
		domain.DifficultyMedium: 2,
		domain.DifficultyHard:   3,
	}

	for difficulty, multiplier := range multipliers {
		for total := 1; total <= app.MaxQuestions; total++ {
			for correct := 0; correct <= total; correct++ {
				got, err := app.ComputeScore(correct, total, difficulty)
				require.NoError(t, err)

				// scaled by 100 so the comparison is on whole hundredths
				want := float64(correct) * 10 * multiplier * 100 / float64(total)
				require.InDelta(t, roundHalfUp(want)/100, got, 1e-9,
					"correct=%d total=%d difficulty=%s", correct, total, difficulty)
			}
		}
	}
}

func TestComputeScoreExamples(t *testing.T) {
	tests := map[string]struct {
		correct, total int
		difficulty     domain.Difficulty
		want           float64
	}{
		"two of three medium":   {2, 3, domain.DifficultyMedium, 13.33},
		"one of three easy":     {1, 3, domain.DifficultyEasy, 3.33},
		"two of three hard":     {2, 3, domain.DifficultyHard, 20},
		"one of sixteen easy":   {1, 16, domain.DifficultyEasy, 0.63},
		"all of twenty hard":    {20, 20, domain.DifficultyHard, 30},
		"none of five medium":   {0, 5, domain.DifficultyMedium, 0},
		"seven of twelve hard":  {7, 12, domain.DifficultyHard, 17.5},
		"five of seven medium":  {5, 7, domain.DifficultyMedium, 14.29},
		"eleven of nineteen ez": {11, 19, domain.DifficultyEasy, 5.79},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := app.ComputeScore(tt.correct, tt.total, tt.difficulty)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestComputeScoreRejectsUnknownDifficulty(t *testing.T) {
	_, err := app.ComputeScore(1, 2, "extreme")
	require.ErrorIs(t, err, domain.ErrInvalidDifficulty)

	_, err = app.ComputeScore(0, 0, domain.DifficultyEasy)
	require.ErrorIs(t, err, domain.ErrNoQuestions)
}

func TestSessionScenarioTwoOfThreeMedium(t *testing.T) {
	clock := newFakeClock()
	var feedback []domain.Feedback
	session := app.NewSession("s-1", settings(domain.DifficultyMedium, 3),
		app.WithClock(clock.Now),
		app.WithShuffle(noShuffle),
		app.WithNotifier(app.NotifierFunc(func(fb domain.Feedback) {
			feedback = append(feedback, fb)
		})),
	)
	require.Equal(t, app.StateLoading, session.State())

	require.NoError(t, session.Load(context.Background(), sourceWith(3)))
	require.Equal(t, app.StateActive, session.State())

	answers := []string{"correct 0", "wrong 1a", "correct 2"}
	for i, answer := range answers {
		view := session.View()
		require.Equal(t, i, view.Index)
		require.Equal(t, i == len(answers)-1, view.Last)

		require.NoError(t, session.SelectAnswer(answer))
		clock.Advance(4 * time.Second)

		progress, err := session.Advance()
		require.NoError(t, err)
		require.Equal(t, answer[:7] == "correct", progress.Correct)
		require.Equal(t, i == len(answers)-1, progress.Completed)
	}

	require.Equal(t, app.StateCompleted, session.State())
	score, err := session.Score()
	require.NoError(t, err)
	require.Equal(t, 13.33, score)

	result, err := session.Result()
	require.NoError(t, err)
	require.Equal(t, app.Result{Score: 13.33, ElapsedSeconds: 12, CorrectCount: 2, Total: 3}, result)

	require.Equal(t, []domain.Feedback{
		domain.NewFeedback(true),
		domain.NewFeedback(false),
		domain.NewFeedback(true),
	}, feedback)
}

func TestSessionFinishedAtIsFrozen(t *testing.T) {
	clock := newFakeClock()
	session := loadedSession(t, 1, app.WithClock(clock.Now))

	clock.Advance(1500 * time.Millisecond)
	require.NoError(t, session.SelectAnswer("correct 0"))
	_, err := session.Advance()
	require.NoError(t, err)

	clock.Advance(time.Hour)
	elapsed, err := session.Elapsed()
	require.NoError(t, err)
	require.Equal(t, 1500*time.Millisecond, elapsed)

	_, err = session.Advance()
	require.ErrorIs(t, err, domain.ErrSessionNotActive)
	require.ErrorIs(t, session.SelectAnswer("correct 0"), domain.ErrSessionNotActive)
}

func TestSessionCorrectCountNeverExceedsAdvances(t *testing.T) {
	session := loadedSession(t, 5)

	advances := 0
	last := 0
	for session.State() == app.StateActive {
		view := session.View()
		// alternate correct (last slot without shuffle) and wrong answers
		option := view.Question.Options[0]
		if advances%2 == 0 {
			option = view.Question.Options[3]
		}
		require.NoError(t, session.SelectAnswer(option))
		_, err := session.Advance()
		require.NoError(t, err)
		advances++

		count := session.View().CorrectCount
		require.LessOrEqual(t, count, advances)
		require.GreaterOrEqual(t, count, last)
		last = count
	}
	require.Equal(t, 5, advances)
	require.Equal(t, 3, last)
}

func TestSessionSelectAnswer(t *testing.T) {
	session := loadedSession(t, 2)

	err := session.SelectAnswer("not an option")
	require.ErrorIs(t, err, domain.ErrInvalidOption)

	_, err = session.Advance()
	require.ErrorIs(t, err, domain.ErrNoSelection, "advance requires a selection")

	require.NoError(t, session.SelectAnswer("wrong 0a"))
	require.NoError(t, session.SelectAnswer("correct 0"))
	require.Equal(t, "correct 0", session.View().Selected)

	progress, err := session.Advance()
	require.NoError(t, err)
	require.True(t, progress.Correct, "last selection wins")
	require.Empty(t, session.View().Selected, "selection is cleared after advancing")
}

func TestSessionScoreRequiresCompletion(t *testing.T) {
	session := loadedSession(t, 2)
	_, err := session.Score()
	require.ErrorIs(t, err, domain.ErrSessionNotCompleted)
	_, err = session.Result()
	require.ErrorIs(t, err, domain.ErrSessionNotCompleted)
}

func TestSessionLoadFailures(t *testing.T) {
	tests := map[string]struct {
		source  app.TriviaSource
		wantErr error
	}{
		"zero questions": {
			source:  &memory.StaticTriviaSource{},
			wantErr: domain.ErrNoQuestions,
		},
		"source error": {
			source:  &memory.StaticTriviaSource{Err: errors.New("connection refused")},
			wantErr: domain.ErrLoadFailure,
		},
		"wrong number of incorrect answers": {
			source: &memory.StaticTriviaSource{Questions: []domain.RawQuestion{
				{Question: "q", CorrectAnswer: "a", IncorrectAnswers: []string{"b", "c"}},
			}},
			wantErr: domain.ErrLoadFailure,
		},
		"duplicate of correct answer": {
			source: &memory.StaticTriviaSource{Questions: []domain.RawQuestion{
				{Question: "q", CorrectAnswer: "a&amp;b", IncorrectAnswers: []string{"a&b", "c", "d"}},
			}},
			wantErr: domain.ErrLoadFailure,
		},
		"empty prompt": {
			source: &memory.StaticTriviaSource{Questions: []domain.RawQuestion{
				{Question: "", CorrectAnswer: "a", IncorrectAnswers: []string{"b", "c", "d"}},
			}},
			wantErr: domain.ErrLoadFailure,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			session := app.NewSession("s-1", settings(domain.DifficultyEasy, 5))

			err := session.Load(context.Background(), tt.source)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, domain.ErrLoadFailure)
			require.Equal(t, app.StateLoading, session.State(), "session must never become active")
			require.ErrorIs(t, session.SelectAnswer("a"), domain.ErrSessionNotActive)
		})
	}
}

func TestSessionLoadAcceptsFewerQuestions(t *testing.T) {
	session := app.NewSession("s-1", settings(domain.DifficultyEasy, 10))
	require.NoError(t, session.Load(context.Background(), sourceWith(3)))
	require.Equal(t, 3, session.View().Total)
}

func TestSessionLoadOnlyOnce(t *testing.T) {
	session := loadedSession(t, 2)
	err := session.Load(context.Background(), sourceWith(2))
	require.ErrorIs(t, err, domain.ErrSessionNotLoading)
}

func TestSessionDecodesEntities(t *testing.T) {
	source := &memory.StaticTriviaSource{Questions: []domain.RawQuestion{{
		Question:         "Who wrote &quot;Hamlet&quot; &amp; &#039;Macbeth&#039;?",
		CorrectAnswer:    "William Shakespeare",
		IncorrectAnswers: []string{"Christopher Marlowe", "Ben Jonson", "Fran&ccedil;ois Rabelais"},
	}}}
	session := app.NewSession("s-1", settings(domain.DifficultyEasy, 5), app.WithShuffle(noShuffle))
	require.NoError(t, session.Load(context.Background(), source))

	q := session.View().Question
	require.Equal(t, `Who wrote "Hamlet" & 'Macbeth'?`, q.Prompt)
	require.Equal(t, []string{"Christopher Marlowe", "Ben Jonson", "François Rabelais", "William Shakespeare"}, q.Options)
}

func TestSessionOptionsContainCorrectAnswerOnce(t *testing.T) {
	positions := make(map[int]int)
	for i := 0; i < 400; i++ {
		session := app.NewSession(fmt.Sprintf("s-%d", i), settings(domain.DifficultyEasy, 1))
		require.NoError(t, session.Load(context.Background(), sourceWith(1)))

		q := session.View().Question
		require.Len(t, q.Options, 4)
		seen := 0
		for pos, o := range q.Options {
			if o == "correct 0" {
				seen++
				positions[pos]++
			}
		}
		require.Equal(t, 1, seen)
	}
	// a uniform shuffle puts the correct answer in every slot eventually
	require.Len(t, positions, 4)
}

func TestElapsedSeconds(t *testing.T) {
	require.Equal(t, int64(1), app.ElapsedSeconds(1499*time.Millisecond))
	require.Equal(t, int64(2), app.ElapsedSeconds(1500*time.Millisecond))
	require.Equal(t, int64(0), app.ElapsedSeconds(-time.Second))
}

// helpers

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func noShuffle(int, func(i, j int)) {}

func settings(d domain.Difficulty, n int) app.Settings {
	return app.Settings{NumQuestions: n, Difficulty: d, Category: "9"}
}

// sourceWith serves n questions whose correct answer is "correct {i}".
func sourceWith(n int) *memory.StaticTriviaSource {
	questions := make([]domain.RawQuestion, 0, n)
	for i := range n {
		questions = append(questions, domain.RawQuestion{
			Question:         fmt.Sprintf("question %d", i),
			CorrectAnswer:    fmt.Sprintf("correct %d", i),
			IncorrectAnswers: []string{fmt.Sprintf("wrong %da", i), fmt.Sprintf("wrong %db", i), fmt.Sprintf("wrong %dc", i)},
		})
	}
	return &memory.StaticTriviaSource{Questions: questions}
}

// loadedSession returns an active session whose options are in source order:
// three wrong answers followed by the correct one.
func loadedSession(t *testing.T, n int, opts ...app.SessionOption) *app.Session {
	t.Helper()
	opts = append([]app.SessionOption{app.WithShuffle(noShuffle)}, opts...)
	session := app.NewSession("s-1", settings(domain.DifficultyEasy, n), opts...)
	require.NoError(t, session.Load(context.Background(), sourceWith(n)))
	return session
}

func roundHalfUp(v float64) float64 {
	// values here are non-negative; nudge absorbs float error on exact halves
	return float64(int64(v + 0.5 + 1e-9))
}
