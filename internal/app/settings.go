package app

import (
	"fmt"
	"strings"

	"trivia-quiz/internal/domain"
)

const (
	MinQuestions     = 5
	MaxQuestions     = 20
	DefaultQuestions = 10
)

// Settings are the player-chosen quiz parameters.
type Settings struct {
	NumQuestions int               `json:"numQuestions"`
	Difficulty   domain.Difficulty `json:"difficulty"`
	Category     string            `json:"category"`
}

// DefaultSettings mirrors the initial state of the settings form. Category has no default.
func DefaultSettings() Settings {
	return Settings{
		NumQuestions: DefaultQuestions,
		Difficulty:   domain.DifficultyEasy,
	}
}

// Validate checks the settings before a session is started.
func (s Settings) Validate() error {
	if s.NumQuestions < MinQuestions || s.NumQuestions > MaxQuestions {
		return fmt.Errorf("%w: number of questions must be between %d and %d", domain.ErrInvalidSettings, MinQuestions, MaxQuestions)
	}
	if !s.Difficulty.Valid() {
		return fmt.Errorf("%w: %w %q", domain.ErrInvalidSettings, domain.ErrInvalidDifficulty, s.Difficulty)
	}
	if strings.TrimSpace(s.Category) == "" {
		return fmt.Errorf("%w: please select a category", domain.ErrInvalidSettings)
	}
	return nil
}

func (s Settings) request() domain.QuestionRequest {
	return domain.QuestionRequest{
		Amount:     s.NumQuestions,
		Category:   s.Category,
		Difficulty: s.Difficulty,
	}
}
