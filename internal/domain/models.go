package domain

// Difficulty is the trivia difficulty level requested from the source.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Multiplier returns the score scaling factor for the difficulty.
func (d Difficulty) Multiplier() (int64, error) {
	switch d {
	case DifficultyEasy:
		return 1, nil
	case DifficultyMedium:
		return 2, nil
	case DifficultyHard:
		return 3, nil
	}
	return 0, ErrInvalidDifficulty
}

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	_, err := d.Multiplier()
	return err == nil
}

// QuestionRequest is what a session asks the trivia source for.
type QuestionRequest struct {
	Amount     int
	Category   string
	Difficulty Difficulty
}

// RawQuestion is a trivia item as delivered by the source; text may be HTML-entity encoded.
type RawQuestion struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Question is a decoded multiple choice question with its options in display order.
type Question struct {
	Prompt        string   `json:"prompt"`
	CorrectAnswer string   `json:"-"`
	Options       []string `json:"options"`
}

// HasOption reports whether option is one of the question's options.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Category is a trivia category offered by the source.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ScoreRecord is one saved result. It is never mutated after creation.
type ScoreRecord struct {
	Name           string  `json:"name"`
	Score          float64 `json:"score"`
	ElapsedSeconds int64   `json:"time"`
}

// Feedback is the one-shot correct/incorrect notification emitted on advance.
type Feedback struct {
	Correct bool   `json:"correct"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// NewFeedback builds the user-facing feedback for an answer.
func NewFeedback(correct bool) Feedback {
	if correct {
		return Feedback{Correct: true, Title: "Yay!", Message: "Correct answer! 🎉"}
	}
	return Feedback{Correct: false, Title: "Oops!", Message: "Wrong answer! ❌"}
}
