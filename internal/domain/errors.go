package domain

import "errors"

var (
	// ErrLoadFailure is returned when questions could not be fetched or parsed.
	ErrLoadFailure = errors.New("failed to load questions")
	// ErrNoQuestions indicates the trivia source returned zero usable items.
	ErrNoQuestions = errors.New("no questions available")
	// ErrValidation is returned when a player name is empty after trimming.
	ErrValidation = errors.New("please enter your name")
	// ErrPersistence wraps score store read or write failures.
	ErrPersistence = errors.New("score store failure")
	// ErrCorruptScores indicates the stored score document could not be decoded.
	ErrCorruptScores = errors.New("stored scores are corrupt")
	// ErrInvalidDifficulty indicates a difficulty other than easy, medium or hard.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrInvalidSettings indicates quiz settings outside the accepted ranges.
	ErrInvalidSettings = errors.New("invalid quiz settings")
	// ErrInvalidOption indicates a selection that is not an option of the current question.
	ErrInvalidOption = errors.New("option not found")
	// ErrNoSelection indicates advance was attempted without a selected answer.
	ErrNoSelection = errors.New("no answer selected")
	// ErrSessionNotActive indicates an answer operation outside the active state.
	ErrSessionNotActive = errors.New("quiz session is not active")
	// ErrSessionNotCompleted indicates a score was requested before the last answer.
	ErrSessionNotCompleted = errors.New("quiz session is not completed")
	// ErrSessionNotLoading indicates load was called on an already loaded session.
	ErrSessionNotLoading = errors.New("quiz session already loaded")
	// ErrSessionNotFound is returned when a quiz session id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrEntryClosed indicates the score entry was already saved or cancelled.
	ErrEntryClosed = errors.New("score entry closed")
)
