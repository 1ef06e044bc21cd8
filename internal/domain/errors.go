package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a requested question ID is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrScoreNotFound indicates a requested score record does not exist.
	ErrScoreNotFound = errors.New("score not found")
	// ErrUserRequired is returned when an attempt is submitted without a user identity.
	ErrUserRequired = errors.New("authenticated user required")
	// ErrAggregateUpdate wraps failures applying quiz or user aggregates after scoring.
	ErrAggregateUpdate = errors.New("aggregate update failed")

	// ErrPlayNotFound is returned when a play session does not exist (or was discarded).
	ErrPlayNotFound = errors.New("play session not found")
	// ErrPlayClosed is returned for input after the play was finalized or expired.
	ErrPlayClosed = errors.New("play session closed")
	// ErrInvalidMode indicates an unknown play mode.
	ErrInvalidMode = errors.New("invalid play mode")
	// ErrWrongMode is returned when an operation does not belong to the play's mode.
	ErrWrongMode = errors.New("operation not allowed in this play mode")
	// ErrSelectionLocked is returned when changing an answer that was already checked.
	ErrSelectionLocked = errors.New("selection locked")
	// ErrNavigationLocked is returned for navigation in one-by-one mode.
	ErrNavigationLocked = errors.New("navigation not allowed")
	// ErrNotChecked is returned when advancing before the current answer was checked.
	ErrNotChecked = errors.New("current question not checked")
	// ErrEmptySelection is returned when checking without any selected option.
	ErrEmptySelection = errors.New("empty selection")
	// ErrQuestionIndex indicates a question index outside the quiz.
	ErrQuestionIndex = errors.New("question index out of range")
)
