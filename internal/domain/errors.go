package domain

import "errors"

var (
	// ErrNoQuestions is returned when a configuration matches no questions.
	ErrNoQuestions = errors.New("no questions matched the configuration")
	// ErrNoSession is returned when no resumable session exists.
	ErrNoSession = errors.New("no resumable session")
	// ErrEmptySelection is returned when confirming without a selected choice.
	ErrEmptySelection = errors.New("no choice selected")
	// ErrAlreadyAnswered is returned when selecting or confirming after the
	// current question has been scored.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered is returned when advancing before the current question
	// has been confirmed.
	ErrNotAnswered = errors.New("question not answered yet")
	// ErrUnknownChoice is returned when a selected label does not belong to
	// the current question.
	ErrUnknownChoice = errors.New("choice not found")
	// ErrQuizCompleted is returned when acting on a finished session.
	ErrQuizCompleted = errors.New("quiz already completed")
	// ErrNoResult is returned when no completed run is available to report.
	ErrNoResult = errors.New("no quiz result available")
	// ErrInvalidConfig is returned when a quiz configuration is unusable.
	ErrInvalidConfig = errors.New("invalid quiz configuration")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
)
