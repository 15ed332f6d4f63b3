package errors

import "errors"

// Application-wide errors. Services wrap these with fmt.Errorf("...: %w", ...)
// to add a user-facing message; handlers classify them with errors.Is.
var (
	// ErrNotFound is used when a game or another record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is used for missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is used when the caller is not a participant, or not the creator where required.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is used for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is used for generic state conflicts.
	ErrConflict = errors.New("resource state conflict")

	// ErrInvalidState is used when an action is attempted outside its valid game status.
	ErrInvalidState = errors.New("invalid game state")

	// ErrNotJoinable is used when a join targets a game that is no longer waiting.
	ErrNotJoinable = errors.New("game is not joinable")

	// ErrGameFull is used when a third user tries to join.
	ErrGameFull = errors.New("game is full")

	// ErrAlreadyAnswered is informational: the player already answered this round.
	ErrAlreadyAnswered = errors.New("already answered")

	// ErrAlreadyJoined is informational: the user is already a player of the game.
	ErrAlreadyJoined = errors.New("already joined")

	// ErrNoActiveQuestion is used when an answer arrives while no question is open.
	ErrNoActiveQuestion = errors.New("no active question")

	// ErrNotReady is used when start or rematch preconditions are not met.
	ErrNotReady = errors.New("not ready")

	// ErrTimeExpired is used when a timed-mode answer arrives after the deadline.
	ErrTimeExpired = errors.New("time limit expired")

	// ErrSupplierUnavailable is retryable: the question pool could not be fetched
	// and the game was left untouched.
	ErrSupplierUnavailable = errors.New("question supplier unavailable")
)
