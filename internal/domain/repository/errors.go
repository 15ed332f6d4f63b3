package repository

import "errors"

var (
	// ErrCodeTaken means the game code collided with an existing game on insert.
	ErrCodeTaken = errors.New("game code already taken")
	// ErrNoChange is returned by an Update callback that left the game untouched.
	// Update then skips the write and reports success.
	ErrNoChange = errors.New("no change")
)
