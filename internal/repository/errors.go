package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup by key matches no row
	ErrNotFound = errors.New("not found")

	// ErrResultExists is returned when a result is already stored for the session
	ErrResultExists = errors.New("result already exists for session")
)
