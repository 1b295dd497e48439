package domain

import "errors"

var (
	ErrTodoNotFound    = errors.New("todo not found")
	ErrForbidden       = errors.New("access to this todo is forbidden")
	ErrVersionConflict = errors.New("todo version does not match the stored version")

	// ErrOpeningNotAllowed is returned when a non-admin tries to set isClosed to false.
	ErrOpeningNotAllowed = errors.New("Opening todos is not allowed")
)
