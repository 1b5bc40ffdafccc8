package grid

import "errors"

var (
	// ErrInvalidDimension is returned when a grid cannot be built with the
	// requested width and height.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrOutOfBounds is returned for coordinates outside [0,height)x[0,width).
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrRoleConflict is returned when Start and End would share a cell.
	ErrRoleConflict = errors.New("role conflict")

	// ErrProtectedCell is returned when a wall toggle targets Start or End.
	ErrProtectedCell = errors.New("protected cell")
)
