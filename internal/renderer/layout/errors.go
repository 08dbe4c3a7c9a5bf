package layout

import "errors"

var (
	// ErrInvalidState is returned when an operation does not match the
	// layout's lifecycle state.
	ErrInvalidState = errors.New("invalid layout state")
)
