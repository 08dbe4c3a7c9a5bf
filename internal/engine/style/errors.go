package style

import "errors"

// Sentinel errors for style operations.
var (
	// ErrInvalidRange indicates a range with start > end or a negative offset.
	ErrInvalidRange = errors.New("invalid style range")
)
