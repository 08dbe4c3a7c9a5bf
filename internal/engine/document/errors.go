package document

import "errors"

// Sentinel errors for document operations.
var (
	// ErrOffsetOutOfRange indicates an offset outside the document.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrSentinel indicates inserted text containing the element placeholder.
	ErrSentinel = errors.New("text contains element placeholder")

	// ErrUnknownElement indicates an element not registered in the document.
	ErrUnknownElement = errors.New("element not in document")
)
