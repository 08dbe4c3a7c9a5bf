package presentation

import "errors"

var (
	// ErrNoPages is returned when a presentation has nothing to show.
	ErrNoPages = errors.New("presentation has no pages")

	// ErrNotStarted is returned by operations that need Start first.
	ErrNotStarted = errors.New("presentation not started")

	// ErrBadTiming is returned for malformed timing lines.
	ErrBadTiming = errors.New("malformed timing line")

	// ErrLeak is returned when overlay geometry survives teardown.
	ErrLeak = errors.New("overlay geometry left after teardown")
)
