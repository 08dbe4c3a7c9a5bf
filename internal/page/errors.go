package page

import "errors"

var (
	// ErrEntered is returned by Enter on a page that is already shown.
	ErrEntered = errors.New("page already entered")

	// ErrLeak is returned by Leave when geometry survived teardown.
	ErrLeak = errors.New("page geometry left after teardown")
)
