package decoration

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand indicates a decoration line with an unknown command.
	ErrUnknownCommand = errors.New("unknown decoration command")

	// ErrSyntax indicates a malformed decoration line.
	ErrSyntax = errors.New("decoration syntax error")

	// ErrExpression indicates a coordinate expression that failed to
	// evaluate to a number.
	ErrExpression = errors.New("invalid coordinate expression")

	// ErrEntered is returned by Enter on a decoration that is already shown.
	ErrEntered = errors.New("decoration already entered")
)

// LineError locates a decoration error.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("decoration line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
