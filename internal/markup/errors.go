package markup

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectiveSyntax indicates a malformed directive body or argument.
	ErrDirectiveSyntax = errors.New("directive syntax error")

	// ErrMissingArgument indicates a directive that needs an argument and
	// has none.
	ErrMissingArgument = errors.New("directive needs an argument")
)

// ParseError locates a compile warning in the markup. Line is 1-based;
// zero means the position is unknown.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line <= 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
