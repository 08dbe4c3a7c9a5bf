package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrUnknownStylesheet indicates a stylesheet name that is neither
	// built in nor a readable file.
	ErrUnknownStylesheet = errors.New("unknown stylesheet")

	// ErrUnknownKey indicates a style option outside the schema.
	ErrUnknownKey = errors.New("unknown style option")

	// ErrInvalidValue indicates a value that does not parse as the
	// option's type.
	ErrInvalidValue = errors.New("invalid style value")

	// ErrInvalidPath indicates an invalid compound key.
	ErrInvalidPath = errors.New("invalid option path")

	// ErrInheritDepthExceeded indicates a stylesheet inherit chain that is
	// too deep or cyclic.
	ErrInheritDepthExceeded = errors.New("inherit depth exceeded")

	// ErrUnknownAction indicates a key binding for an action the
	// presentation does not have.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidKey indicates a key name that cannot be parsed.
	ErrInvalidKey = errors.New("invalid key")
)

// OptionError describes a style option that could not be applied.
type OptionError struct {
	// Key is the compound option key.
	Key string
	// Value is the rejected value.
	Value any
	// Err is ErrUnknownKey or ErrInvalidValue, possibly wrapped.
	Err error
}

// Error implements the error interface.
func (e *OptionError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("style option %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("style option %s = %v: %v", e.Key, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *OptionError) Unwrap() error {
	return e.Err
}
