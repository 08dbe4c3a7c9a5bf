package element

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMedia is returned when a file is not a decodable image
	// or video.
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrEmptyMedia is returned when a decoded file has no pixels or frames.
	ErrEmptyMedia = errors.New("media has no content")

	// ErrUnknownPlugin is returned by Registry.New for unregistered names.
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrInvalidArgs is returned when plugin arguments cannot be parsed.
	ErrInvalidArgs = errors.New("invalid plugin arguments")
)

// ResourceError reports an element whose backing resource could not be
// loaded.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
