package layout

import (
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
)

// Option configures a Layout.
type Option func(*Layout)

// WithLogger sets the logger used to report placement failures.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Layout) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithTabWidth sets the tab width in space advances.
func WithTabWidth(n int) Option {
	return func(l *Layout) {
		l.tabs.SetTabWidth(n)
	}
}

// WithColor sets the text color used where the document has none.
func WithColor(c core.Color) Option {
	return func(l *Layout) {
		l.color = c
	}
}

// WithLayer sets the batch layer text is drawn on. Run backgrounds go one
// layer below.
func WithLayer(layer batch.Layer) Option {
	return func(l *Layout) {
		l.layer = layer
	}
}

// WithWrap enables or disables wrapping at the viewport width.
func WithWrap(wrap bool) Option {
	return func(l *Layout) {
		l.wrap = wrap
	}
}
