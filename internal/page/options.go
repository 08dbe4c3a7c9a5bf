package page

import (
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/anim"
	"github.com/dshills/lectern/internal/decoration"
	"github.com/dshills/lectern/internal/expose"
	"github.com/dshills/lectern/internal/renderer/font"
)

// Option configures a Page.
type Option func(*Page)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Page) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFonts sets the font provider used for layout.
func WithFonts(fonts font.Provider) Option {
	return func(p *Page) {
		if fonts != nil {
			p.fonts = fonts
		}
	}
}

// WithDecoration sets the page decoration.
func WithDecoration(d *decoration.Decoration) Option {
	return func(p *Page) { p.deco = d }
}

// WithGroups sets the expose groups, in document order.
func WithGroups(groups []expose.Group) Option {
	return func(p *Page) { p.groups = groups }
}

// WithTitle sets the page heading.
func WithTitle(title string) Option {
	return func(p *Page) { p.title = title }
}

// WithSource records the markup the page was compiled from.
func WithSource(span Span) Option {
	return func(p *Page) { p.source = span }
}

// WithScheduler sets the clock fades run on.
func WithScheduler(s *anim.Scheduler) Option {
	return func(p *Page) {
		if s != nil {
			p.sched = s
		}
	}
}
