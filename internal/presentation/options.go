package presentation

import (
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/anim"
	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/renderer/font"
)

// Option configures a Presentation.
type Option func(*Presentation)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Presentation) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFonts sets the font provider for overlays.
func WithFonts(fonts font.Provider) Option {
	return func(p *Presentation) {
		if fonts != nil {
			p.fonts = fonts
		}
	}
}

// WithScheduler sets the animation clock shared with the pages.
func WithScheduler(s *anim.Scheduler) Option {
	return func(p *Presentation) {
		if s != nil {
			p.sched = s
		}
	}
}

// WithKeymap sets the key bindings.
func WithKeymap(km *config.Keymap) Option {
	return func(p *Presentation) {
		if km != nil {
			p.keymap = km
		}
	}
}

// WithTimer shows the elapsed time once the first page change happens.
func WithTimer(show bool) Option {
	return func(p *Presentation) { p.showTimer = show }
}

// WithCount shows the page number and count.
func WithCount(show bool) Option {
	return func(p *Presentation) { p.showCount = show }
}

// WithStartPage sets the first page shown. Negative values count from
// the end, -1 being the last page.
func WithStartPage(n int) Option {
	return func(p *Presentation) { p.start = n }
}

// WithSource sets the markup shown by the source view.
func WithSource(src string) Option {
	return func(p *Presentation) { p.source = src }
}

// WithReload sets the function run by the reload action.
func WithReload(fn func()) Option {
	return func(p *Presentation) { p.reload = fn }
}
