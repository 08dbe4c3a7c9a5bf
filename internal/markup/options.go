package markup

import (
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/element"
	"github.com/dshills/lectern/internal/process"
	"github.com/dshills/lectern/internal/renderer/font"
)

// defaultWidth is the layout width tables are fitted to when none is set.
const defaultWidth = 80

// Option configures Compile.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	fonts    font.Provider
	dir      string
	sheet    *config.Sheet
	spacing  float64
	width    int
	elemOpts []element.Option
	registry *element.Registry
	sup      *process.Supervisor
}

func defaultOptions() options {
	return options{
		logger:   zap.NewNop(),
		fonts:    font.Grid{},
		spacing:  1,
		width:    defaultWidth,
		registry: element.DefaultRegistry(),
	}
}

// WithLogger sets the logger handed to pages and elements.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFonts sets the font provider used to measure list markers and
// tables.
func WithFonts(p font.Provider) Option {
	return func(o *options) {
		if p != nil {
			o.fonts = p
		}
	}
}

// WithDir resolves media and stylesheet paths against dir.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithSheet sets the stylesheet the first page starts with.
func WithSheet(s *config.Sheet) Option {
	return func(o *options) { o.sheet = s }
}

// WithSpacingScale multiplies the margins, indents and paddings of every
// sheet the compiler uses, including ones set by directives.
func WithSpacingScale(f float64) Option {
	return func(o *options) {
		if f > 0 {
			o.spacing = f
		}
	}
}

// WithWidth sets the layout width tables are fitted to.
func WithWidth(w int) Option {
	return func(o *options) {
		if w > 0 {
			o.width = w
		}
	}
}

// WithElementOptions adds options to every element the compiler creates.
func WithElementOptions(opts ...element.Option) Option {
	return func(o *options) { o.elemOpts = append(o.elemOpts, opts...) }
}

// WithRegistry sets the plugin registry.
func WithRegistry(r *element.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithSupervisor makes every console run its process under s.
func WithSupervisor(s *process.Supervisor) Option {
	return func(o *options) { o.sup = s }
}
