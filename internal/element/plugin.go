package element

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-shellwords"
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/layout"
)

// Factory builds a plugin element from its argument string.
type Factory func(args string, opts ...Option) (document.Element, error)

// Registry maps plugin names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry holding the built-in plugins.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("clock", NewClock)
	r.Register("box", NewBox)
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[strings.ToLower(name)] = f
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// New builds the plugin name with args.
func (r *Registry) New(name, args string, opts ...Option) (document.Element, error) {
	f, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, name)
	}
	return f(args, opts...)
}

// Clock shows the current time, formatted with a Go time layout.
type Clock struct {
	owner

	format string
	opts   options
	doc    *document.Document
	text   string
	lay    *layout.Layout
	surf   document.Surface
	x, y   int
	w, h   int
	scale  float64
	alpha  uint8
}

// NewClock creates a clock. args is a time layout; empty means 15:04:05.
func NewClock(args string, opts ...Option) (document.Element, error) {
	format := strings.TrimSpace(args)
	if format == "" {
		format = "15:04:05"
	}
	o := buildOptions(opts)
	c := &Clock{format: format, opts: o, scale: 1, alpha: 255}
	c.doc = document.New(c.attrs())
	c.setText(o.now().Format(format))
	return c, nil
}

func (c *Clock) attrs() style.Attrs {
	return style.Attrs{
		style.KeyFontName: style.String(c.opts.fontName),
		style.KeyFontSize: style.Float(c.opts.fontSize * c.scale),
		style.KeyColor:    style.Color(c.opts.fg.ScaleAlpha(c.alpha)),
	}
}

// Text returns the time shown.
func (c *Clock) Text() string { return c.text }

// setText replaces the shown text and reports whether the box changed.
func (c *Clock) setText(s string) bool {
	c.text = s
	c.edit(func() {
		_ = c.doc.DeleteText(0, c.doc.Len())
		_ = c.doc.InsertText(0, s, c.attrs())
	})
	w, h := layout.Measure(c.doc, c.opts.fonts, 0)
	if w == c.w && h == c.h {
		return false
	}
	c.w, c.h = w, h
	return true
}

func (c *Clock) edit(fn func()) {
	if c.lay == nil || c.lay.BeginUpdate() != nil {
		fn()
		return
	}
	fn()
	_ = c.lay.EndUpdate()
}

// Update re-reads the clock.
func (c *Clock) Update(time.Duration) {
	s := c.opts.now().Format(c.format)
	if s == c.text {
		return
	}
	if c.setText(s) {
		c.resized()
	}
}

func (c *Clock) resized() {
	if c.lay != nil {
		if err := c.lay.Resize(c.w, c.h); err != nil {
			c.opts.logger.Warn("clock resize", zap.Error(err))
		}
		c.lay.SetPosition(c.x, c.y-c.h)
	}
	c.changed(c)
}

// Metrics implements document.Element.
func (c *Clock) Metrics() document.Metrics {
	return document.Metrics{Ascent: c.h, Advance: c.w}
}

// Place implements document.Element.
func (c *Clock) Place(s document.Surface, x, y int) error {
	if c.surf != nil && c.surf != s {
		c.Remove(c.surf)
	}
	if c.lay != nil {
		if x != c.x || y != c.y {
			c.x, c.y = x, y
			c.lay.SetPosition(x, y-c.h)
		}
		return nil
	}
	if s.Batch() == nil {
		return nil
	}
	c.surf = s
	c.x, c.y = x, y
	c.lay = layout.New(c.doc, s.Batch(), c.opts.fonts,
		layout.WithLayer(c.opts.layer),
		layout.WithWrap(false),
		layout.WithLogger(c.opts.logger))
	return c.lay.Enter(x, y-c.h, c.w, c.h, layout.VAlignTop)
}

// Remove implements document.Element.
func (c *Clock) Remove(s document.Surface) {
	if c.lay != nil && (s == nil || s == c.surf) {
		c.lay.Leave()
		c.lay = nil
		c.surf = nil
	}
}

// SetOpacity implements document.Element.
func (c *Clock) SetOpacity(v uint8) {
	c.alpha = v
	c.edit(func() {
		_ = c.doc.SetStyle(0, c.doc.Len(), style.Attrs{style.KeyColor: style.Color(c.opts.fg.ScaleAlpha(v))})
	})
}

// SetScale implements document.Element.
func (c *Clock) SetScale(f float64) {
	if f <= 0 || f == c.scale {
		return
	}
	c.scale = f
	if c.setText(c.text) {
		c.resized()
	}
}

type placedQuad struct {
	item *batch.Item
	x, y int
}

// Box is a solid colored spacer.
type Box struct {
	owner

	baseW, baseH int
	w, h         int
	color        core.Color
	alpha        uint8
	layer        batch.Layer
	placed       map[document.Surface]*placedQuad
}

// NewBox parses "width height [color]". The color is #rrggbb and defaults
// to the foreground option.
func NewBox(args string, opts ...Option) (document.Element, error) {
	o := buildOptions(opts)
	fields, err := shellwords.Parse(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	if len(fields) < 2 || len(fields) > 3 {
		return nil, fmt.Errorf("%w: box wants width height [color], got %q", ErrInvalidArgs, args)
	}
	w, err := strconv.Atoi(fields[0])
	if err != nil || w < 0 {
		return nil, fmt.Errorf("%w: width %q", ErrInvalidArgs, fields[0])
	}
	h, err := strconv.Atoi(fields[1])
	if err != nil || h < 0 {
		return nil, fmt.Errorf("%w: height %q", ErrInvalidArgs, fields[1])
	}
	col := o.fg
	if len(fields) == 3 {
		cc, err := colorful.Hex(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: color %q", ErrInvalidArgs, fields[2])
		}
		r, g, b := cc.RGB255()
		col = core.RGBA(r, g, b, 255)
	}
	return &Box{
		baseW:  w,
		baseH:  h,
		w:      w,
		h:      h,
		color:  col,
		alpha:  255,
		layer:  o.layer,
		placed: make(map[document.Surface]*placedQuad),
	}, nil
}

// Metrics implements document.Element.
func (b *Box) Metrics() document.Metrics {
	return document.Metrics{Ascent: b.h, Advance: b.w}
}

// Place implements document.Element.
func (b *Box) Place(s document.Surface, x, y int) error {
	rect := core.R(x, y-b.h, b.w, b.h)
	if p, ok := b.placed[s]; ok {
		if p.x != x || p.y != y || p.item.Rect() != rect {
			p.x, p.y = x, y
			p.item.SetRect(rect)
			p.item.SetClip(s.Clip())
		}
		return nil
	}
	if s.Batch() == nil {
		return nil
	}
	it := s.Batch().AddQuad(b.layer, rect, b.color.ScaleAlpha(b.alpha))
	it.SetClip(s.Clip())
	b.placed[s] = &placedQuad{item: it, x: x, y: y}
	return nil
}

// Remove implements document.Element.
func (b *Box) Remove(s document.Surface) {
	for k, p := range b.placed {
		if s == nil || k == s {
			p.item.Remove()
			delete(b.placed, k)
		}
	}
}

// SetOpacity implements document.Element.
func (b *Box) SetOpacity(v uint8) {
	b.alpha = v
	for _, p := range b.placed {
		p.item.SetColor(b.color.ScaleAlpha(v))
	}
}

// SetScale implements document.Element.
func (b *Box) SetScale(f float64) {
	if f <= 0 {
		return
	}
	w, h := scaled(b.baseW, f), scaled(b.baseH, f)
	if w == b.w && h == b.h {
		return
	}
	b.w, b.h = w, h
	b.changed(b)
}
