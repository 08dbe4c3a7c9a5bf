package element

import (
	"image"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/process"
	"github.com/dshills/lectern/internal/renderer/backend"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
)

// Updater is implemented by elements that change over time. The main loop
// calls Update once per tick with the elapsed time.
type Updater interface {
	Update(dt time.Duration)
}

// KeyHandler is implemented by elements that take keyboard input.
// HandleKey reports whether the event was consumed.
type KeyHandler interface {
	HandleKey(ev backend.Event) bool
}

type options struct {
	width, height int
	unitX, unitY  float64
	layer         batch.Layer
	logger        *zap.Logger
	fonts         font.Provider
	supervisor    *process.Supervisor
	dir           string
	loop          bool
	sampleAspect  float64
	fg, bg        core.Color
	fontName      string
	fontSize      float64
	now           func() time.Time
}

func defaultOptions() options {
	return options{
		unitX:        1,
		unitY:        1,
		layer:        batch.LayerElement,
		logger:       zap.NewNop(),
		fonts:        font.Grid{},
		loop:         true,
		sampleAspect: 1,
		fg:           core.White,
		bg:           core.RGBA(0, 0, 0, 200),
		fontName:     "mono",
		fontSize:     12,
		now:          time.Now,
	}
}

// Option configures an element.
type Option func(*options)

// WithSize requests a box. Zero leaves a dimension to be derived from the
// source aspect ratio.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width, o.height = max(width, 0), max(height, 0)
	}
}

// WithPixelScale sets how many layout units one source pixel covers.
// Terminal layouts use fractions, raster layouts use 1.
func WithPixelScale(x, y float64) Option {
	return func(o *options) {
		if x > 0 && y > 0 {
			o.unitX, o.unitY = x, y
		}
	}
}

// WithLayer sets the batch layer the element draws on.
func WithLayer(layer batch.Layer) Option {
	return func(o *options) {
		o.layer = layer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFonts sets the font provider used by text-bearing elements.
func WithFonts(p font.Provider) Option {
	return func(o *options) {
		if p != nil {
			o.fonts = p
		}
	}
}

// WithSupervisor sets the supervisor consoles start their process under.
func WithSupervisor(s *process.Supervisor) Option {
	return func(o *options) {
		o.supervisor = s
	}
}

// WithDir sets the working directory of a console process.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithLoop sets whether a video restarts after its last frame.
func WithLoop(loop bool) Option {
	return func(o *options) {
		o.loop = loop
	}
}

// WithSampleAspect sets the pixel aspect ratio of a video. Values above 1
// widen the picture.
func WithSampleAspect(sar float64) Option {
	return func(o *options) {
		if sar > 0 {
			o.sampleAspect = sar
		}
	}
}

// WithColors sets the text and background colors of consoles and plugins.
func WithColors(fg, bg core.Color) Option {
	return func(o *options) {
		o.fg, o.bg = fg, bg
	}
}

// WithFont sets the face of consoles and plugins.
func WithFont(name string, size float64) Option {
	return func(o *options) {
		if name != "" {
			o.fontName = name
		}
		if size > 0 {
			o.fontSize = size
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Fit returns the box for a source of intrinsic size (srcW, srcH). With
// both width and height given they are used as is; with one, the other
// follows the source aspect ratio; with neither, the intrinsic size is used.
func Fit(width, height int, srcW, srcH float64) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return width, height
	}
	switch {
	case width > 0 && height > 0:
		return width, height
	case width > 0:
		return width, max(round(float64(width)*srcH/srcW), 1)
	case height > 0:
		return max(round(float64(height)*srcW/srcH), 1), height
	default:
		return max(round(srcW), 1), max(round(srcH), 1)
	}
}

func round(f float64) int { return int(math.Round(f)) }

func scaled(n int, f float64) int {
	if n == 0 {
		return 0
	}
	return max(round(float64(n)*f), 1)
}

// owner remembers the document an element was inserted into.
type owner struct {
	doc *document.Document
}

// SetOwner implements document.Owned.
func (o *owner) SetOwner(d *document.Document) { o.doc = d }

// changed tells the owning document that el's box changed.
func (o *owner) changed(el document.Element) {
	if o.doc != nil {
		_ = o.doc.ElementChanged(el)
	}
}

type placedSprite struct {
	item *batch.Item
	x, y int
}

// sprites is one image drawn on any number of surfaces.
type sprites struct {
	layer  batch.Layer
	img    image.Image
	w, h   int
	alpha  uint8
	placed map[document.Surface]*placedSprite
}

func newSprites(layer batch.Layer, img image.Image, w, h int) sprites {
	return sprites{
		layer:  layer,
		img:    img,
		w:      w,
		h:      h,
		alpha:  255,
		placed: make(map[document.Surface]*placedSprite),
	}
}

func (sp *sprites) metrics() document.Metrics {
	return document.Metrics{Ascent: sp.h, Advance: sp.w}
}

func (sp *sprites) place(s document.Surface, x, y int) error {
	rect := core.R(x, y-sp.h, sp.w, sp.h)
	if p, ok := sp.placed[s]; ok {
		if p.x == x && p.y == y && p.item.Rect() == rect && p.item.Live() {
			return nil
		}
		p.x, p.y = x, y
		p.item.SetRect(rect)
		p.item.SetClip(s.Clip())
		return nil
	}
	b := s.Batch()
	if b == nil {
		return nil
	}
	it := b.AddSprite(sp.layer, rect, sp.img)
	it.SetAlpha(sp.alpha)
	it.SetClip(s.Clip())
	sp.placed[s] = &placedSprite{item: it, x: x, y: y}
	return nil
}

func (sp *sprites) remove(s document.Surface) {
	if s == nil {
		for _, p := range sp.placed {
			p.item.Remove()
		}
		clear(sp.placed)
		return
	}
	if p, ok := sp.placed[s]; ok {
		p.item.Remove()
		delete(sp.placed, s)
	}
}

func (sp *sprites) setImage(img image.Image) {
	sp.img = img
	for _, p := range sp.placed {
		p.item.SetImage(img)
	}
}

func (sp *sprites) setAlpha(a uint8) {
	sp.alpha = a
	for _, p := range sp.placed {
		p.item.SetAlpha(a)
	}
}

// resize changes the box. Placed sprites pick it up on the next Place.
func (sp *sprites) resize(w, h int) bool {
	if w == sp.w && h == sp.h {
		return false
	}
	sp.w, sp.h = w, h
	return true
}
