package decoration

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/element"
	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
	"github.com/dshills/lectern/internal/renderer/layout"
)

// Option configures a Decoration.
type Option func(*Decoration)

// WithLogger sets the logger that receives skipped commands.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Decoration) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDir resolves relative image paths against dir.
func WithDir(dir string) Option {
	return func(d *Decoration) {
		d.dir = dir
	}
}

// WithElementOptions passes options to decoration images, such as the
// pixel scale of the canvas.
func WithElementOptions(opts ...element.Option) Option {
	return func(d *Decoration) {
		d.elOpts = append(d.elOpts, opts...)
	}
}

// Decoration is the per-page background, quads, images, title and
// footer. It is a document.Surface for its images.
type Decoration struct {
	spec   *Spec
	sheet  *config.Sheet
	fonts  font.Provider
	logger *zap.Logger
	dir    string
	elOpts []element.Option
	eval   *Evaluator

	heading string

	batch      *batch.Batch
	screen     core.Rect
	viewport   core.Rect
	titleRect  core.Rect
	footerRect core.Rect
	items      []*batch.Item
	texts      []*layout.Layout
	images     []*element.Image
	entered    bool
}

// New creates a decoration. A nil spec draws only the background and
// the sheet's defaults.
func New(spec *Spec, sheet *config.Sheet, fonts font.Provider, opts ...Option) *Decoration {
	if spec == nil {
		spec = &Spec{}
	}
	if sheet == nil {
		sheet = config.Default()
	}
	d := &Decoration{
		spec:   spec,
		sheet:  sheet,
		fonts:  fonts,
		logger: zap.NewNop(),
		eval:   NewEvaluator(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetTitle sets the page heading, which takes precedence over a title
// command. It applies on the next Enter.
func (d *Decoration) SetTitle(text string) { d.heading = text }

// Title returns the title text that will be shown.
func (d *Decoration) Title() string {
	if d.heading != "" {
		return d.heading
	}
	return d.spec.Title
}

// Footer returns the footer text.
func (d *Decoration) Footer() string { return d.spec.Footer }

// Spec returns the parsed decoration.
func (d *Decoration) Spec() *Spec { return d.spec }

// Background returns the clear color: the bgcolor command or the sheet's
// layout background.
func (d *Decoration) Background() core.Color {
	if d.spec.Background != nil {
		return *d.spec.Background
	}
	return d.sheet.Background()
}

// Batch implements document.Surface.
func (d *Decoration) Batch() *batch.Batch { return d.batch }

// Clip implements document.Surface.
func (d *Decoration) Clip() core.Rect { return d.screen }

// Viewport returns the rectangle page content is laid out in.
func (d *Decoration) Viewport() core.Rect { return d.viewport }

// TitleRect returns the title box, empty when there is no title.
func (d *Decoration) TitleRect() core.Rect { return d.titleRect }

// FooterRect returns the footer box, empty when there is no footer.
func (d *Decoration) FooterRect() core.Rect { return d.footerRect }

// Entered reports whether the decoration is shown.
func (d *Decoration) Entered() bool { return d.entered }

// Enter draws the decoration for a w by h screen into b. Commands that
// fail to evaluate or load are logged and skipped.
func (d *Decoration) Enter(b *batch.Batch, w, h int) error {
	if d.entered {
		return ErrEntered
	}
	d.entered = true
	d.batch = b
	d.screen = core.R(0, 0, w, h)
	d.viewport = d.screen
	d.titleRect, d.footerRect = core.Rect{}, core.Rect{}

	d.items = append(d.items, b.AddQuad(batch.LayerBackground, d.screen, d.Background()))
	for _, q := range d.spec.Quads {
		d.addQuad(q, w, h)
	}
	for _, img := range d.spec.Images {
		d.addImage(img, w, h)
	}
	if t := d.Title(); t != "" {
		d.titleRect = d.addText(config.SectionTitle, t, w, h, false)
	}
	if f := d.Footer(); f != "" {
		d.footerRect = d.addText(config.SectionFooter, f, w, h, true)
	}
	d.viewport = d.computeViewport(w, h)
	return nil
}

// Leave removes everything Enter drew.
func (d *Decoration) Leave() {
	if !d.entered {
		return
	}
	for _, it := range d.items {
		it.Remove()
	}
	for _, l := range d.texts {
		l.Leave()
		l.Document().Release()
	}
	for _, img := range d.images {
		img.Remove(nil)
	}
	d.items, d.texts, d.images = nil, nil, nil
	d.batch = nil
	d.entered = false
}

// Resize leaves and re-enters at the new size.
func (d *Decoration) Resize(w, h int) error {
	b := d.batch
	d.Leave()
	if b == nil {
		return nil
	}
	return d.Enter(b, w, h)
}

func (d *Decoration) warn(msg string, err error) {
	d.logger.Warn(msg, zap.Error(err))
}

func (d *Decoration) addQuad(q Quad, w, h int) {
	var xs, ys [4]int
	for i, v := range q.Vertices {
		x, err := d.eval.Eval(v.X, w, h)
		if err != nil {
			d.warn("decoration quad skipped", err)
			return
		}
		y, err := d.eval.Eval(v.Y, w, h)
		if err != nil {
			d.warn("decoration quad skipped", err)
			return
		}
		xs[i], ys[i] = x, y
	}
	minX, maxX := min(xs[0], xs[1], xs[2], xs[3]), max(xs[0], xs[1], xs[2], xs[3])
	minY, maxY := min(ys[0], ys[1], ys[2], ys[3]), max(ys[0], ys[1], ys[2], ys[3])
	rect := core.R(minX, minY, maxX-minX, maxY-minY)
	if rect.Empty() {
		return
	}

	// Corners are top-left, top-right, bottom-right, bottom-left.
	midX, midY := (minX+maxX)/2, (minY+maxY)/2
	var cols [4]core.Color
	var set [4]bool
	for i, v := range q.Vertices {
		right, bottom := xs[i] > midX, ys[i] > midY
		c := 0
		switch {
		case right && !bottom:
			c = 1
		case right && bottom:
			c = 2
		case !right && bottom:
			c = 3
		}
		cols[c], set[c] = v.Color, true
	}
	for i := range cols {
		if !set[i] {
			cols[i] = q.Vertices[0].Color
		}
	}
	d.items = append(d.items, d.batch.AddGradient(batch.LayerDecoration, rect, cols))
}

func (d *Decoration) addImage(spec ImageSpec, w, h int) {
	path := spec.Path
	if !filepath.IsAbs(path) && d.dir != "" {
		path = filepath.Join(d.dir, path)
	}
	opts := append([]element.Option{element.WithLogger(d.logger)}, d.elOpts...)
	opts = append(opts, element.WithLayer(batch.LayerDecoration))
	img, err := element.OpenImage(path, opts...)
	if err != nil {
		d.warn("decoration image skipped", err)
		return
	}
	m := img.Metrics()
	x := anchor(spec.HAlign, w, m.Advance)
	top := anchor(spec.VAlign, h, m.Height())
	if err := img.Place(d, x, top+m.Ascent); err != nil {
		d.warn("decoration image skipped", err)
		return
	}
	d.images = append(d.images, img)
}

// anchor returns the offset of a size-long box aligned in a span.
func anchor(align string, span, size int) int {
	switch align {
	case "center":
		return (span - size) / 2
	case "right", "bottom":
		return span - size
	default:
		return 0
	}
}

// addText lays out a title or footer. Footers wrap at the screen width
// and align to their anchor; titles are a single line.
func (d *Decoration) addText(section, text string, w, h int, wrap bool) core.Rect {
	attrs := d.sheet.Resolved(section)
	hanchor := d.sheet.String(section, "hanchor", "left")
	vanchor := d.sheet.String(section, "vanchor", "top")
	if wrap {
		attrs[style.KeyAlign] = style.String(hanchor)
	}
	doc, err := document.FromString(text, attrs)
	if err != nil {
		d.warn(section+" skipped", err)
		return core.Rect{}
	}

	x, y := 0, 0
	if pos := d.sheet.Coords(section, "position"); len(pos) == 2 {
		xy, err := d.eval.EvalAll(pos, w, h)
		if err != nil {
			d.warn(section+" position ignored", err)
		} else {
			x, y = xy[0], xy[1]
		}
	}

	width := 0
	if wrap {
		width = w
	}
	tw, th := layout.Measure(doc, d.fonts, width)
	if wrap {
		tw = w
	}
	left := x - anchorSize(hanchor, tw)
	top := y - anchorSize(vanchor, th)

	l := layout.New(doc, d.batch, d.fonts,
		layout.WithLogger(d.logger),
		layout.WithWrap(wrap),
		layout.WithLayer(batch.LayerContent),
	)
	if err := l.Enter(left, top, tw, th, layout.VAlignTop); err != nil {
		d.warn(section+" skipped", err)
		return core.Rect{}
	}
	d.texts = append(d.texts, l)
	return core.R(left, top, tw, th)
}

// anchorSize is how far an anchor point sits from the box's near edge.
func anchorSize(a string, size int) int {
	switch a {
	case "center":
		return size / 2
	case "right", "bottom":
		return size
	default:
		return 0
	}
}

func (d *Decoration) computeViewport(w, h int) core.Rect {
	if vp := d.spec.Viewport; vp != nil {
		r, err := d.eval.EvalAll(vp, w, h)
		if err == nil && len(r) == 4 {
			return core.R(r[0], r[1], max(r[2], 0), max(r[3], 0))
		}
		d.warn("decoration viewport ignored", err)
	}
	vp := d.screen
	if !d.titleRect.Empty() && d.sheet.String(config.SectionTitle, "vanchor", "top") == "top" {
		if b := d.titleRect.Bottom(); b > vp.Y {
			vp.H -= b - vp.Y
			vp.Y = b
		}
	}
	if !d.footerRect.Empty() && d.sheet.String(config.SectionFooter, "vanchor", "bottom") == "bottom" {
		if t := d.footerRect.Y; t < vp.Bottom() {
			vp.H = t - vp.Y
		}
	}
	vp.H = max(vp.H, 0)
	return vp
}
