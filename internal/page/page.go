package page

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/anim"
	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/decoration"
	"github.com/dshills/lectern/internal/element"
	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/expose"
	"github.com/dshills/lectern/internal/renderer/backend"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
	"github.com/dshills/lectern/internal/renderer/layout"
)

// scrollStep is how far one wheel notch scrolls, in layout units.
const scrollStep = 3

// Span is the byte range of the markup a page was compiled from.
type Span struct {
	Start, End int
}

// Player is implemented by elements with playback, such as videos.
type Player interface {
	Play()
	Pause()
}

// Page is one slide.
type Page struct {
	doc    *document.Document
	sheet  *config.Sheet
	deco   *decoration.Decoration
	groups []expose.Group
	title  string
	source Span
	fonts  font.Provider
	logger *zap.Logger
	sched  *anim.Scheduler

	batch   *batch.Batch
	layout  *layout.Layout
	seq     *expose.Sequencer
	w, h    int
	entered bool
}

// New creates a page over doc styled by sheet.
func New(doc *document.Document, sheet *config.Sheet, opts ...Option) *Page {
	if sheet == nil {
		sheet = config.Default()
	}
	p := &Page{
		doc:    doc,
		sheet:  sheet,
		fonts:  font.Grid{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.deco == nil {
		p.deco = decoration.New(nil, sheet, p.fonts, decoration.WithLogger(p.logger))
	}
	if p.title != "" {
		p.deco.SetTitle(p.title)
	}
	return p
}

// Document returns the page content.
func (p *Page) Document() *document.Document { return p.doc }

// Sheet returns the stylesheet in effect for the page.
func (p *Page) Sheet() *config.Sheet { return p.sheet }

// Decoration returns the page decoration.
func (p *Page) Decoration() *decoration.Decoration { return p.deco }

// Title returns the page heading, or the decoration title.
func (p *Page) Title() string { return p.deco.Title() }

// Source returns the markup span of the page.
func (p *Page) Source() Span { return p.source }

// Groups returns the expose groups.
func (p *Page) Groups() []expose.Group { return p.groups }

// Background returns the clear color of the page.
func (p *Page) Background() core.Color { return p.deco.Background() }

// Batch returns the page geometry, nil when not entered.
func (p *Page) Batch() *batch.Batch { return p.batch }

// Layout returns the content layout, nil when not entered.
func (p *Page) Layout() *layout.Layout { return p.layout }

// Sequencer returns the expose sequencer, nil before the first Enter.
func (p *Page) Sequencer() *expose.Sequencer { return p.seq }

// Entered reports whether the page is shown.
func (p *Page) Entered() bool { return p.entered }

// SetScheduler sets the clock fades run on. It takes effect on the first
// Enter.
func (p *Page) SetScheduler(s *anim.Scheduler) {
	if p.seq == nil && s != nil {
		p.sched = s
	}
}

// Enter shows the page on a w by h screen.
func (p *Page) Enter(w, h int) error {
	if p.entered {
		return ErrEntered
	}
	p.w, p.h = w, h
	p.batch = batch.New()
	if err := p.deco.Enter(p.batch, w, h); err != nil {
		return fmt.Errorf("enter decoration: %w", err)
	}

	valign, ok := layout.ParseVAlign(p.sheet.String(config.SectionLayout, "valign", "top"))
	if !ok {
		valign = layout.VAlignTop
	}
	vp := p.deco.Viewport()
	p.layout = layout.New(p.doc, p.batch, p.fonts,
		layout.WithLogger(p.logger),
		layout.WithColor(p.sheet.Color(config.SectionDefault, style.KeyColor, core.Black)),
	)
	if err := p.layout.Enter(vp.X, vp.Y, vp.W, vp.H, valign); err != nil {
		p.deco.Leave()
		return fmt.Errorf("enter layout: %w", err)
	}

	if p.seq == nil {
		p.seq = p.newSequencer()
	}
	p.seq.Attach(p.layout)
	p.seq.Reset()

	p.eachElement(func(el document.Element) {
		if pl, ok := el.(Player); ok {
			pl.Play()
		}
	})
	p.entered = true
	p.logger.Debug("page entered",
		zap.String("title", p.Title()),
		zap.Int("lines", p.layout.LineCount()),
		zap.Int("groups", p.seq.Len()))
	return nil
}

func (p *Page) newSequencer() *expose.Sequencer {
	if p.sched == nil {
		p.sched = anim.New()
	}
	_, dur := p.sheet.Transition()
	if dur == 0 {
		dur = 500 * time.Millisecond
	}
	return expose.New(p.doc, p.sched, p.groups,
		expose.WithDuration(dur),
		expose.WithDefaultColor(p.sheet.Color(config.SectionDefault, style.KeyColor, core.Black)),
		expose.WithLogger(p.logger),
	)
}

// Leave removes the page from the screen. Fades are snapped before the
// layout goes away, and the layout takes placed elements off its surface.
// Elements keep their resources until the document is released, so the
// page can be entered again. Geometry that outlives teardown is cleared
// and reported as ErrLeak.
func (p *Page) Leave() error {
	if !p.entered {
		return nil
	}
	p.seq.Cancel()
	p.seq.Attach(nil)

	p.layout.Leave()
	p.eachElement(func(el document.Element) {
		if pl, ok := el.(Player); ok {
			pl.Pause()
		}
	})
	p.deco.Leave()

	var err error
	if n := p.batch.Len(); n != 0 {
		err = fmt.Errorf("%w: %d items", ErrLeak, n)
		p.batch.Clear()
	}
	p.layout, p.batch = nil, nil
	p.entered = false
	return err
}

// Resize re-enters the page at the new size, keeping revealed groups.
func (p *Page) Resize(w, h int) error {
	if !p.entered {
		p.w, p.h = w, h
		return nil
	}
	var on []bool
	for i := 0; i < p.seq.Len(); i++ {
		on = append(on, p.seq.On(i))
	}
	if err := p.Leave(); err != nil {
		p.logger.Warn("page resize teardown", zap.Error(err))
	}
	if err := p.Enter(w, h); err != nil {
		return err
	}
	for i, v := range on {
		if v && !p.seq.On(i) {
			p.seq.RevealForward()
		}
	}
	p.seq.Cancel()
	return nil
}

// Next reveals the next expose group. It reports whether it did anything.
func (p *Page) Next() bool {
	if !p.entered {
		return false
	}
	return p.seq.RevealForward()
}

// Previous hides the last revealed expose group. It reports whether it
// did anything.
func (p *Page) Previous() bool {
	if !p.entered {
		return false
	}
	return p.seq.RevealBackward()
}

// HandleKey offers ev to the elements that take keyboard input.
func (p *Page) HandleKey(ev backend.Event) bool {
	if !p.entered {
		return false
	}
	handled := false
	p.eachElement(func(el document.Element) {
		if handled {
			return
		}
		if kh, ok := el.(element.KeyHandler); ok {
			handled = kh.HandleKey(ev)
		}
	})
	return handled
}

// HandleMouse scrolls content taller than the viewport on wheel events.
func (p *Page) HandleMouse(ev backend.Event) bool {
	if !p.entered {
		return false
	}
	var dy int
	switch ev.MouseButton {
	case backend.MouseWheelUp:
		dy = -scrollStep
	case backend.MouseWheelDown:
		dy = scrollStep
	default:
		return false
	}
	return p.Scroll(dy)
}

// Scroll moves the content view by dy units, clamped to the content. It
// reports whether the view moved.
func (p *Page) Scroll(dy int) bool {
	if !p.entered {
		return false
	}
	vp := p.layout.Viewport()
	limit := max(p.layout.ContentHeight()-vp.H, 0)
	x, y := p.layout.View()
	ny := min(max(y+dy, 0), limit)
	if ny == y {
		return false
	}
	p.layout.SetView(x, ny)
	return true
}

// Update forwards the elapsed time to elements that animate.
func (p *Page) Update(dt time.Duration) {
	if !p.entered {
		return
	}
	p.eachElement(func(el document.Element) {
		if u, ok := el.(element.Updater); ok {
			u.Update(dt)
		}
	})
}

// Draw paints the page geometry. The caller clears the canvas.
func (p *Page) Draw(c backend.Canvas) {
	if p.entered {
		c.Draw(p.batch)
	}
}

func (p *Page) eachElement(fn func(document.Element)) {
	for _, el := range p.doc.Elements() {
		fn(el)
	}
}
