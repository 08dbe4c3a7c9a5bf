package presentation

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/anim"
	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/page"
	"github.com/dshills/lectern/internal/renderer/backend"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
)

// jump is how many pages the forward and back actions move.
const jump = 5

// Listener is called after the current page changes.
type Listener func(p *page.Page, index int)

// Presentation shows one page at a time.
type Presentation struct {
	pages  []*page.Page
	index  int
	start  int
	sched  *anim.Scheduler
	keymap *config.Keymap
	fonts  font.Provider
	logger *zap.Logger
	source string
	reload func()

	w, h    int
	started bool
	quit    bool

	showTimer, showCount bool
	timerStart           time.Duration
	timerRunning         bool
	overlay              *overlay
	fade                 *fade
	sourceView           *SourceView
	showSource           bool
	lastButton           backend.MouseButton

	listeners []Listener
}

// New creates a presentation over pages.
func New(pages []*page.Page, opts ...Option) (*Presentation, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	p := &Presentation{
		pages:  pages,
		sched:  anim.New(),
		keymap: config.DefaultKeymap(),
		fonts:  font.Grid{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, pg := range pages {
		pg.SetScheduler(p.sched)
	}
	p.index = p.clamp(p.start)
	if p.start < 0 {
		p.index = p.clamp(len(pages) + p.start)
	}
	p.overlay = newOverlay(p.fonts, p.logger)
	p.fade = newFade(p.sched)
	return p, nil
}

// Len returns the number of pages.
func (p *Presentation) Len() int { return len(p.pages) }

// Index returns the current page index.
func (p *Presentation) Index() int { return p.index }

// Page returns the current page.
func (p *Presentation) Page() *page.Page { return p.pages[p.index] }

// Pages returns the pages.
func (p *Presentation) Pages() []*page.Page { return p.pages }

// Scheduler returns the animation clock.
func (p *Presentation) Scheduler() *anim.Scheduler { return p.sched }

// Quit reports whether the quit action was triggered.
func (p *Presentation) Quit() bool { return p.quit }

// SourceShown reports whether the source view is up.
func (p *Presentation) SourceShown() bool { return p.showSource }

// Elapsed returns the presenting time, zero before the first page change.
func (p *Presentation) Elapsed() time.Duration {
	if !p.timerRunning {
		return 0
	}
	return p.sched.Now() - p.timerStart
}

// OnPageChanged registers fn to run after every page change, including
// the first page shown by Start.
func (p *Presentation) OnPageChanged(fn Listener) {
	p.listeners = append(p.listeners, fn)
}

func (p *Presentation) clamp(i int) int {
	return min(max(i, 0), len(p.pages)-1)
}

// Start shows the first page on a w by h screen.
func (p *Presentation) Start(w, h int) error {
	if p.started {
		return nil
	}
	p.w, p.h = w, h
	if err := p.Page().Enter(w, h); err != nil {
		return fmt.Errorf("enter page %d: %w", p.index+1, err)
	}
	p.started = true
	p.overlay.enter(w, h, p.showTimer, p.showCount)
	p.refreshOverlay()
	if p.source != "" {
		p.sourceView = NewSourceView(p.source, p.fonts, WithSourceLogger(p.logger))
	}
	p.notify()
	return nil
}

// Next reveals the next expose group or moves to the next page.
func (p *Presentation) Next() {
	if !p.Page().Next() {
		p.Move(1)
	}
}

// Previous hides the last expose group or moves to the previous page.
func (p *Presentation) Previous() {
	if !p.Page().Previous() {
		p.Move(-1)
	}
}

// First moves to the first page.
func (p *Presentation) First() { p.GoTo(0) }

// Last moves to the last page.
func (p *Presentation) Last() { p.GoTo(len(p.pages) - 1) }

// Move moves delta pages, clamped to the ends.
func (p *Presentation) Move(delta int) {
	p.GoTo(p.index + delta)
}

// GoTo shows page i, clamped to the valid range. The first change starts
// the timer.
func (p *Presentation) GoTo(i int) {
	if !p.started {
		p.index = p.clamp(i)
		return
	}
	if p.showTimer && !p.timerRunning {
		p.timerRunning = true
		p.timerStart = p.sched.Now()
	}
	i = p.clamp(i)
	if i == p.index {
		return
	}
	old := p.Page()
	if err := old.Leave(); err != nil {
		p.logger.Warn("page teardown", zap.Int("page", p.index+1), zap.Error(err))
	}
	p.index = i
	if err := p.Page().Enter(p.w, p.h); err != nil {
		p.logger.Error("page enter", zap.Int("page", p.index+1), zap.Error(err))
	}
	name, dur := p.Page().Sheet().Transition()
	if name == "fade" {
		p.fade.start(old.Background(), dur, p.w, p.h)
	}
	p.logger.Debug("page changed", zap.Int("page", p.index+1), zap.String("title", p.Page().Title()))
	p.refreshOverlay()
	p.notify()
}

func (p *Presentation) notify() {
	if p.sourceView != nil {
		p.sourceView.Highlight(p.Page().Source())
	}
	for _, fn := range p.listeners {
		fn(p.Page(), p.index)
	}
}

// Replace swaps in recompiled pages, keeping the current index where
// possible.
func (p *Presentation) Replace(pages []*page.Page, source string) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	if p.started {
		if err := p.Page().Leave(); err != nil {
			p.logger.Warn("page teardown", zap.Error(err))
		}
	}
	p.pages = pages
	for _, pg := range pages {
		pg.SetScheduler(p.sched)
	}
	p.index = p.clamp(p.index)
	if p.sourceView != nil {
		if err := p.sourceView.Close(); err != nil {
			p.logger.Warn("source view teardown", zap.Error(err))
		}
		p.sourceView = nil
		p.showSource = false
	}
	p.source = source
	if !p.started {
		return nil
	}
	if source != "" {
		p.sourceView = NewSourceView(source, p.fonts, WithSourceLogger(p.logger))
	}
	if err := p.Page().Enter(p.w, p.h); err != nil {
		return fmt.Errorf("enter page %d: %w", p.index+1, err)
	}
	p.refreshOverlay()
	p.notify()
	return nil
}

// Resize adapts the current page and overlays to a new screen size.
func (p *Presentation) Resize(w, h int) error {
	if w == p.w && h == p.h {
		return nil
	}
	p.w, p.h = w, h
	if !p.started {
		return nil
	}
	p.fade.stop()
	if err := p.overlay.leave(); err != nil {
		p.logger.Warn("overlay teardown", zap.Error(err))
	}
	p.overlay.enter(w, h, p.showTimer, p.showCount)
	p.refreshOverlay()
	if p.sourceView != nil && p.showSource {
		p.sourceView.Leave()
		if err := p.sourceView.Enter(w, h); err != nil {
			return err
		}
	}
	return p.Page().Resize(w, h)
}

// ToggleSource switches between the page and the source view.
func (p *Presentation) ToggleSource() {
	if p.sourceView == nil {
		return
	}
	p.showSource = !p.showSource
	if !p.showSource {
		p.sourceView.Leave()
		return
	}
	if err := p.sourceView.Enter(p.w, p.h); err != nil {
		p.logger.Warn("source view", zap.Error(err))
		p.showSource = false
		return
	}
	p.sourceView.Highlight(p.Page().Source())
}

// Do performs a keymap action.
func (p *Presentation) Do(a config.Action) {
	switch a {
	case config.ActionNext:
		p.Next()
	case config.ActionPrevious:
		p.Previous()
	case config.ActionForward:
		p.Move(jump)
	case config.ActionBack:
		p.Move(-jump)
	case config.ActionFirst:
		p.First()
	case config.ActionLast:
		p.Last()
	case config.ActionSource:
		p.ToggleSource()
	case config.ActionReload:
		if p.reload != nil {
			p.reload()
		}
	case config.ActionQuit:
		p.quit = true
	}
}

// HandleEvent routes an input event. Keys go to the page first, then to
// the keymap. A left click steps forward and a right click back; the
// wheel scrolls the source view or the page.
func (p *Presentation) HandleEvent(ev backend.Event) bool {
	if !p.started {
		return false
	}
	switch ev.Type {
	case backend.EventKey:
		if !p.showSource && p.Page().HandleKey(ev) {
			return true
		}
		a, ok := p.keymap.Lookup(ev)
		if !ok {
			return false
		}
		p.Do(a)
		return true
	case backend.EventMouse:
		prev := p.lastButton
		p.lastButton = ev.MouseButton
		switch ev.MouseButton {
		case backend.MouseWheelUp, backend.MouseWheelDown:
			if p.showSource {
				return p.sourceView.HandleMouse(ev)
			}
			return p.Page().HandleMouse(ev)
		case backend.MouseLeft:
			if prev != backend.MouseLeft {
				p.Next()
			}
			return true
		case backend.MouseRight:
			if prev != backend.MouseRight {
				p.Previous()
			}
			return true
		}
	case backend.EventResize:
		if err := p.Resize(ev.Width, ev.Height); err != nil {
			p.logger.Warn("resize", zap.Error(err))
		}
		return true
	}
	return false
}

// Update advances the clock, the current page and the overlays.
func (p *Presentation) Update(dt time.Duration) {
	p.sched.Advance(dt)
	if !p.started {
		return
	}
	p.Page().Update(dt)
	p.refreshOverlay()
}

func (p *Presentation) refreshOverlay() {
	timer := "--:--"
	if p.timerRunning {
		timer = FormatElapsed(p.Elapsed())
	}
	p.overlay.set(timer, fmt.Sprintf("%d/%d", p.index+1, len(p.pages)))
}

// FormatElapsed renders d as MM:SS.
func FormatElapsed(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// Background returns the clear color of the current frame.
func (p *Presentation) Background() core.Color {
	if p.showSource {
		return core.Black
	}
	return p.fade.background(p.Page().Background())
}

// Draw renders a frame: the page or source view, the transition veil,
// then the overlays.
func (p *Presentation) Draw(c backend.Canvas) error {
	if !p.started {
		return ErrNotStarted
	}
	c.Clear(p.Background())
	if p.showSource {
		p.sourceView.Draw(c)
	} else {
		p.Page().Draw(c)
		c.Draw(p.fade.batch)
	}
	c.Draw(p.overlay.batch)
	return c.Present()
}

// Close leaves the current page and releases overlays.
func (p *Presentation) Close() error {
	if !p.started {
		return nil
	}
	p.fade.stop()
	errs := p.Page().Leave()
	errs = multierr.Append(errs, p.overlay.leave())
	if p.sourceView != nil {
		errs = multierr.Append(errs, p.sourceView.Close())
	}
	for _, pg := range p.pages {
		pg.Document().Release()
	}
	p.sched.CancelAll()
	p.started = false
	return errs
}
