package layout

import (
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/dirty"
	"github.com/dshills/lectern/internal/renderer/font"
)

// State is the lifecycle state of a Layout.
type State uint8

const (
	StateUnattached State = iota
	StateLaidOut
	StateUpdating
	StateTornDown
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateLaidOut:
		return "laid-out"
	case StateUpdating:
		return "updating"
	case StateTornDown:
		return "torn-down"
	default:
		return "unknown"
	}
}

// VAlign anchors the laid-out block vertically in the viewport.
type VAlign uint8

const (
	VAlignTop VAlign = iota
	VAlignCenter
	VAlignBottom
)

// ParseVAlign parses "top", "center" or "bottom".
func ParseVAlign(s string) (VAlign, bool) {
	switch s {
	case "top", "":
		return VAlignTop, true
	case "center":
		return VAlignCenter, true
	case "bottom":
		return VAlignBottom, true
	}
	return VAlignTop, false
}

// Stats counts re-flow work, for tests and the check command.
type Stats struct {
	// Changes is the number of document notifications received.
	Changes int

	// FullReflows counts complete line-breaking passes.
	FullReflows int

	// IncrementalReflows counts scoped re-flows.
	IncrementalReflows int

	// LinesBroken counts lines produced by line breaking.
	LinesBroken int

	// LinesReused counts lines kept and translated by scoped re-flows.
	LinesReused int
}

// Layout is the line-broken, positioned view of a Document.
// It implements document.Surface.
type Layout struct {
	doc    *document.Document
	batch  *batch.Batch
	fonts  font.Provider
	logger *zap.Logger
	tabs   *TabExpander
	color  core.Color
	layer  batch.Layer
	wrap   bool

	state  State
	depth  int
	x, y   int
	w, h   int
	valign VAlign
	viewX  int
	viewY  int

	// top is the absolute top of the block before scrolling.
	top int

	lines    []*Line
	contentW int
	contentH int

	dirty  *dirty.Tracker
	cancel func()
	stats  Stats
}

// New creates an unattached layout of doc. Geometry goes into b; a nil
// batch makes a measuring layout that breaks lines but draws nothing.
func New(doc *document.Document, b *batch.Batch, fonts font.Provider, opts ...Option) *Layout {
	l := &Layout{
		doc:    doc,
		batch:  b,
		fonts:  fonts,
		logger: zap.NewNop(),
		tabs:   DefaultTabExpander(),
		color:  core.White,
		layer:  batch.LayerContent,
		wrap:   true,
		dirty:  dirty.NewTracker(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Measure lays doc out at width without drawing and returns its natural
// content size.
func Measure(doc *document.Document, fonts font.Provider, width int) (w, h int) {
	l := New(doc, nil, fonts)
	if err := l.Enter(0, 0, width, 0, VAlignTop); err != nil {
		return 0, 0
	}
	defer l.Leave()
	return l.contentW, l.contentH
}

// Document returns the laid-out document.
func (l *Layout) Document() *document.Document { return l.doc }

// Batch returns the batch geometry is added to.
func (l *Layout) Batch() *batch.Batch { return l.batch }

// Clip returns the viewport rectangle, or an empty rectangle when the
// viewport has no height.
func (l *Layout) Clip() core.Rect {
	if l.w <= 0 || l.h <= 0 {
		return core.Rect{}
	}
	return core.R(l.x, l.y, l.w, l.h)
}

// State returns the lifecycle state.
func (l *Layout) State() State { return l.state }

// Viewport returns the viewport rectangle.
func (l *Layout) Viewport() core.Rect { return core.R(l.x, l.y, l.w, l.h) }

// VAlign returns the vertical anchor.
func (l *Layout) VAlign() VAlign { return l.valign }

// Stats returns the re-flow counters.
func (l *Layout) Stats() Stats { return l.stats }

// Enter lays the document out in the viewport (x, y, w, h), anchored by
// valign. A width of zero or less disables wrapping.
func (l *Layout) Enter(x, y, w, h int, valign VAlign) error {
	if l.state == StateLaidOut || l.state == StateUpdating {
		return fmt.Errorf("%w: enter while %s", ErrInvalidState, l.state)
	}
	l.x, l.y, l.w, l.h = x, y, w, h
	l.valign = valign
	l.viewX, l.viewY = 0, 0
	l.depth = 0

	l.cancel = l.doc.Subscribe(l.onChange)
	if l.batch != nil {
		l.doc.Attach(l)
	}
	l.state = StateLaidOut
	l.dirty.Clear()
	l.rebuild()
	return nil
}

// Leave removes all geometry, removes the placed elements from this layout
// and stops following the document.
func (l *Layout) Leave() {
	if l.state != StateLaidOut && l.state != StateUpdating {
		return
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	for _, ln := range l.lines {
		elems := ln.elems
		l.removeLine(ln)
		for _, p := range elems {
			p.el.Remove(l)
		}
	}
	if l.batch != nil {
		l.doc.Detach(l)
	}
	l.lines = nil
	l.contentW, l.contentH = 0, 0
	l.depth = 0
	l.dirty.Clear()
	l.state = StateTornDown
}

// Resize tears the layout down and enters it again with the new size.
func (l *Layout) Resize(w, h int) error {
	switch l.state {
	case StateUpdating:
		return fmt.Errorf("%w: resize during update", ErrInvalidState)
	case StateLaidOut:
		l.Leave()
		return l.Enter(l.x, l.y, w, h, l.valign)
	default:
		l.w, l.h = w, h
		return nil
	}
}

// BeginUpdate starts a bracket in which document changes are buffered.
// Brackets nest.
func (l *Layout) BeginUpdate() error {
	if l.state != StateLaidOut && l.state != StateUpdating {
		return fmt.Errorf("%w: begin update while %s", ErrInvalidState, l.state)
	}
	l.depth++
	l.state = StateUpdating
	return nil
}

// EndUpdate closes a bracket. The outermost EndUpdate re-flows once.
func (l *Layout) EndUpdate() error {
	if l.state != StateUpdating || l.depth == 0 {
		return fmt.Errorf("%w: end update without begin", ErrInvalidState)
	}
	l.depth--
	if l.depth > 0 {
		return nil
	}
	l.state = StateLaidOut
	l.reflow()
	return nil
}

// SetView sets the scroll offset. Geometry is translated, never re-broken.
func (l *Layout) SetView(x, y int) {
	dx, dy := l.viewX-x, l.viewY-y
	l.viewX, l.viewY = x, y
	l.translateAll(dx, dy)
}

// View returns the scroll offset.
func (l *Layout) View() (x, y int) { return l.viewX, l.viewY }

// SetPosition moves the viewport origin, translating all geometry.
func (l *Layout) SetPosition(x, y int) {
	dx, dy := x-l.x, y-l.y
	if dx == 0 && dy == 0 {
		return
	}
	l.x, l.y = x, y
	l.top += dy
	l.translateAll(dx, dy)
	clip := l.Clip()
	for _, ln := range l.lines {
		for _, it := range ln.items {
			it.SetClip(clip)
		}
	}
}

// Lines returns a copy of the visual lines.
func (l *Layout) Lines() []Line {
	out := make([]Line, len(l.lines))
	for i, ln := range l.lines {
		out[i] = *ln
		out[i].items, out[i].elems, out[i].glyphs = nil, nil, nil
	}
	return out
}

// LineCount returns the number of visual lines.
func (l *Layout) LineCount() int { return len(l.lines) }

// Top returns the absolute top of the block, including scrolling.
func (l *Layout) Top() int { return l.top - l.viewY }

// ContentWidth returns the widest line including paragraph margins.
func (l *Layout) ContentWidth() int { return l.contentW }

// ContentHeight returns the total height of all lines.
func (l *Layout) ContentHeight() int { return l.contentH }

// LineForOffset returns the index of the line holding off.
func (l *Layout) LineForOffset(off int) int {
	i := sort.Search(len(l.lines), func(i int) bool { return l.lines[i].Start > off })
	return max(i-1, 0)
}

func (l *Layout) origin() (int, int) {
	return l.x - l.viewX, l.top - l.viewY
}

func (l *Layout) anchorTop() int {
	switch l.valign {
	case VAlignCenter:
		return l.y + (l.h-l.contentH)/2
	case VAlignBottom:
		return l.y + l.h - l.contentH
	default:
		return l.y
	}
}

func (l *Layout) measure() {
	l.contentW, l.contentH = 0, 0
	for _, ln := range l.lines {
		l.contentW = max(l.contentW, ln.extent)
		l.contentH += ln.Height
	}
}

func (l *Layout) translateAll(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	ox, oy := l.origin()
	for _, ln := range l.lines {
		l.translateLine(ln, dx, dy, ox, oy)
	}
}

// onChange mirrors a document change onto the current lines and marks it
// dirty. Outside an update bracket it re-flows immediately.
func (l *Layout) onChange(c document.Change) {
	l.stats.Changes++
	switch c.Kind {
	case document.ChangeInsert:
		l.shiftLines(c.Offset, c.Length)
		l.dirty.MarkChange(dirty.Change{Type: dirty.ChangeInsert, Offset: c.Offset, Length: c.Length})
	case document.ChangeDelete:
		l.forget(c.Removed)
		l.shiftLines(c.Offset, -c.Length)
		l.dirty.MarkChange(dirty.Change{Type: dirty.ChangeDelete, Offset: c.Offset, Length: c.Length})
	case document.ChangeStyle:
		l.dirty.MarkChange(dirty.Change{Type: dirty.ChangeStyle, Offset: c.Offset, Length: c.Length})
	case document.ChangeElement:
		l.dirty.MarkChange(dirty.Change{Type: dirty.ChangeElement, Offset: c.Offset, Length: max(c.Length, 1)})
	}
	if l.depth == 0 {
		l.reflow()
	}
}

// forget drops placements of elements the document removed.
func (l *Layout) forget(removed []document.Element) {
	if len(removed) == 0 {
		return
	}
	for _, ln := range l.lines {
		ln.elems = slices.DeleteFunc(ln.elems, func(p placement) bool {
			return slices.Contains(removed, p.el)
		})
	}
}

// shiftLines moves line offsets through an edit. Lines that began inside a
// deleted window no longer begin at a real break and are dropped.
func (l *Layout) shiftLines(at, delta int) {
	shift := func(off int) int {
		if off < at {
			return off
		}
		if delta > 0 {
			return off + delta
		}
		if off < at-delta {
			return at
		}
		return off + delta
	}
	out := l.lines[:0]
	for _, ln := range l.lines {
		if delta < 0 && ln.Start > at && ln.Start <= at-delta {
			l.removeLine(ln)
			continue
		}
		ln.Start, ln.End, ln.Next = shift(ln.Start), shift(ln.End), shift(ln.Next)
		out = append(out, ln)
	}
	clear(l.lines[len(out):])
	l.lines = out
}

// rebuild breaks every line from scratch.
func (l *Layout) rebuild() {
	for _, ln := range l.lines {
		l.removeLine(ln)
	}
	l.lines = l.lines[:0]

	y := 0
	for pos := 0; ; {
		ln := l.breakLine(pos, y)
		l.lines = append(l.lines, ln)
		y += ln.Height
		if ln.Final {
			break
		}
		pos = ln.Next
	}
	l.stats.FullReflows++
	l.stats.LinesBroken += len(l.lines)

	l.measure()
	l.top = l.anchorTop()
	ox, oy := l.origin()
	for _, ln := range l.lines {
		l.build(ln, ox, oy)
	}
}

// reflow re-breaks the dirty part of the document.
func (l *Layout) reflow() {
	if !l.dirty.IsDirty() {
		return
	}
	span, ok := l.dirty.Span()
	full := l.dirty.NeedsFull()
	l.dirty.Clear()
	if full || !ok || len(l.lines) == 0 {
		l.rebuild()
		return
	}

	text := l.doc.Rope()
	n := text.Len()
	ds := min(span.Start, n)
	de := paragraphEnd(text, min(span.End, n))

	k := l.LineForOffset(ds)
	first := max(k-1, 0)
	old := l.lines
	pos, y := old[first].Start, old[first].Top
	if first == 0 {
		pos, y = 0, 0
	}

	var fresh []*Line
	j := first
	for {
		for j < len(old) && old[j].Start < pos {
			j++
		}
		// The empty line at n belongs to the paragraph before it, so it is
		// never reused.
		if pos > ds && pos >= de && pos < n && j < len(old) && old[j].Start == pos {
			break
		}
		ln := l.breakLine(pos, y)
		fresh = append(fresh, ln)
		y += ln.Height
		if ln.Final {
			j = len(old)
			break
		}
		pos = ln.Next
	}

	for _, ln := range old[first:j] {
		l.removeLine(ln)
	}
	tail := old[j:]

	lines := make([]*Line, 0, first+len(fresh)+len(tail))
	lines = append(lines, old[:first]...)
	lines = append(lines, fresh...)
	lines = append(lines, tail...)
	l.lines = lines

	l.stats.IncrementalReflows++
	l.stats.LinesBroken += len(fresh)
	l.stats.LinesReused += len(tail)

	ox, oy := l.origin()
	for _, ln := range fresh {
		l.build(ln, ox, oy)
	}
	if len(tail) > 0 {
		if dy := y - tail[0].Top; dy != 0 {
			for _, ln := range tail {
				ln.Top += dy
				l.translateLine(ln, 0, dy, ox, oy)
			}
		}
	}

	l.measure()
	if top := l.anchorTop(); top != l.top {
		dy := top - l.top
		l.top = top
		l.translateAll(0, dy)
	}
}
