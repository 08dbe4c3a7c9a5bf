package layout

import (
	"math"
	"unicode"

	"go.uber.org/zap"
	xfont "golang.org/x/image/font"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/rope"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
)

// LineSeparator forces a line break without ending the paragraph.
const LineSeparator = '\u2028'

// HAlign is the horizontal alignment of a paragraph.
type HAlign uint8

const (
	HAlignLeft HAlign = iota
	HAlignCenter
	HAlignRight
)

// ParseHAlign parses "left", "center" or "right".
func ParseHAlign(s string) (HAlign, bool) {
	switch s {
	case "left", "":
		return HAlignLeft, true
	case "center":
		return HAlignCenter, true
	case "right":
		return HAlignRight, true
	}
	return HAlignLeft, false
}

// Line is one visual line. Offsets are runes in the document; Top is
// relative to the top of the laid-out block.
type Line struct {
	// Start is the offset of the first rune on the line.
	Start int

	// End is the offset after the last rune drawn on the line.
	End int

	// Next is where the following line starts. It differs from End when the
	// line was ended by a newline or line separator.
	Next int

	// Top and Height place the line vertically, including paragraph spacing.
	Top    int
	Height int

	// Ascent and Descent are the maxima over the line's glyphs and elements.
	Ascent  int
	Descent int

	// X is the left edge of the ink relative to the viewport; Width is the
	// ink width without trailing whitespace.
	X     int
	Width int

	// Final marks the last line of the document.
	Final bool

	// before is the paragraph spacing above the ascent.
	before int

	// extent is the margin-inclusive natural width.
	extent int

	glyphs []glyph
	items  []*batch.Item
	elems  []placement
}

// Baseline returns the baseline relative to the block top.
func (ln *Line) Baseline() int {
	return ln.Top + ln.before + ln.Ascent
}

// placement records where an element sits, relative to the viewport left
// and the line top.
type placement struct {
	el   document.Element
	x    int
	base int
}

type glyph struct {
	off int
	r   rune
	x   int
	adv int
	sty *runStyle
	el  document.Element
	m   document.Metrics
}

// runStyle is the resolved drawing style of one span.
type runStyle struct {
	face  xfont.Face
	color core.Color
	bg    core.Color
	attrs core.Attribute
}

// paragraph holds the attributes read at a paragraph's first rune.
type paragraph struct {
	align       HAlign
	marginLeft  int
	marginRight int
	marginTop   int
	marginBot   int
	indent      int
	leading     int
}

var textKeys = []string{
	style.KeyColor, style.KeyBackground, style.KeyFontName, style.KeyFontSize,
	style.KeyBold, style.KeyItalic, style.KeyUnderline,
}

func (l *Layout) paragraphAt(off int) paragraph {
	st := l.doc.Styles()
	align, _ := ParseHAlign(st.ValueAt(style.KeyAlign, off).AsString("left"))
	return paragraph{
		align:       align,
		marginLeft:  st.ValueAt(style.KeyMarginLeft, off).AsInt(0),
		marginRight: st.ValueAt(style.KeyMarginRight, off).AsInt(0),
		marginTop:   st.ValueAt(style.KeyMarginTop, off).AsInt(0),
		marginBot:   st.ValueAt(style.KeyMarginBottom, off).AsInt(0),
		indent:      st.ValueAt(style.KeyIndent, off).AsInt(0),
		leading:     st.ValueAt(style.KeyLeading, off).AsInt(0),
	}
}

func (l *Layout) attrsAt(off int) style.Attrs {
	st := l.doc.Styles()
	attrs := make(style.Attrs, len(textKeys))
	for _, k := range textKeys {
		if v := st.ValueAt(k, off); !v.IsZero() {
			attrs[k] = v
		}
	}
	return attrs
}

// styleFor resolves span attributes to a face and colors.
func (l *Layout) styleFor(attrs style.Attrs) *runStyle {
	spec := font.Spec{
		Name:   attrs[style.KeyFontName].AsString(""),
		Size:   attrs[style.KeyFontSize].AsFloat(0),
		Bold:   attrs[style.KeyBold].AsBool(),
		Italic: attrs[style.KeyItalic].AsBool(),
	}
	rs := &runStyle{
		face:  l.fonts.Face(spec),
		color: attrs[style.KeyColor].AsColor(l.color),
		bg:    attrs[style.KeyBackground].AsColor(core.Transparent),
	}
	if spec.Bold {
		rs.attrs = rs.attrs.With(core.AttrBold)
	}
	if spec.Italic {
		rs.attrs = rs.attrs.With(core.AttrItalic)
	}
	if attrs[style.KeyUnderline].AsBool() {
		rs.attrs = rs.attrs.With(core.AttrUnderline)
	}
	return rs
}

// paragraphBounds returns the start of the paragraph holding pos and the
// offset of its terminating newline (or the document length).
func paragraphBounds(text rope.Rope, pos int) (start, end int) {
	ln := text.LineOf(pos)
	start = text.LineStart(ln)
	end = text.Len()
	if ln+1 < text.LineCount() {
		end = text.LineStart(ln+1) - 1
	}
	return start, end
}

// paragraphEnd returns the offset where the paragraph after the one holding
// off begins, or the document length.
func paragraphEnd(text rope.Rope, off int) int {
	_, end := paragraphBounds(text, off)
	return min(end+1, text.Len())
}

// breakLine lays out one line starting at pos. top is the line's position
// relative to the block.
func (l *Layout) breakLine(pos, top int) *Line {
	text := l.doc.Rope()
	n := text.Len()
	para, pend := paragraphBounds(text, pos)
	pa := l.paragraphAt(para)

	first := pos == para
	left := pa.marginLeft
	if first {
		left += pa.indent
	}
	avail := math.MaxInt
	if l.wrap && l.w > 0 {
		avail = max(l.w-left-pa.marginRight, 0)
	}

	ln := &Line{Start: pos, End: pend, Next: pend + 1, Top: top}
	if pend >= n {
		ln.Next, ln.Final = n, true
	}

	var glyphs []glyph
	x, ink := 0, 0
	brk, brkInk := -1, 0
	prev, prevFace := rune(-1), xfont.Face(nil)

scan:
	for span := range l.doc.Styles().Spans(pos, pend, textKeys...) {
		rs := l.styleFor(span.Attrs)
		for off, ch := range l.doc.Runes(span.Start) {
			if off >= span.End {
				break
			}
			if ch == LineSeparator {
				ln.End, ln.Next, ln.Final = off, off+1, false
				break scan
			}

			g := glyph{off: off, r: ch, x: x, sty: rs}
			switch {
			case ch == '\t':
				g.adv = l.tabs.Advance(x, font.Advance(rs.face, ' '))
			case ch == document.Sentinel:
				if el, ok := l.doc.ElementAt(off); ok {
					g.el, g.m = el, el.Metrics()
					g.adv = g.m.Advance
				}
			default:
				g.adv = font.Advance(rs.face, ch)
				if prevFace == rs.face {
					g.adv += font.Kern(rs.face, prev, ch)
				}
			}
			prev, prevFace = ch, rs.face

			if g.el == nil && unicode.IsSpace(ch) {
				glyphs = append(glyphs, g)
				x += g.adv
				brk, brkInk = len(glyphs), ink
				continue
			}

			if x+g.adv > avail && brk > 0 {
				ln.End, ln.Next, ln.Final = off, off, false
				if brk < len(glyphs) {
					ln.End, ln.Next = glyphs[brk].off, glyphs[brk].off
				}
				glyphs = glyphs[:brk]
				ink = brkInk
				break scan
			}

			glyphs = append(glyphs, g)
			x += g.adv
			ink = x
		}
	}

	ln.glyphs = glyphs
	ln.Width = ink
	l.measureLine(ln, pa, first, ln.End == pend, left)
	return ln
}

// measureLine computes the vertical metrics and horizontal alignment.
func (l *Layout) measureLine(ln *Line, pa paragraph, first, last bool, left int) {
	for _, g := range ln.glyphs {
		if g.el != nil {
			ln.Ascent = max(ln.Ascent, g.m.Ascent)
			ln.Descent = max(ln.Descent, g.m.Descent)
			continue
		}
		ln.Ascent = max(ln.Ascent, font.Ascent(g.sty.face))
		ln.Descent = max(ln.Descent, font.Descent(g.sty.face))
	}
	if len(ln.glyphs) == 0 {
		face := l.styleFor(l.attrsAt(ln.Start)).face
		ln.Ascent, ln.Descent = font.Ascent(face), font.Descent(face)
	}

	after := 0
	if first {
		ln.before = pa.marginTop
	}
	if last {
		after = pa.marginBot
	}
	ln.Height = ln.before + ln.Ascent + ln.Descent + pa.leading + after

	ln.X = left
	ln.extent = left + ln.Width + pa.marginRight
	if l.w > 0 {
		slack := max(l.w-left-pa.marginRight-ln.Width, 0)
		switch pa.align {
		case HAlignCenter:
			ln.X += slack / 2
		case HAlignRight:
			ln.X += slack
		}
	}
}

// build adds the geometry of ln at the given origin and places its
// elements. The glyph records are dropped afterwards.
func (l *Layout) build(ln *Line, ox, oy int) {
	glyphs := ln.glyphs
	ln.glyphs = nil
	if l.batch == nil {
		return
	}

	clip := l.Clip()
	base := oy + ln.Baseline()
	for i := 0; i < len(glyphs); {
		g := glyphs[i]
		if g.el != nil {
			ln.elems = append(ln.elems, placement{el: g.el, x: ln.X + g.x, base: ln.before + ln.Ascent})
			i++
			continue
		}

		j := i
		var run []batch.Glyph
		for ; j < len(glyphs) && glyphs[j].el == nil && glyphs[j].sty == g.sty; j++ {
			gj := glyphs[j]
			if unicode.IsSpace(gj.r) || gj.r == document.Sentinel {
				continue
			}
			run = append(run, batch.Glyph{R: gj.r, X: ox + ln.X + gj.x, Y: base, Advance: gj.adv})
		}
		last := glyphs[j-1]
		x0 := ox + ln.X + g.x
		x1 := ox + ln.X + last.x + last.adv
		asc, desc := font.Ascent(g.sty.face), font.Descent(g.sty.face)
		bounds := core.R(x0, base-asc, x1-x0, asc+desc)

		if !g.sty.bg.IsTransparent() {
			bg := l.batch.AddQuad(l.layer-1, bounds, g.sty.bg)
			bg.SetClip(clip)
			ln.items = append(ln.items, bg)
		}
		if len(run) > 0 {
			it := l.batch.AddText(l.layer, g.sty.face, g.sty.color, g.sty.attrs, run, bounds)
			it.SetClip(clip)
			ln.items = append(ln.items, it)
		}
		i = j
	}
	l.placeElements(ln, ox, oy)
}

func (l *Layout) placeElements(ln *Line, ox, oy int) {
	for _, p := range ln.elems {
		if err := p.el.Place(l, ox+p.x, oy+ln.Top+p.base); err != nil {
			l.logger.Warn("element placement failed", zap.Error(err))
		}
	}
}

// translateLine moves ln's geometry and re-places its elements.
func (l *Layout) translateLine(ln *Line, dx, dy, ox, oy int) {
	for _, it := range ln.items {
		it.Translate(dx, dy)
	}
	l.placeElements(ln, ox, oy)
}

// removeLine drops ln's geometry. Elements stay placed: they either move
// to a fresh line or were removed by the document.
func (l *Layout) removeLine(ln *Line) {
	for _, it := range ln.items {
		it.Remove()
	}
	ln.items = nil
	ln.elems = nil
}
