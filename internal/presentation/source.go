package presentation

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/page"
	"github.com/dshills/lectern/internal/renderer/backend"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
	"github.com/dshills/lectern/internal/renderer/layout"
)

var (
	sourceColor    = core.White
	highlightColor = core.RGBA(255, 0, 0, 255)
)

// SourceOption configures a SourceView.
type SourceOption func(*SourceView)

// WithSourceLogger sets the logger.
func WithSourceLogger(logger *zap.Logger) SourceOption {
	return func(v *SourceView) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// SourceView shows the markup with the current page's span in red,
// scrolled so the span starts one line below the top.
type SourceView struct {
	src    string
	doc    *document.Document
	fonts  font.Provider
	logger *zap.Logger
	batch  *batch.Batch
	layout *layout.Layout

	start, end int
}

// NewSourceView creates a view of src.
func NewSourceView(src string, fonts font.Provider, opts ...SourceOption) *SourceView {
	v := &SourceView{
		src:    src,
		fonts:  fonts,
		logger: zap.NewNop(),
		batch:  batch.New(),
	}
	for _, opt := range opts {
		opt(v)
	}
	doc, err := document.FromString(src, style.Attrs{
		style.KeyFontName: style.String("mono"),
		style.KeyFontSize: style.Int(12),
		style.KeyColor:    style.Color(sourceColor),
	})
	if err != nil {
		v.logger.Warn("source view", zap.Error(err))
		doc = document.New(nil)
	}
	v.doc = doc
	return v
}

// Entered reports whether the view is laid out.
func (v *SourceView) Entered() bool { return v.layout != nil }

// Layout returns the source layout, nil when not entered.
func (v *SourceView) Layout() *layout.Layout { return v.layout }

// Document returns the source document.
func (v *SourceView) Document() *document.Document { return v.doc }

// Enter lays the source out on a w by h screen.
func (v *SourceView) Enter(w, h int) error {
	if v.layout != nil {
		return nil
	}
	v.layout = layout.New(v.doc, v.batch, v.fonts, layout.WithLogger(v.logger))
	if err := v.layout.Enter(0, 0, w, h, layout.VAlignTop); err != nil {
		v.layout = nil
		return err
	}
	v.scroll()
	return nil
}

// Leave removes the view's geometry.
func (v *SourceView) Leave() {
	if v.layout != nil {
		v.layout.Leave()
		v.layout = nil
	}
}

// Close leaves and releases the document.
func (v *SourceView) Close() error {
	v.Leave()
	v.doc.Release()
	if n := v.batch.Len(); n != 0 {
		v.batch.Clear()
		return ErrLeak
	}
	return nil
}

// Highlight colors span, given in bytes of the source, and restores the
// previous span.
func (v *SourceView) Highlight(span page.Span) {
	start := utf8.RuneCountInString(v.src[:min(max(span.Start, 0), len(v.src))])
	end := utf8.RuneCountInString(v.src[:min(max(span.End, 0), len(v.src))])
	edit := func() {
		if v.end > v.start {
			_ = v.doc.SetStyle(v.start, v.end, style.Attrs{style.KeyColor: style.Color(sourceColor)})
		}
		if end > start {
			_ = v.doc.SetStyle(start, end, style.Attrs{style.KeyColor: style.Color(highlightColor)})
		}
	}
	if v.layout != nil && v.layout.BeginUpdate() == nil {
		edit()
		_ = v.layout.EndUpdate()
	} else {
		edit()
	}
	v.start, v.end = start, end
	v.scroll()
}

// Highlighted returns the highlighted rune range.
func (v *SourceView) Highlighted() (start, end int) { return v.start, v.end }

func (v *SourceView) scroll() {
	if v.layout == nil {
		return
	}
	lines := v.layout.Lines()
	y := 0
	if i := v.layout.LineForOffset(v.start); i > 0 {
		y = lines[i-1].Top
	}
	v.layout.SetView(0, y)
}

// HandleMouse scrolls on wheel events.
func (v *SourceView) HandleMouse(ev backend.Event) bool {
	if v.layout == nil {
		return false
	}
	x, y := v.layout.View()
	switch ev.MouseButton {
	case backend.MouseWheelUp:
		y = max(y-3, 0)
	case backend.MouseWheelDown:
		y = min(y+3, max(v.layout.ContentHeight()-v.layout.Viewport().H, 0))
	default:
		return false
	}
	v.layout.SetView(x, y)
	return true
}

// Draw paints the view.
func (v *SourceView) Draw(c backend.Canvas) {
	if v.layout != nil {
		c.Draw(v.batch)
	}
}
