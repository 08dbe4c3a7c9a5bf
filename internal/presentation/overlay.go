package presentation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
	"github.com/dshills/lectern/internal/renderer/layout"
)

var overlayColor = core.RGBA(255, 255, 255, 150)

// label is one line of overlay text anchored to the bottom-right corner.
type label struct {
	doc    *document.Document
	layout *layout.Layout
}

// overlay holds the timer and page count, stacked in the bottom-right
// corner with the timer lowest.
type overlay struct {
	fonts  font.Provider
	logger *zap.Logger
	batch  *batch.Batch
	timer  *label
	count  *label
}

func newOverlay(fonts font.Provider, logger *zap.Logger) *overlay {
	return &overlay{fonts: fonts, logger: logger, batch: batch.New()}
}

func overlayAttrs() style.Attrs {
	return style.Attrs{
		style.KeyFontName: style.String("mono"),
		style.KeyFontSize: style.Int(24),
		style.KeyColor:    style.Color(overlayColor),
		style.KeyAlign:    style.String("right"),
	}
}

func (o *overlay) enter(w, h int, timer, count bool) {
	bottom := h
	if timer {
		o.timer = o.newLabel("--:--", w, &bottom)
	}
	if count {
		o.count = o.newLabel("0/0", w, &bottom)
	}
}

// newLabel lays text out in a full-width box ending at *bottom and moves
// *bottom above it.
func (o *overlay) newLabel(text string, w int, bottom *int) *label {
	doc, err := document.FromString(text, overlayAttrs())
	if err != nil {
		o.logger.Warn("overlay label", zap.Error(err))
		return nil
	}
	_, lh := layout.Measure(doc, o.fonts, w)
	l := layout.New(doc, o.batch, o.fonts,
		layout.WithLogger(o.logger),
		layout.WithLayer(batch.LayerOverlay),
	)
	if err := l.Enter(0, *bottom-lh, w, lh, layout.VAlignBottom); err != nil {
		o.logger.Warn("overlay label", zap.Error(err))
		return nil
	}
	*bottom -= lh
	return &label{doc: doc, layout: l}
}

func (o *overlay) set(timer, count string) {
	o.timer.set(timer)
	o.count.set(count)
}

// set replaces the label text; the layout re-flows incrementally.
func (lb *label) set(text string) {
	if lb == nil || lb.doc.Text() == text {
		return
	}
	if err := lb.layout.BeginUpdate(); err != nil {
		return
	}
	_ = lb.doc.DeleteText(0, lb.doc.Len())
	_ = lb.doc.InsertText(0, text, nil)
	_ = lb.layout.EndUpdate()
}

func (lb *label) text() string {
	if lb == nil {
		return ""
	}
	return lb.doc.Text()
}

func (o *overlay) leave() error {
	for _, lb := range []*label{o.timer, o.count} {
		if lb != nil {
			lb.layout.Leave()
		}
	}
	o.timer, o.count = nil, nil
	if n := o.batch.Len(); n != 0 {
		o.batch.Clear()
		return fmt.Errorf("%w: %d overlay items", ErrLeak, n)
	}
	return nil
}
