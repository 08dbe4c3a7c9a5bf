package table

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
	"github.com/dshills/lectern/internal/renderer/layout"
)

// headingRule is the extra height below a heading row when a border is
// drawn; the heading separator is a double line.
const headingRule = 3

// Row is one table row.
type Row struct {
	Heading bool
	Cells   []*document.Document
}

// Spec is the content of a table. ColumnWidths are relative hints; zero
// or missing hints count as 1.
type Spec struct {
	ColumnWidths []int
	Rows         []Row
}

// Style controls padding, colors and the border.
type Style struct {
	PadLeft, PadRight int
	PadTop, PadBottom int
	Border            bool
	BorderColor       core.Color
	HeadingBackground core.Color
	EvenBackground    core.Color
	OddBackground     core.Color
	CellVAlign        layout.VAlign
	DefaultColor      core.Color
}

// DefaultStyle returns the style used when none is configured.
func DefaultStyle() Style {
	return Style{
		PadLeft:           1,
		PadRight:          1,
		Border:            true,
		BorderColor:       core.Gray,
		HeadingBackground: core.RGBA(60, 60, 90, 255),
		EvenBackground:    core.RGBA(40, 40, 40, 255),
		OddBackground:     core.RGBA(25, 25, 25, 255),
		CellVAlign:        layout.VAlignTop,
		DefaultColor:      core.White,
	}
}

// Option configures a Table.
type Option func(*Table)

// WithStyle sets the table style.
func WithStyle(s Style) Option {
	return func(t *Table) { t.style = s }
}

// WithFonts sets the font provider cells are measured and drawn with.
func WithFonts(p font.Provider) Option {
	return func(t *Table) {
		if p != nil {
			t.fonts = p
		}
	}
}

// WithLayer sets the layer cell text is drawn on. Backgrounds go one layer
// below.
func WithLayer(layer batch.Layer) Option {
	return func(t *Table) { t.layer = layer }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

type cell struct {
	doc   *document.Document
	sizes []style.Run
	runs  []document.ColorRun
}

type placement struct {
	x, y    int
	layouts []*layout.Layout
	quads   []*batch.Item
	border  *batch.Item
}

// Table is a grid of cell documents. It implements document.Element and
// document.Owned.
type Table struct {
	owner *document.Document

	spec   Spec
	style  Style
	fonts  font.Provider
	layer  batch.Layer
	logger *zap.Logger

	cells   [][]cell
	columns int
	width   int
	scale   float64
	alpha   uint8

	colW   []int
	rowH   []int
	totalW int
	totalH int

	placed map[document.Surface]*placement
}

// New builds a table fitted to width and measures it.
func New(spec Spec, width int, opts ...Option) (*Table, error) {
	if len(spec.Rows) == 0 {
		return nil, ErrEmptyTable
	}
	columns := len(spec.Rows[0].Cells)
	if columns == 0 {
		return nil, ErrEmptyTable
	}
	t := &Table{
		spec:    spec,
		style:   DefaultStyle(),
		fonts:   font.Grid{},
		layer:   batch.LayerElement,
		logger:  zap.NewNop(),
		columns: columns,
		width:   width,
		scale:   1,
		alpha:   255,
		placed:  make(map[document.Surface]*placement),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.cells = make([][]cell, len(spec.Rows))
	for r, row := range spec.Rows {
		if len(row.Cells) != columns {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedRow, r, len(row.Cells), columns)
		}
		t.cells[r] = make([]cell, columns)
		for c, doc := range row.Cells {
			t.cells[r][c] = cell{
				doc:   doc,
				sizes: slices.Collect(doc.StyleRuns(style.KeyFontSize, 0, doc.Len())),
				runs:  doc.ColorRuns(0, doc.Len(), t.style.DefaultColor),
			}
		}
	}
	t.measure()
	return t, nil
}

// SetOwner implements document.Owned.
func (t *Table) SetOwner(d *document.Document) { t.owner = d }

// Rows returns the number of rows.
func (t *Table) Rows() int { return len(t.cells) }

// Columns returns the number of columns.
func (t *Table) Columns() int { return t.columns }

// ColumnWidths returns the final column widths.
func (t *Table) ColumnWidths() []int { return append([]int(nil), t.colW...) }

// RowHeights returns the final row heights.
func (t *Table) RowHeights() []int { return append([]int(nil), t.rowH...) }

// Proportional returns the column widths the hints alone would give.
func (t *Table) Proportional() []int {
	return proportional(t.spec.ColumnWidths, t.columns, scaleInt(t.width, t.scale))
}

// Cell returns the document of a cell.
func (t *Table) Cell(row, col int) *document.Document { return t.cells[row][col].doc }

func scaleInt(n int, f float64) int { return int(float64(n)*f + 0.5) }

// proportional splits avail by the hints: hint_i * avail / sum(hints).
func proportional(hints []int, columns, avail int) []int {
	hs := make([]int, columns)
	sum := 0
	for i := range hs {
		hs[i] = 1
		if i < len(hints) && hints[i] > 0 {
			hs[i] = hints[i]
		}
		sum += hs[i]
	}
	out := make([]int, columns)
	for i, h := range hs {
		out[i] = h * avail / sum
	}
	return out
}

// measure is the first pass: throwaway layouts size every cell.
func (t *Table) measure() {
	hpad := t.style.PadLeft + t.style.PadRight
	vpad := t.style.PadTop + t.style.PadBottom
	prop := t.Proportional()

	content := make([]int, t.columns)
	t.rowH = make([]int, len(t.cells))
	for r, row := range t.cells {
		h := 0
		for c, cl := range row {
			cw, ch := layout.Measure(cl.doc, t.fonts, max(prop[c]-hpad, 1))
			content[c] = max(content[c], cw)
			h = max(h, ch)
		}
		t.rowH[r] = h + vpad + t.rule(r)
	}

	t.colW = make([]int, t.columns)
	t.totalW, t.totalH = 0, 0
	for c := range t.colW {
		t.colW[c] = max(prop[c], content[c]+hpad)
		t.totalW += t.colW[c]
	}
	for _, h := range t.rowH {
		t.totalH += h
	}
}

// rule returns the border allowance below row r.
func (t *Table) rule(r int) int {
	switch {
	case !t.style.Border:
		return 0
	case t.spec.Rows[r].Heading:
		return headingRule
	case r < len(t.cells)-1:
		return 1
	default:
		return 0
	}
}

// Metrics implements document.Element. The baseline sits under the first
// row.
func (t *Table) Metrics() document.Metrics {
	return document.Metrics{Ascent: t.rowH[0], Descent: t.totalH - t.rowH[0], Advance: t.totalW}
}

// Place implements document.Element.
func (t *Table) Place(s document.Surface, x, y int) error {
	if p, ok := t.placed[s]; ok {
		if p.x == x && p.y == y {
			return nil
		}
		t.move(p, x-p.x, y-p.y)
		p.x, p.y = x, y
		return nil
	}
	b := s.Batch()
	if b == nil {
		return nil
	}
	p, err := t.build(s, b, x, y)
	if err != nil {
		return err
	}
	t.placed[s] = p
	return nil
}

// build is the second pass: real cell layouts, backgrounds and border.
func (t *Table) build(s document.Surface, b *batch.Batch, x, y int) (*placement, error) {
	p := &placement{x: x, y: y}
	clip := s.Clip()
	hpad := t.style.PadLeft + t.style.PadRight
	vpad := t.style.PadTop + t.style.PadBottom

	ry := y - t.rowH[0]
	for r, row := range t.cells {
		cx := x
		h := t.rowH[r]
		for c, cl := range row {
			w := t.colW[c]
			q := b.AddQuad(t.layer-1, core.R(cx, ry, w, h), t.background(r).ScaleAlpha(t.alpha))
			q.SetClip(clip)
			p.quads = append(p.quads, q)

			lay := layout.New(cl.doc, b, t.fonts,
				layout.WithLayer(t.layer),
				layout.WithColor(t.style.DefaultColor),
				layout.WithLogger(t.logger))
			inner := h - vpad - t.rule(r)
			if err := lay.Enter(cx+t.style.PadLeft, ry+t.style.PadTop, max(w-hpad, 1), max(inner, 0), t.style.CellVAlign); err != nil {
				t.teardown(p)
				return nil, err
			}
			p.layouts = append(p.layouts, lay)
			cx += w
		}
		ry += h
	}

	if t.style.Border {
		p.border = b.AddLines(t.layer, t.borderLines(x, y-t.rowH[0]), t.style.BorderColor.ScaleAlpha(t.alpha))
		p.border.SetClip(clip)
	}
	return p, nil
}

func (t *Table) background(r int) core.Color {
	switch {
	case t.spec.Rows[r].Heading:
		return t.style.HeadingBackground
	case r%2 == 0:
		return t.style.EvenBackground
	default:
		return t.style.OddBackground
	}
}

// borderLines returns segment pairs for the outer frame, the column
// separators and the row separators. Heading rows get a double rule.
func (t *Table) borderLines(x, top int) []core.Point {
	right, bottom := x+t.totalW-1, top+t.totalH-1
	pts := []core.Point{
		{X: x, Y: top}, {X: right, Y: top},
		{X: x, Y: bottom}, {X: right, Y: bottom},
		{X: x, Y: top}, {X: x, Y: bottom},
		{X: right, Y: top}, {X: right, Y: bottom},
	}
	cx := x
	for _, w := range t.colW[:len(t.colW)-1] {
		cx += w
		pts = append(pts, core.Point{X: cx, Y: top}, core.Point{X: cx, Y: bottom})
	}
	ry := top
	for r, h := range t.rowH[:len(t.rowH)-1] {
		ry += h
		pts = append(pts, core.Point{X: x, Y: ry - 1}, core.Point{X: right, Y: ry - 1})
		if t.spec.Rows[r].Heading {
			pts = append(pts, core.Point{X: x, Y: ry - headingRule}, core.Point{X: right, Y: ry - headingRule})
		}
	}
	return pts
}

func (t *Table) move(p *placement, dx, dy int) {
	for _, lay := range p.layouts {
		v := lay.Viewport()
		lay.SetPosition(v.X+dx, v.Y+dy)
	}
	for _, q := range p.quads {
		q.Translate(dx, dy)
	}
	if p.border != nil {
		p.border.Translate(dx, dy)
	}
}

func (t *Table) teardown(p *placement) {
	for _, lay := range p.layouts {
		lay.Leave()
	}
	for _, q := range p.quads {
		q.Remove()
	}
	if p.border != nil {
		p.border.Remove()
	}
}

// Remove implements document.Element. Remove(nil) also calls Remove(nil)
// on the elements held by the cells; they stay in the cells and can be
// placed again.
func (t *Table) Remove(s document.Surface) {
	for k, p := range t.placed {
		if s == nil || k == s {
			t.teardown(p)
			delete(t.placed, k)
		}
	}
	if s == nil {
		for _, row := range t.cells {
			for _, cl := range row {
				cl.doc.Release()
			}
		}
	}
}

// SetOpacity implements document.Element. Cell text, cell elements,
// backgrounds and the border all fade together.
func (t *Table) SetOpacity(v uint8) {
	if v == t.alpha {
		return
	}
	t.alpha = v
	for _, p := range t.placed {
		for _, lay := range p.layouts {
			if err := lay.BeginUpdate(); err != nil {
				t.logger.Warn("table cell update", zap.Error(err))
			}
		}
	}
	for _, row := range t.cells {
		for _, cl := range row {
			if err := cl.doc.ApplyOpacity(cl.runs, v); err != nil {
				t.logger.Warn("table cell opacity", zap.Error(err))
			}
			for _, el := range cl.doc.Elements() {
				el.SetOpacity(v)
			}
		}
	}
	for _, p := range t.placed {
		for _, lay := range p.layouts {
			if err := lay.EndUpdate(); err != nil {
				t.logger.Warn("table cell update", zap.Error(err))
			}
		}
		for i, q := range p.quads {
			q.SetColor(t.background(i / t.columns).ScaleAlpha(v))
		}
		if p.border != nil {
			p.border.SetColor(t.style.BorderColor.ScaleAlpha(v))
		}
	}
}

// SetScale implements document.Element. Cell fonts and the available
// width scale together, the table is measured again and every placement
// is rebuilt where it stood.
func (t *Table) SetScale(f float64) {
	if f <= 0 || f == t.scale {
		return
	}
	t.scale = f
	surfaces := make(map[document.Surface]*placement, len(t.placed))
	for s, p := range t.placed {
		t.teardown(p)
		surfaces[s] = p
	}
	clear(t.placed)

	for _, row := range t.cells {
		for _, cl := range row {
			for _, r := range cl.sizes {
				size := r.Value.AsFloat(0)
				if size <= 0 {
					continue
				}
				if err := cl.doc.SetStyle(r.Start, r.End, style.Attrs{style.KeyFontSize: style.Float(size * f)}); err != nil {
					t.logger.Warn("table cell scale", zap.Error(err))
				}
			}
			for _, el := range cl.doc.Elements() {
				el.SetScale(f)
			}
		}
	}

	before := t.Metrics()
	t.measure()
	for s, old := range surfaces {
		p, err := t.build(s, s.Batch(), old.x, old.y)
		if err != nil {
			t.logger.Warn("table rebuild", zap.Error(err))
			continue
		}
		t.placed[s] = p
	}
	if t.Metrics() != before && t.owner != nil {
		if err := t.owner.ElementChanged(t); err != nil {
			t.logger.Warn("table resize", zap.Error(err))
		}
	}
}
