package markup

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/config/loader"
	"github.com/dshills/lectern/internal/decoration"
	"github.com/dshills/lectern/internal/element"
	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/expose"
	"github.com/dshills/lectern/internal/page"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
	"github.com/dshills/lectern/internal/renderer/layout"
	"github.com/dshills/lectern/internal/table"
)

// lineSeparator breaks a line without ending the paragraph.
const lineSeparator = string(layout.LineSeparator)

// defaultBullets cycle by list depth when list.bullet is unset.
const defaultBullets = "●○□"

// Compile turns markdown into pages. The returned error combines the
// warnings of everything that was skipped; the pages are valid even when
// it is non-nil.
func Compile(src []byte, opts ...Option) ([]*page.Page, error) {
	c := newCompiler(src, opts)
	for _, b := range Parse(src) {
		c.topLevel(b)
	}
	c.flush(len(src))
	return c.pages, c.warnings
}

// blockCtx carries the surroundings of a block.
type blockCtx struct {
	section string
	margin  int
	indent  int
	depth   int
}

type compiler struct {
	options
	src []byte

	raw    *config.Sheet
	sheet  *config.Sheet
	deco   *decoration.Spec
	footer *string

	cur       *pageBuilder
	pageStart int
	lastEnd   int

	pages    []*page.Page
	warnings error
}

// pageBuilder accumulates one page.
type pageBuilder struct {
	docBuilder
	title  string
	groups []expose.Group
}

func newCompiler(src []byte, opts []Option) *compiler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &compiler{options: o, src: src, pageStart: -1}
	raw := o.sheet
	if raw == nil {
		raw = config.Default()
	}
	c.setSheet(raw.Clone(), -1)
	return c
}

// setSheet replaces the current sheet and the decoration it carries.
func (c *compiler) setSheet(raw *config.Sheet, off int) {
	c.raw = raw
	c.sheet = raw.Clone()
	if c.spacing != 1 {
		c.sheet.ScaleSpacing(c.spacing)
	}
	spec, err := decoration.Parse(raw.Decoration())
	c.warn(off, err)
	c.deco = spec
}

// restyle re-derives the scaled sheet after c.raw changed.
func (c *compiler) restyle() {
	c.sheet = c.raw.Clone()
	if c.spacing != 1 {
		c.sheet.ScaleSpacing(c.spacing)
	}
}

func (c *compiler) warn(off int, err error) {
	c.warnLine(c.line(off), err)
}

func (c *compiler) warnLine(line int, err error) {
	for _, e := range multierr.Errors(err) {
		c.warnings = multierr.Append(c.warnings, &ParseError{Line: line, Err: e})
	}
}

// line converts a byte offset into a 1-based line number.
func (c *compiler) line(off int) int {
	if off < 0 || off > len(c.src) {
		return 0
	}
	return bytes.Count(c.src[:off], []byte{'\n'}) + 1
}

func (c *compiler) page() *pageBuilder {
	if c.cur == nil {
		c.cur = &pageBuilder{docBuilder: newDocBuilder(c.sheet.Resolved(config.SectionDefault))}
	}
	return c.cur
}

func (c *compiler) topLevel(b Block) {
	sp := b.Source()
	switch b := b.(type) {
	case *Heading:
		if b.Level <= 2 {
			if sp.Start >= 0 {
				c.flush(sp.Start)
			} else {
				c.flush(c.lastEnd)
			}
			c.mark(sp)
			c.page().title = norm.NFC.String(PlainText(b.Inlines))
			c.lastEnd = max(c.lastEnd, sp.End)
			return
		}
	case *ThematicBreak:
		c.flush(c.lastEnd)
		return
	}
	c.mark(sp)
	c.block(b, blockCtx{section: config.SectionDefault})
	if sp.End > c.lastEnd {
		c.lastEnd = sp.End
	}
}

// mark records where the current page's markup begins.
func (c *compiler) mark(sp page.Span) {
	if c.pageStart < 0 && sp.Start >= 0 {
		c.pageStart = sp.Start
	}
}

// flush finishes the current page; its markup ends at end. Pages with
// neither text nor title are dropped and their markup carries over.
func (c *compiler) flush(end int) {
	pb := c.cur
	c.cur = nil
	if pb == nil || (pb.doc.Len() == 0 && pb.title == "") {
		return
	}
	start := c.pageStart
	if start < 0 {
		start = c.lastEnd
	}
	end = max(end, start)
	c.pageStart = -1
	c.lastEnd = end

	if pb.err != nil {
		c.warn(start, pb.err)
	}
	for i := range pb.groups {
		g := &pb.groups[i]
		for _, el := range pb.doc.ElementsIn(g.Start, g.End) {
			g.Elements = append(g.Elements, el)
		}
	}

	sheet := c.sheet.Clone()
	spec := c.deco.Clone()
	if c.footer != nil {
		spec.Footer = *c.footer
	}
	deco := decoration.New(spec, sheet, c.fonts,
		decoration.WithDir(c.dir),
		decoration.WithLogger(c.logger),
		decoration.WithElementOptions(c.elemOpts...),
	)
	p := page.New(pb.doc, sheet,
		page.WithLogger(c.logger),
		page.WithFonts(c.fonts),
		page.WithDecoration(deco),
		page.WithGroups(pb.groups),
		page.WithTitle(pb.title),
		page.WithSource(page.Span{Start: start, End: end}),
	)
	c.pages = append(c.pages, p)
	c.logger.Debug("page compiled",
		zap.Int("page", len(c.pages)),
		zap.String("title", pb.title),
		zap.Int("runes", pb.doc.Len()),
		zap.Int("groups", len(pb.groups)))
}

// blockAttrs resolves the paragraph attributes for ctx.
func (c *compiler) blockAttrs(ctx blockCtx) style.Attrs {
	a := c.sheet.Resolved(ctx.section)
	if ctx.margin != 0 {
		a[style.KeyMarginLeft] = style.Int(a[style.KeyMarginLeft].AsInt(0) + ctx.margin)
	}
	if ctx.indent != 0 {
		a[style.KeyIndent] = style.Int(a[style.KeyIndent].AsInt(0) + ctx.indent)
	}
	return a
}

func (c *compiler) block(b Block, ctx blockCtx) {
	off := b.Source().Start
	switch b := b.(type) {
	case *Heading:
		c.paragraph("", b.Inlines, ctx, c.sheet.Inline(config.SectionStrong))
	case *Paragraph:
		if ctx.section == config.SectionDefault && hasHardBreak(b.Inlines) {
			ctx.section = config.SectionLineBlock
		}
		c.paragraph("", b.Inlines, ctx, nil)
	case *List:
		c.list(b, ctx)
	case *Quote:
		qctx := ctx
		qctx.section = config.SectionBlockQuote
		for _, inner := range b.Blocks {
			c.block(inner, qctx)
		}
	case *CodeBlock:
		c.code(b, ctx)
	case *Table:
		c.table(b, ctx)
	case *Directive:
		c.directive(b, ctx)
	case *ThematicBreak:
	default:
		c.warn(off, fmt.Errorf("unsupported block %T", b))
	}
}

// paragraph starts a paragraph with an optional list marker.
func (c *compiler) paragraph(marker string, ins []Inline, ctx blockCtx, extra style.Attrs) {
	pb := c.page()
	pb.breakPara()
	attrs := c.blockAttrs(ctx).Merge(extra)
	if marker != "" {
		pb.text(marker+" ", attrs)
	}
	c.inlines(&pb.docBuilder, ins, attrs)
	pb.endPara(attrs)
}

func (c *compiler) inlines(db *docBuilder, ins []Inline, attrs style.Attrs) {
	for _, in := range ins {
		switch n := in.(type) {
		case *Text:
			db.text(n.Value, attrs)
		case *CodeSpan:
			db.text(n.Value, attrs.Merge(c.sheet.Inline(config.SectionLiteral)))
		case *Emphasis:
			sec := config.SectionEmphasis
			if n.Level >= 2 {
				sec = config.SectionStrong
			}
			c.inlines(db, n.Children, attrs.Merge(c.sheet.Inline(sec)))
		case *Link:
			la := attrs.Merge(c.sheet.Inline(config.SectionEmphasis))
			la[style.KeyUnderline] = style.Bool(true)
			c.inlines(db, n.Children, la)
		case *Image:
			c.image(db, n, attrs)
		case *LineBreak:
			if n.Hard {
				db.text(lineSeparator, attrs)
			} else {
				db.text(" ", attrs)
			}
		}
	}
}

func hasHardBreak(ins []Inline) bool {
	for _, in := range ins {
		if lb, ok := in.(*LineBreak); ok && lb.Hard {
			return true
		}
	}
	return false
}

// bullet returns the marker for a bullet list at depth.
func (c *compiler) bullet(depth int) string {
	rs := []rune(c.sheet.String(config.SectionList, "bullet", defaultBullets))
	if len(rs) == 0 {
		rs = []rune(defaultBullets)
	}
	return string(rs[depth%len(rs)])
}

// measure returns the advance of s in the face attrs selects.
func (c *compiler) measure(s string, attrs style.Attrs) int {
	face := c.fonts.Face(font.Spec{
		Name:   attrs[style.KeyFontName].AsString(""),
		Size:   attrs[style.KeyFontSize].AsFloat(0),
		Bold:   attrs[style.KeyBold].AsBool(),
		Italic: attrs[style.KeyItalic].AsBool(),
	})
	return font.Measure(face, s)
}

func (c *compiler) list(l *List, ctx blockCtx) {
	lctx := blockCtx{section: config.SectionList, margin: ctx.margin}
	attrs := c.blockAttrs(lctx)

	markers := make([]string, len(l.Items))
	hang := 0
	for i := range l.Items {
		if l.Ordered {
			markers[i] = strconv.Itoa(l.Start+i) + "."
		} else {
			markers[i] = c.bullet(ctx.depth)
		}
		hang = max(hang, c.measure(markers[i]+" ", attrs))
	}

	st, err := expose.ParseStyle(c.sheet.Expose())
	c.warn(l.Source().Start, err)

	pb := c.page()
	for i, it := range l.Items {
		ictx := blockCtx{section: config.SectionList, margin: ctx.margin + hang, depth: ctx.depth + 1}
		pb.breakPara()
		g := -1
		if st != expose.Show {
			pb.groups = append(pb.groups, expose.Group{Style: st, Start: pb.doc.Len(), End: pb.doc.Len()})
			g = len(pb.groups) - 1
		}
		closeGroup := func() {
			if g >= 0 {
				pb.groups[g].End = pb.doc.Len()
				g = -1
			}
		}

		first := ictx
		first.indent = -hang
		blocks := it.Blocks
		if len(blocks) > 0 {
			if p, ok := blocks[0].(*Paragraph); ok {
				c.paragraph(markers[i], p.Inlines, first, nil)
				blocks = blocks[1:]
			} else {
				c.paragraph(markers[i], nil, first, nil)
			}
		} else {
			c.paragraph(markers[i], nil, first, nil)
		}
		for _, b := range blocks {
			if _, nested := b.(*List); nested {
				closeGroup()
			}
			c.block(b, ictx)
		}
		closeGroup()
	}
}

func (c *compiler) code(b *CodeBlock, ctx blockCtx) {
	pb := c.page()
	pb.breakPara()
	bctx := ctx
	bctx.section = config.SectionLiteralBlock
	attrs := c.blockAttrs(bctx).Merge(c.sheet.Inline(config.SectionLiteral))
	for _, t := range highlight(b.Lang, b.Text) {
		ta := attrs
		if t.Section != "" {
			ta = attrs.Merge(c.sheet.Inline(t.Section))
		}
		pb.text(strings.ReplaceAll(t.Text, "\n", lineSeparator), ta)
	}
	pb.endPara(attrs)
}

func (c *compiler) table(t *Table, ctx blockCtx) {
	off := t.Source().Start
	columns := len(t.Header)
	for _, r := range t.Rows {
		columns = max(columns, len(r))
	}
	if columns == 0 {
		return
	}

	base := c.sheet.Resolved(config.SectionDefault)
	for _, k := range []string{style.KeyMarginLeft, style.KeyMarginRight, style.KeyMarginTop, style.KeyMarginBottom, style.KeyIndent} {
		delete(base, k)
	}
	spec := table.Spec{ColumnWidths: make([]int, columns)}
	addRow := func(cells []Cell, heading bool) {
		row := table.Row{Heading: heading}
		for col := range columns {
			attrs := base.Clone()
			attrs[style.KeyAlign] = style.String(c.sheet.String(config.SectionTable, "cell_align", "left"))
			if col < len(t.Align) && t.Align[col] != "" {
				attrs[style.KeyAlign] = style.String(t.Align[col])
			}
			if heading {
				attrs = attrs.Merge(c.sheet.Inline(config.SectionStrong))
			}
			db := newDocBuilder(base)
			var content []Inline
			if col < len(cells) {
				content = cells[col]
			}
			c.inlines(&db, content, attrs)
			if db.doc.Len() == 0 {
				db.text(" ", attrs)
			}
			c.warn(off, db.err)
			spec.ColumnWidths[col] = max(spec.ColumnWidths[col], uniseg.StringWidth(PlainText(content)), 1)
			row.Cells = append(row.Cells, db.doc)
		}
		spec.Rows = append(spec.Rows, row)
	}
	if len(t.Header) > 0 {
		addRow(t.Header, true)
	}
	for _, r := range t.Rows {
		addRow(r, false)
	}

	tbl, err := table.New(spec, max(c.width-ctx.margin, 1),
		table.WithStyle(tableStyle(c.sheet)),
		table.WithFonts(c.fonts),
		table.WithLogger(c.logger),
	)
	if err != nil {
		c.warn(off, err)
		return
	}
	c.embed(tbl, ctx)
}

// tableStyle reads the table section.
func tableStyle(s *config.Sheet) table.Style {
	st := table.DefaultStyle()
	st.PadLeft = s.Int(config.SectionTable, "left_padding", st.PadLeft)
	st.PadRight = s.Int(config.SectionTable, "right_padding", st.PadRight)
	st.PadTop = s.Int(config.SectionTable, "top_padding", st.PadTop)
	st.PadBottom = s.Int(config.SectionTable, "bottom_padding", st.PadBottom)
	if v, ok := s.Lookup(config.SectionTable, "border"); ok {
		st.Border = v.AsBool()
	}
	st.BorderColor = s.Color(config.SectionTable, "border_color", st.BorderColor)
	st.HeadingBackground = s.Color(config.SectionTable, "heading_background_color", st.HeadingBackground)
	st.EvenBackground = s.Color(config.SectionTable, "even_background_color", st.EvenBackground)
	st.OddBackground = s.Color(config.SectionTable, "odd_background_color", st.OddBackground)
	if va, ok := layout.ParseVAlign(s.String(config.SectionTable, "cell_valign", "top")); ok {
		st.CellVAlign = va
	}
	st.DefaultColor = s.Color(config.SectionDefault, style.KeyColor, core.Black)
	return st
}

// embed puts el in a paragraph of its own.
func (c *compiler) embed(el document.Element, ctx blockCtx) {
	pb := c.page()
	pb.breakPara()
	attrs := c.blockAttrs(ctx)
	pb.element(el, attrs)
	pb.endPara(attrs)
}

func (c *compiler) path(p string) string {
	p = loader.ExpandPath(p)
	if c.dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

// sizeArgs reads width= and height= from key=value fields.
func sizeArgs(fields []string) (w, h int, rest map[string]string, err error) {
	rest = make(map[string]string)
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return 0, 0, nil, fmt.Errorf("%w: %q is not key=value", ErrDirectiveSyntax, f)
		}
		switch strings.ToLower(k) {
		case "width", "height":
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return 0, 0, nil, fmt.Errorf("%w: %s=%q", ErrDirectiveSyntax, k, v)
			}
			if strings.EqualFold(k, "width") {
				w = n
			} else {
				h = n
			}
		default:
			rest[strings.ToLower(k)] = v
		}
	}
	return w, h, rest, nil
}

func (c *compiler) image(db *docBuilder, n *Image, attrs style.Attrs) {
	w, h, _, err := sizeArgs(strings.Fields(n.Title))
	if err != nil {
		c.warn(n.Offset, err)
	}
	img, err := element.OpenImage(c.path(n.Src), c.elementOptions(element.WithSize(w, h))...)
	if err != nil {
		c.warn(n.Offset, err)
		if n.Alt != "" {
			db.text(n.Alt, attrs)
		}
		return
	}
	db.element(img, attrs)
}
