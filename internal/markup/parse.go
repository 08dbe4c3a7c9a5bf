package markup

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/lectern/internal/page"
)

// Directive names recognized in fenced block info strings.
const (
	DirectiveStyle      = "style"
	DirectiveDecoration = "decoration"
	DirectiveVideo      = "video"
	DirectiveConsole    = "console"
	DirectivePlugin     = "plugin"
	DirectiveLoadStyle  = "load-style"
	DirectiveFooter     = "footer"
)

var directives = map[string]bool{
	DirectiveStyle:      true,
	DirectiveDecoration: true,
	DirectiveVideo:      true,
	DirectiveConsole:    true,
	DirectivePlugin:     true,
	DirectiveLoadStyle:  true,
	DirectiveFooter:     true,
}

// Parse reads markdown with GFM tables into blocks.
func Parse(src []byte) []Block {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))
	cv := converter{src: src}
	return cv.blocks(root)
}

// converter turns a goldmark tree into Blocks.
type converter struct {
	src []byte
}

func (cv *converter) blocks(parent ast.Node) []Block {
	var out []Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b := cv.block(n); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (cv *converter) block(n ast.Node) Block {
	bn := blockNode{Span: cv.lines(cv.span(n))}
	switch n := n.(type) {
	case *ast.Heading:
		return &Heading{blockNode: bn, Level: n.Level, Inlines: cv.inlines(n)}
	case *ast.Paragraph, *ast.TextBlock:
		return &Paragraph{blockNode: bn, Inlines: cv.inlines(n)}
	case *ast.ThematicBreak:
		return &ThematicBreak{blockNode: bn}
	case *ast.List:
		l := &List{blockNode: bn, Ordered: n.IsOrdered(), Start: n.Start}
		for it := n.FirstChild(); it != nil; it = it.NextSibling() {
			l.Items = append(l.Items, &Item{Blocks: cv.blocks(it)})
		}
		return l
	case *ast.Blockquote:
		return &Quote{blockNode: bn, Blocks: cv.blocks(n)}
	case *ast.FencedCodeBlock:
		body := cv.body(n)
		if n.Info != nil {
			info := strings.TrimSpace(string(n.Info.Segment.Value(cv.src)))
			name, args, _ := strings.Cut(info, " ")
			if directives[strings.ToLower(name)] {
				return &Directive{blockNode: bn, Name: strings.ToLower(name), Args: strings.TrimSpace(args), Body: body}
			}
		}
		return &CodeBlock{blockNode: bn, Lang: string(n.Language(cv.src)), Text: body}
	case *ast.CodeBlock:
		return &CodeBlock{blockNode: bn, Text: cv.body(n)}
	case *east.Table:
		return cv.table(n, bn)
	}
	return nil
}

func (cv *converter) table(n *east.Table, bn blockNode) *Table {
	t := &Table{blockNode: bn}
	for _, a := range n.Alignments {
		switch a {
		case east.AlignLeft:
			t.Align = append(t.Align, "left")
		case east.AlignCenter:
			t.Align = append(t.Align, "center")
		case east.AlignRight:
			t.Align = append(t.Align, "right")
		default:
			t.Align = append(t.Align, "")
		}
	}
	for r := n.FirstChild(); r != nil; r = r.NextSibling() {
		switch r := r.(type) {
		case *east.TableHeader:
			if row, ok := r.FirstChild().(*east.TableRow); ok {
				t.Header = cv.cells(row)
			} else {
				t.Header = cv.cells(r)
			}
		case *east.TableRow:
			t.Rows = append(t.Rows, cv.cells(r))
		}
	}
	return t
}

func (cv *converter) cells(row ast.Node) []Cell {
	var out []Cell
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, Cell(cv.inlines(c)))
	}
	return out
}

func (cv *converter) inlines(parent ast.Node) []Inline {
	var out []Inline
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			if v := n.Segment.Value(cv.src); len(v) > 0 {
				out = append(out, &Text{Value: string(v)})
			}
			switch {
			case n.HardLineBreak():
				out = append(out, &LineBreak{Hard: true})
			case n.SoftLineBreak():
				out = append(out, &LineBreak{})
			}
		case *ast.String:
			out = append(out, &Text{Value: string(n.Value)})
		case *ast.Emphasis:
			out = append(out, &Emphasis{Level: n.Level, Children: cv.inlines(n)})
		case *ast.CodeSpan:
			out = append(out, &CodeSpan{Value: cv.plain(n)})
		case *ast.Link:
			out = append(out, &Link{URL: string(n.Destination), Children: cv.inlines(n)})
		case *ast.AutoLink:
			label := string(n.Label(cv.src))
			out = append(out, &Link{URL: string(n.URL(cv.src)), Children: []Inline{&Text{Value: label}}})
		case *ast.Image:
			out = append(out, &Image{
				Src:    string(n.Destination),
				Title:  string(n.Title),
				Alt:    cv.plain(n),
				Offset: cv.span(n).Start,
			})
		case *ast.RawHTML:
		default:
			if n.HasChildren() {
				out = append(out, cv.inlines(n)...)
			}
		}
	}
	return out
}

// plain concatenates the text below n.
func (cv *converter) plain(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(cv.src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// body joins the raw lines of a literal block without the final newline.
func (cv *converter) body(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(cv.src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// span returns the byte range covered by the text below n, or a Start of
// -1 when n holds no text.
func (cv *converter) span(n ast.Node) page.Span {
	sp := page.Span{Start: -1, End: -1}
	add := func(seg text.Segment) {
		if seg.Start >= seg.Stop {
			return
		}
		if sp.Start < 0 || seg.Start < sp.Start {
			sp.Start = seg.Start
		}
		sp.End = max(sp.End, seg.Stop)
	}
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c.Type() == ast.TypeBlock {
			lines := c.Lines()
			for i := 0; i < lines.Len(); i++ {
				add(lines.At(i))
			}
		}
		if t, ok := c.(*ast.Text); ok {
			add(t.Segment)
		}
		return ast.WalkContinue, nil
	})
	return sp
}

// lines widens sp to whole lines.
func (cv *converter) lines(sp page.Span) page.Span {
	if sp.Start < 0 {
		return sp
	}
	for sp.Start > 0 && cv.src[sp.Start-1] != '\n' {
		sp.Start--
	}
	for sp.End < len(cv.src) && cv.src[sp.End-1] != '\n' {
		sp.End++
	}
	return sp
}
