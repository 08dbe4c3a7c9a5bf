package markup

import (
	"strings"

	"github.com/dshills/lectern/internal/page"
)

// Block is a block-level node. The set of implementations is closed.
type Block interface {
	// Source returns the byte range of the block in the markup, widened to
	// whole lines. Start is -1 when the block has no text of its own.
	Source() page.Span
	block()
}

type blockNode struct {
	Span page.Span
}

func (b blockNode) Source() page.Span { return b.Span }
func (blockNode) block()              {}

// Heading is a section title.
type Heading struct {
	blockNode
	Level   int
	Inlines []Inline
}

// Paragraph is running text.
type Paragraph struct {
	blockNode
	Inlines []Inline
}

// ThematicBreak separates pages.
type ThematicBreak struct {
	blockNode
}

// List is a bullet or ordered list.
type List struct {
	blockNode
	Ordered bool
	Start   int
	Items   []*Item
}

// Item is one list entry.
type Item struct {
	Blocks []Block
}

// Quote is a block quote.
type Quote struct {
	blockNode
	Blocks []Block
}

// CodeBlock is literal text, highlighted when Lang names a known lexer.
type CodeBlock struct {
	blockNode
	Lang string
	Text string
}

// Directive is a fenced block whose info string names a directive.
type Directive struct {
	blockNode
	Name string
	Args string
	Body string
}

// Cell is the content of a table cell.
type Cell []Inline

// Table is a GFM table.
type Table struct {
	blockNode
	// Align holds left, center, right or "" per column.
	Align  []string
	Header []Cell
	Rows   [][]Cell
}

// Inline is an inline node. The set of implementations is closed.
type Inline interface {
	inline()
}

// Text is plain text.
type Text struct {
	Value string
}

// Emphasis is emphasized text; Level 2 and up is strong.
type Emphasis struct {
	Level    int
	Children []Inline
}

// CodeSpan is inline literal text.
type CodeSpan struct {
	Value string
}

// Link is a hyperlink. Only its text is shown.
type Link struct {
	URL      string
	Children []Inline
}

// Image is an inline picture. Title may carry width= and height=.
type Image struct {
	Src    string
	Title  string
	Alt    string
	Offset int
}

// LineBreak is a soft (space) or hard (line separator) break.
type LineBreak struct {
	Hard bool
}

func (*Text) inline()      {}
func (*Emphasis) inline()  {}
func (*CodeSpan) inline()  {}
func (*Link) inline()      {}
func (*Image) inline()     {}
func (*LineBreak) inline() {}

// PlainText returns the text of ins without markup. Breaks become spaces.
func PlainText(ins []Inline) string {
	var sb strings.Builder
	writePlain(&sb, ins)
	return strings.TrimSpace(sb.String())
}

func writePlain(sb *strings.Builder, ins []Inline) {
	for _, in := range ins {
		switch n := in.(type) {
		case *Text:
			sb.WriteString(n.Value)
		case *CodeSpan:
			sb.WriteString(n.Value)
		case *Emphasis:
			writePlain(sb, n.Children)
		case *Link:
			writePlain(sb, n.Children)
		case *Image:
			sb.WriteString(n.Alt)
		case *LineBreak:
			sb.WriteByte(' ')
		}
	}
}
