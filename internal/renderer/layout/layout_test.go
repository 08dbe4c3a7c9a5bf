package layout

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
)

var fixed = font.Fixed{Advance: 10, Ascent: 30, Descent: 10}

// box is an inline element drawn as one quad.
type box struct {
	m       document.Metrics
	item    *batch.Item
	x, y    int
	places  int
	removed int
}

func (b *box) Metrics() document.Metrics { return b.m }

func (b *box) Place(s document.Surface, x, y int) error {
	b.places++
	if b.item == nil || !b.item.Live() {
		r := core.R(x, y-b.m.Ascent, b.m.Advance, b.m.Height())
		b.item = s.Batch().AddQuad(batch.LayerElement, r, core.Red)
		b.x, b.y = x, y
		return nil
	}
	if b.x == x && b.y == y {
		return nil
	}
	b.item.Translate(x-b.x, y-b.y)
	b.x, b.y = x, y
	return nil
}

func (b *box) Remove(document.Surface) {
	b.removed++
	if b.item != nil {
		b.item.Remove()
		b.item = nil
	}
}

func (b *box) SetOpacity(uint8) {}
func (b *box) SetScale(float64) {}

func newDoc(t *testing.T, text string) *document.Document {
	t.Helper()
	doc, err := document.FromString(text, nil)
	require.NoError(t, err)
	return doc
}

func textItems(b *batch.Batch) []*batch.Item {
	var out []*batch.Item
	for _, it := range b.Items() {
		if it.Kind() == batch.KindText {
			out = append(out, it)
		}
	}
	return out
}

func TestEnterVAlign(t *testing.T) {
	tests := []struct {
		name   string
		valign VAlign
		top    int
	}{
		{"top", VAlignTop, 0},
		{"center", VAlignCenter, 280},
		{"bottom", VAlignBottom, 560},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := batch.New()
			l := New(newDoc(t, "Hello"), b, fixed)
			require.NoError(t, l.Enter(0, 0, 800, 600, tt.valign))

			lines := l.Lines()
			require.Len(t, lines, 1)
			assert.Equal(t, 40, lines[0].Height)
			assert.Equal(t, tt.top, l.Top())

			items := textItems(b)
			require.Len(t, items, 1)
			assert.Equal(t, tt.top+30, items[0].Glyphs()[0].Y, "baseline")
		})
	}
}

func TestEnterCenterAnchorsAtViewportMiddle(t *testing.T) {
	l := New(newDoc(t, "Hello"), batch.New(), fixed)
	require.NoError(t, l.Enter(0, 0, 800, 600, VAlignCenter))
	line := l.Lines()[0]
	assert.Equal(t, 300, l.Top()+line.Top+line.Height/2)
}

func TestStateMachine(t *testing.T) {
	l := New(newDoc(t, "abc"), batch.New(), fixed)
	assert.Equal(t, StateUnattached, l.State())

	assert.ErrorIs(t, l.BeginUpdate(), ErrInvalidState)
	assert.ErrorIs(t, l.EndUpdate(), ErrInvalidState)

	require.NoError(t, l.Enter(0, 0, 100, 100, VAlignTop))
	assert.Equal(t, StateLaidOut, l.State())
	assert.ErrorIs(t, l.Enter(0, 0, 100, 100, VAlignTop), ErrInvalidState)

	require.NoError(t, l.BeginUpdate())
	assert.Equal(t, StateUpdating, l.State())
	assert.ErrorIs(t, l.Enter(0, 0, 100, 100, VAlignTop), ErrInvalidState)
	assert.ErrorIs(t, l.Resize(50, 50), ErrInvalidState)
	require.NoError(t, l.EndUpdate())
	assert.ErrorIs(t, l.EndUpdate(), ErrInvalidState)

	l.Leave()
	assert.Equal(t, StateTornDown, l.State())
	require.NoError(t, l.Enter(0, 0, 100, 100, VAlignTop))
}

func TestLineBreaking(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  [][2]int
	}{
		{"fits", "aaa bbb", 100, [][2]int{{0, 7}}},
		{"wrap at space", "aaa bbb ccc", 70, [][2]int{{0, 8}, {8, 11}}},
		{"overflowing token", "aaaaaaaaaa bb", 50, [][2]int{{0, 11}, {11, 13}}},
		{"newline", "ab\ncd", 100, [][2]int{{0, 2}, {3, 5}}},
		{"trailing newline", "ab\n", 100, [][2]int{{0, 2}, {3, 3}}},
		{"line separator", "ab\u2028cd", 100, [][2]int{{0, 2}, {3, 5}}},
		{"no wrap", "aaa bbb ccc", 0, [][2]int{{0, 11}}},
		{"empty", "", 100, [][2]int{{0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(newDoc(t, tt.text), batch.New(), fixed)
			require.NoError(t, l.Enter(0, 0, tt.width, 600, VAlignTop))
			var got [][2]int
			for _, ln := range l.Lines() {
				got = append(got, [2]int{ln.Start, ln.End})
			}
			assert.Equal(t, tt.want, got)
			assert.True(t, l.Lines()[len(got)-1].Final)
		})
	}
}

func TestWrappedLineWidthExcludesTrailingSpace(t *testing.T) {
	l := New(newDoc(t, "aaa bbb ccc"), batch.New(), fixed)
	require.NoError(t, l.Enter(0, 0, 70, 600, VAlignTop))
	lines := l.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 70, lines[0].Width)
	assert.Equal(t, 40, lines[1].Top)
	assert.Equal(t, 80, l.ContentHeight())
}

func TestTabs(t *testing.T) {
	b := batch.New()
	l := New(newDoc(t, "\tb"), b, fixed, WithTabWidth(4))
	require.NoError(t, l.Enter(0, 0, 800, 600, VAlignTop))
	items := textItems(b)
	require.Len(t, items, 1)
	assert.Equal(t, 40, items[0].Glyphs()[0].X)
}

func TestParagraphAttributes(t *testing.T) {
	doc := newDoc(t, "ab\ncd")
	require.NoError(t, doc.SetStyle(0, 2, style.Attrs{
		style.KeyAlign:       style.String("center"),
		style.KeyMarginTop:   style.Int(5),
		style.KeyMarginLeft:  style.Int(10),
		style.KeyMarginRight: style.Int(10),
	}))
	require.NoError(t, doc.SetStyle(3, 5, style.Attrs{
		style.KeyIndent:       style.Int(20),
		style.KeyMarginBottom: style.Int(7),
	}))

	l := New(doc, batch.New(), fixed)
	require.NoError(t, l.Enter(0, 0, 100, 600, VAlignTop))
	lines := l.Lines()
	require.Len(t, lines, 2)

	// (100 - 10 - 10 - 20) / 2 + 10
	assert.Equal(t, 40, lines[0].X)
	assert.Equal(t, 45, lines[0].Height)
	assert.Equal(t, 35, lines[0].Baseline())

	assert.Equal(t, 20, lines[1].X)
	assert.Equal(t, 45, lines[1].Top)
	assert.Equal(t, 47, lines[1].Height)
	assert.Equal(t, 40, l.ContentWidth())
}

func TestStyledSpansBecomeSeparateItems(t *testing.T) {
	doc := newDoc(t, "AB")
	require.NoError(t, doc.SetStyle(0, 1, style.Attrs{style.KeyColor: style.Color(core.Red)}))
	require.NoError(t, doc.SetStyle(1, 2, style.Attrs{
		style.KeyColor:      style.Color(core.Blue),
		style.KeyBackground: style.Color(core.Gray),
		style.KeyBold:       style.Bool(true),
	}))

	b := batch.New()
	l := New(doc, b, fixed)
	require.NoError(t, l.Enter(0, 0, 100, 100, VAlignTop))

	items := textItems(b)
	require.Len(t, items, 2)
	assert.Equal(t, core.Red, items[0].Color())
	assert.Equal(t, core.Blue, items[1].Color())
	assert.True(t, items[1].Attrs().Has(core.AttrBold))
	assert.Equal(t, 3, b.Len(), "two text items and one background quad")
}

func TestBeginEndUpdateBatchesReflow(t *testing.T) {
	doc := newDoc(t, "one two three four")
	l := New(doc, batch.New(), fixed)
	require.NoError(t, l.Enter(0, 0, 80, 600, VAlignTop))
	before := l.Stats()

	require.NoError(t, l.BeginUpdate())
	require.NoError(t, l.BeginUpdate())
	for i := 0; i < 3; i++ {
		require.NoError(t, doc.SetStyle(i*4, i*4+3, style.Attrs{style.KeyColor: style.Color(core.Red)}))
	}
	require.NoError(t, doc.InsertText(0, "zero ", nil))
	require.NoError(t, l.EndUpdate())
	assert.Equal(t, before.IncrementalReflows, l.Stats().IncrementalReflows, "inner EndUpdate must not re-flow")

	require.NoError(t, l.EndUpdate())
	after := l.Stats()
	assert.Equal(t, before.IncrementalReflows+1, after.IncrementalReflows)
	assert.Equal(t, before.Changes+4, after.Changes)
	assertMatchesFresh(t, l)
}

func TestChangeOutsideBracketReflowsImmediately(t *testing.T) {
	doc := newDoc(t, "one two")
	l := New(doc, batch.New(), fixed)
	require.NoError(t, l.Enter(0, 0, 800, 600, VAlignTop))
	before := l.Stats()

	require.NoError(t, doc.SetStyle(0, 3, style.Attrs{style.KeyColor: style.Color(core.Red)}))
	assert.Equal(t, before.IncrementalReflows+1, l.Stats().IncrementalReflows)
}

func TestIncrementalReflowReusesLaterParagraphs(t *testing.T) {
	doc := newDoc(t, "first paragraph\nsecond paragraph\nthird paragraph")
	l := New(doc, batch.New(), fixed)
	require.NoError(t, l.Enter(0, 0, 100, 600, VAlignTop))
	before := l.Stats()

	require.NoError(t, doc.InsertText(0, "a very long opening ", nil))
	after := l.Stats()
	assert.Greater(t, after.LinesReused, before.LinesReused)
	assertMatchesFresh(t, l)
}

func TestIncrementalMatchesFull(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	words := []string{"alpha ", "be ", "c ", "delta\n", "epsilon ", "\u2028", "\t", "zeta eta "}

	doc := newDoc(t, "start of the document\nwith two paragraphs")
	l := New(doc, batch.New(), fixed)
	require.NoError(t, l.Enter(0, 0, 90, 600, VAlignCenter))

	for step := 0; step < 300; step++ {
		switch n := doc.Len(); {
		case n > 0 && rng.Intn(3) == 0:
			start := rng.Intn(n)
			end := start + rng.Intn(min(n-start, 12)+1)
			require.NoError(t, doc.DeleteText(start, end))
		case n > 0 && rng.Intn(4) == 0:
			start := rng.Intn(n)
			end := min(n, start+rng.Intn(10)+1)
			attrs := style.Attrs{style.KeyMarginTop: style.Int(rng.Intn(3))}
			if rng.Intn(2) == 0 {
				attrs = style.Attrs{style.KeyLeading: style.Int(rng.Intn(3))}
			}
			require.NoError(t, doc.SetStyle(start, end, attrs))
		default:
			require.NoError(t, doc.InsertText(rng.Intn(n+1), words[rng.Intn(len(words))], nil))
		}
		if !assertMatchesFresh(t, l) {
			t.Fatalf("diverged at step %d: %q", step, doc.Text())
		}
	}
}

func TestReflowFinalLineTakesMergedParagraph(t *testing.T) {
	doc := newDoc(t, "a\nbc\u2028")
	require.NoError(t, doc.SetStyle(0, 1, style.Attrs{style.KeyLeading: style.Int(1)}))
	l := New(doc, batch.New(), fixed)
	require.NoError(t, l.Enter(0, 0, 90, 200, VAlignBottom))
	require.Equal(t, 3, l.LineCount())

	require.NoError(t, doc.DeleteText(1, 2))
	lines := l.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 41, lines[1].Height)
	assertMatchesFresh(t, l)
}

type lineShape struct {
	Start, End, Next, Top, Height, X, Width int
}

func shapes(lines []Line) []lineShape {
	out := make([]lineShape, len(lines))
	for i, ln := range lines {
		out[i] = lineShape{ln.Start, ln.End, ln.Next, ln.Top, ln.Height, ln.X, ln.Width}
	}
	return out
}

func assertMatchesFresh(t *testing.T, l *Layout) bool {
	t.Helper()
	vp := l.Viewport()
	fresh := New(l.Document(), batch.New(), fixed)
	require.NoError(t, fresh.Enter(vp.X, vp.Y, vp.W, vp.H, l.VAlign()))
	defer fresh.Leave()
	ok := assert.Equal(t, shapes(fresh.Lines()), shapes(l.Lines()))
	ok = assert.Equal(t, fresh.Top(), l.Top()) && ok
	return assert.Equal(t, len(textItems(fresh.Batch())), len(textItems(l.Batch()))) && ok
}

func TestSetViewTranslatesWithoutReflow(t *testing.T) {
	b := batch.New()
	l := New(newDoc(t, "Hello"), b, fixed)
	require.NoError(t, l.Enter(0, 0, 800, 600, VAlignTop))
	before := l.Stats()

	l.SetView(5, 10)
	g := textItems(b)[0].Glyphs()[0]
	assert.Equal(t, -5, g.X)
	assert.Equal(t, 20, g.Y)
	assert.Equal(t, before, l.Stats())

	l.SetView(0, 0)
	assert.Equal(t, 30, textItems(b)[0].Glyphs()[0].Y)
}

func TestSetPositionMovesGeometryAndClip(t *testing.T) {
	b := batch.New()
	l := New(newDoc(t, "Hello"), b, fixed)
	require.NoError(t, l.Enter(0, 0, 100, 50, VAlignTop))

	l.SetPosition(20, 30)
	it := textItems(b)[0]
	assert.Equal(t, 20, it.Glyphs()[0].X)
	assert.Equal(t, 60, it.Glyphs()[0].Y)
	assert.Equal(t, core.R(20, 30, 100, 50), it.Clip())
}

func TestElementPlacement(t *testing.T) {
	doc := newDoc(t, "a")
	el := &box{m: document.Metrics{Ascent: 50, Descent: 5, Advance: 20}}
	require.NoError(t, doc.AppendElement(el, nil))
	require.NoError(t, doc.Append("b", nil))

	b := batch.New()
	l := New(doc, b, fixed)
	require.NoError(t, l.Enter(0, 0, 800, 600, VAlignTop))

	line := l.Lines()[0]
	assert.Equal(t, 50, line.Ascent)
	assert.Equal(t, 10, line.Descent)
	assert.Equal(t, 10, el.x)
	assert.Equal(t, 50, el.y)

	allocs := b.Allocations()
	require.NoError(t, el.Place(l, el.x, el.y))
	assert.Equal(t, allocs, b.Allocations(), "re-placing at the same position allocates nothing")

	require.NoError(t, doc.InsertText(0, "xx", nil))
	assert.Equal(t, 30, el.x)
	assert.Equal(t, core.R(30, 0, 20, 55), el.item.Rect())
}

func TestDeleteRemovesElement(t *testing.T) {
	doc := newDoc(t, "AB")
	el := &box{m: document.Metrics{Ascent: 10, Advance: 10}}
	require.NoError(t, doc.InsertElement(1, el, nil))

	b := batch.New()
	l := New(doc, b, fixed)
	require.NoError(t, l.Enter(0, 0, 800, 600, VAlignTop))
	require.NotNil(t, el.item)

	require.NoError(t, doc.DeleteText(0, 2))
	assert.Equal(t, "B", doc.Text())
	assert.Equal(t, 1, el.removed)
	assert.Nil(t, el.item)
	assertMatchesFresh(t, l)
}

func TestLeaveReleasesGeometry(t *testing.T) {
	doc := newDoc(t, "text ")
	el := &box{m: document.Metrics{Ascent: 10, Advance: 10}}
	require.NoError(t, doc.AppendElement(el, nil))

	b := batch.New()
	l := New(doc, b, fixed)
	require.NoError(t, l.Enter(0, 0, 800, 600, VAlignTop))
	require.Positive(t, b.Len())

	l.Leave()
	assert.Zero(t, b.Len())
	assert.Equal(t, 1, el.removed)

	// The document no longer drives the layout.
	before := l.Stats()
	require.NoError(t, doc.Append("more", nil))
	assert.Equal(t, before, l.Stats())
}

func TestResizeRewraps(t *testing.T) {
	l := New(newDoc(t, "aaa bbb ccc"), batch.New(), fixed)
	require.NoError(t, l.Enter(0, 0, 200, 600, VAlignTop))
	assert.Equal(t, 1, l.LineCount())

	require.NoError(t, l.Resize(50, 600))
	assert.Equal(t, 3, l.LineCount())
	assert.Equal(t, StateLaidOut, l.State())
}

func TestLineForOffset(t *testing.T) {
	l := New(newDoc(t, "aaa bbb ccc"), batch.New(), fixed)
	require.NoError(t, l.Enter(0, 0, 50, 600, VAlignTop))
	assert.Equal(t, 0, l.LineForOffset(2))
	assert.Equal(t, 1, l.LineForOffset(4))
	assert.Equal(t, 2, l.LineForOffset(10))
}

func TestMeasure(t *testing.T) {
	w, h := Measure(newDoc(t, "aaaaaaaaaa bb"), fixed, 50)
	assert.Equal(t, 100, w)
	assert.Equal(t, 80, h)

	w, h = Measure(newDoc(t, "ab"), fixed, 50)
	assert.Equal(t, 20, w)
	assert.Equal(t, 40, h)
}

func TestParseAlign(t *testing.T) {
	v, ok := ParseVAlign("center")
	assert.True(t, ok)
	assert.Equal(t, VAlignCenter, v)
	_, ok = ParseVAlign("middle")
	assert.False(t, ok)

	h, ok := ParseHAlign("right")
	assert.True(t, ok)
	assert.Equal(t, HAlignRight, h)
}
