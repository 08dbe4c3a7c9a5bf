package backend

import (
	"image"
	"image/color"
	"testing"

	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
)

func newCellCanvas(t *testing.T, w, h int) (*CellCanvas, *NullBackend) {
	t.Helper()
	nb := NewNullBackend(w, h)
	if err := nb.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return NewCellCanvas(nb), nb
}

func TestCellCanvasText(t *testing.T) {
	c, nb := newCellCanvas(t, 10, 3)
	b := batch.New()
	face := font.Grid{}.Face(font.Spec{})
	glyphs := []batch.Glyph{{R: 'h', X: 2, Y: 2, Advance: 1}, {R: 'i', X: 3, Y: 2, Advance: 1}}
	b.AddText(batch.LayerContent, face, core.White, core.AttrBold, glyphs, core.R(2, 1, 2, 1))

	c.Clear(core.Black)
	c.Draw(b)
	if err := c.Present(); err != nil {
		t.Fatalf("Present failed: %v", err)
	}

	if got := nb.Row(1); got != "  hi      " {
		t.Errorf("row 1 = %q", got)
	}
	cell := nb.GetCell(2, 1)
	if cell.Style.Foreground != core.White || !cell.Style.Attributes.Has(core.AttrBold) {
		t.Errorf("glyph cell style = %+v", cell.Style)
	}
}

func TestCellCanvasQuadAndClip(t *testing.T) {
	c, nb := newCellCanvas(t, 10, 4)
	b := batch.New()
	q := b.AddQuad(batch.LayerBackground, core.R(0, 0, 10, 4), core.Red)
	q.SetClip(core.R(0, 0, 5, 2))

	c.Clear(core.Black)
	c.Draw(b)
	c.Present()

	if got := nb.GetCell(4, 1).Style.Background; got != core.Red {
		t.Errorf("inside clip background = %v, want red", got)
	}
	if got := nb.GetCell(5, 1).Style.Background; got != core.Black {
		t.Errorf("outside clip background = %v, want black", got)
	}
}

func TestCellCanvasTranslucentQuad(t *testing.T) {
	c, nb := newCellCanvas(t, 2, 1)
	b := batch.New()
	b.AddQuad(batch.LayerBackground, core.R(0, 0, 2, 1), core.White.WithAlpha(0))

	c.Clear(core.Blue)
	c.Draw(b)
	c.Present()

	if got := nb.GetCell(0, 0).Style.Background; got != core.Blue {
		t.Errorf("transparent quad changed background to %v", got)
	}
}

func TestCellCanvasSprite(t *testing.T) {
	c, nb := newCellCanvas(t, 4, 2)
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			col := color.NRGBA{255, 0, 0, 255}
			if y%2 == 1 {
				col = color.NRGBA{0, 0, 255, 255}
			}
			img.SetNRGBA(x, y, col)
		}
	}
	b := batch.New()
	b.AddSprite(batch.LayerElement, core.R(0, 0, 4, 2), img)

	c.Clear(core.Black)
	c.Draw(b)
	c.Present()

	cell := nb.GetCell(1, 0)
	if cell.Rune != halfBlock {
		t.Fatalf("sprite cell rune = %q, want half block", cell.Rune)
	}
	if cell.Style.Foreground != core.Red || cell.Style.Background != core.Blue {
		t.Errorf("half block colors = %v / %v, want red / blue", cell.Style.Foreground, cell.Style.Background)
	}
}

func TestCellCanvasDropsStaleSprites(t *testing.T) {
	c, _ := newCellCanvas(t, 4, 2)
	b := batch.New()
	it := b.AddSprite(batch.LayerElement, core.R(0, 0, 2, 1), image.NewNRGBA(image.Rect(0, 0, 2, 2)))

	c.Clear(core.Black)
	c.Draw(b)
	c.Present()
	if len(c.sprites) != 1 {
		t.Fatalf("sprite cache size = %d, want 1", len(c.sprites))
	}

	it.Remove()
	c.Clear(core.Black)
	c.Draw(b)
	c.Present()
	if len(c.sprites) != 0 {
		t.Errorf("sprite cache size after removal = %d, want 0", len(c.sprites))
	}
}

func TestCellCanvasLines(t *testing.T) {
	c, nb := newCellCanvas(t, 6, 3)
	b := batch.New()
	b.AddLines(batch.LayerDecoration, []core.Point{{X: 0, Y: 1}, {X: 5, Y: 1}, {X: 2, Y: 0}, {X: 2, Y: 0}}, core.Gray)

	c.Clear(core.Black)
	c.Draw(b)
	c.Present()

	if got := nb.Row(1); got != "──────" {
		t.Errorf("horizontal line row = %q", got)
	}
}

func TestBilinear(t *testing.T) {
	cols := [4]core.Color{core.Black, core.White, core.White, core.Black}
	r := core.R(0, 0, 3, 1)

	if got := bilinear(cols, r, 0, 0); got != core.Black {
		t.Errorf("left edge = %v, want black", got)
	}
	if got := bilinear(cols, r, 2, 0); got != core.White {
		t.Errorf("right edge = %v, want white", got)
	}
	mid := bilinear(cols, r, 1, 0)
	if mid.R < 100 || mid.R > 155 {
		t.Errorf("midpoint = %v, want mid gray", mid)
	}
}

func TestLine(t *testing.T) {
	var pts []core.Point
	line(core.Point{X: 0, Y: 0}, core.Point{X: 3, Y: 3}, func(x, y int) {
		pts = append(pts, core.Point{X: x, Y: y})
	})
	if len(pts) != 4 {
		t.Fatalf("diagonal plotted %d points, want 4", len(pts))
	}
	for i, p := range pts {
		if p.X != i || p.Y != i {
			t.Errorf("point %d = %v", i, p)
		}
	}
}

func TestCellCanvasInvalidate(t *testing.T) {
	c, _ := newCellCanvas(t, 6, 2)
	c.Clear(core.Black)
	if err := c.Present(); err != nil {
		t.Fatal(err)
	}
	if n := len(c.buffer.diff()); n != 0 {
		t.Fatalf("%d pending changes after Present", n)
	}

	c.Invalidate()
	if n := len(c.buffer.diff()); n != 12 {
		t.Errorf("%d pending changes after Invalidate, want 12", n)
	}
}
