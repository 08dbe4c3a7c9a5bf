package backend

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
)

// Canvas receives frames. A frame is Clear, any number of Draw calls in
// back-to-front order, then Present.
type Canvas interface {
	// Size returns the drawable size in layout units.
	Size() (w, h int)

	// Clear starts a frame filled with bg.
	Clear(bg core.Color)

	// Draw paints the batch over what is already drawn.
	Draw(b *batch.Batch)

	// Present finishes the frame.
	Present() error
}

// halfBlock draws the top pixel as foreground and the bottom as background.
const halfBlock = '▀'

// CellCanvas rasterizes batches into terminal cells. One layout unit is
// one cell. Sprites are drawn as half blocks, two pixels per cell.
type CellCanvas struct {
	backend Backend
	buffer  *ScreenBuffer
	sprites map[*batch.Item]*spriteCache
	frame   uint64
}

type spriteCache struct {
	src   image.Image
	w, h  int
	img   *image.NRGBA
	frame uint64
}

// NewCellCanvas creates a canvas drawing to b.
func NewCellCanvas(b Backend) *CellCanvas {
	w, h := b.Size()
	return &CellCanvas{
		backend: b,
		buffer:  NewScreenBuffer(w, h),
		sprites: make(map[*batch.Item]*spriteCache),
	}
}

// Buffer returns the back buffer.
func (c *CellCanvas) Buffer() *ScreenBuffer { return c.buffer }

// Size returns the backend size in cells.
func (c *CellCanvas) Size() (int, int) { return c.backend.Size() }

// Invalidate makes the next Present repaint every cell.
func (c *CellCanvas) Invalidate() { c.buffer.MarkFullRedraw() }

// Clear starts a frame.
func (c *CellCanvas) Clear(bg core.Color) {
	w, h := c.backend.Size()
	c.buffer.Resize(w, h)
	c.buffer.Clear(bg.Over(core.Black))
	c.frame++
}

// Draw paints every live item of b.
func (c *CellCanvas) Draw(b *batch.Batch) {
	if b == nil {
		return
	}
	for _, it := range b.Items() {
		switch it.Kind() {
		case batch.KindQuad:
			c.drawQuad(it)
		case batch.KindLines:
			c.drawLines(it)
		case batch.KindText:
			c.drawText(it)
		case batch.KindSprite:
			c.drawSprite(it)
		}
	}
}

// Present flushes the changed cells and drops sprite caches of items that
// were not drawn this frame.
func (c *CellCanvas) Present() error {
	c.buffer.Flush(c.backend)
	for it, sc := range c.sprites {
		if sc.frame != c.frame {
			delete(c.sprites, it)
		}
	}
	return nil
}

func (c *CellCanvas) clipOf(it *batch.Item, r core.Rect) core.Rect {
	w, h := c.buffer.Size()
	r = r.Intersect(core.R(0, 0, w, h))
	if clip := it.Clip(); !clip.Empty() {
		r = r.Intersect(clip)
	}
	return r
}

func (c *CellCanvas) drawQuad(it *batch.Item) {
	rect := it.Rect()
	area := c.clipOf(it, rect)
	cols := it.Colors()
	solid := cols[0] == cols[1] && cols[1] == cols[2] && cols[2] == cols[3]
	for y := area.Y; y < area.Bottom(); y++ {
		for x := area.X; x < area.Right(); x++ {
			col := cols[0]
			if !solid {
				col = bilinear(cols, rect, x, y)
			}
			if col.IsTransparent() {
				continue
			}
			cell := c.buffer.GetCell(x, y)
			cell.Style.Background = col.Over(cell.Style.Background)
			if cell.Rune != ' ' {
				cell.Style.Foreground = cell.Style.Background
			}
			c.buffer.SetCell(x, y, cell)
		}
	}
}

func (c *CellCanvas) drawLines(it *batch.Item) {
	pts := it.Points()
	col := it.Color()
	area := c.clipOf(it, core.R(-1<<20, -1<<20, 1<<21, 1<<21))
	for i := 0; i+1 < len(pts); i += 2 {
		a, b := pts[i], pts[i+1]
		r := '•'
		switch {
		case a.Y == b.Y:
			r = '─'
		case a.X == b.X:
			r = '│'
		}
		line(a, b, func(x, y int) {
			if !area.Contains(core.Point{X: x, Y: y}) {
				return
			}
			cell := c.buffer.GetCell(x, y)
			cell.Rune, cell.Width = r, 1
			cell.Style.Foreground = col.Over(cell.Style.Background)
			c.buffer.SetCell(x, y, cell)
		})
	}
}

func (c *CellCanvas) drawText(it *batch.Item) {
	col := it.Color()
	if col.IsTransparent() {
		return
	}
	asc := 1
	if face := it.Face(); face != nil {
		asc = max(font.Ascent(face), 1)
	}
	area := c.clipOf(it, core.R(-1<<20, -1<<20, 1<<21, 1<<21))
	for _, g := range it.Glyphs() {
		p := core.Point{X: g.X, Y: g.Y - asc}
		if !area.Contains(p) {
			continue
		}
		cell := c.buffer.GetCell(p.X, p.Y)
		cell.Rune = g.R
		cell.Width = core.RuneWidth(g.R)
		cell.Style.Foreground = col.Over(cell.Style.Background)
		cell.Style.Attributes = it.Attrs()
		c.buffer.SetCell(p.X, p.Y, cell)
		if cell.Width == 2 && area.Contains(core.Point{X: p.X + 1, Y: p.Y}) {
			c.buffer.SetCell(p.X+1, p.Y, continuation)
		}
	}
}

func (c *CellCanvas) drawSprite(it *batch.Item) {
	rect := it.Rect()
	src := it.Image()
	if src == nil || rect.Empty() || it.Alpha() == 0 {
		return
	}
	sc := c.sprites[it]
	if sc == nil || sc.src != src || sc.w != rect.W || sc.h != rect.H {
		sc = &spriteCache{
			src: src,
			w:   rect.W,
			h:   rect.H,
			img: imaging.Resize(src, rect.W, rect.H*2, imaging.Box),
		}
		c.sprites[it] = sc
	}
	sc.frame = c.frame

	area := c.clipOf(it, rect)
	alpha := it.Alpha()
	for y := area.Y; y < area.Bottom(); y++ {
		for x := area.X; x < area.Right(); x++ {
			px, py := x-rect.X, (y-rect.Y)*2
			top := core.FromColor(sc.img.NRGBAAt(px, py)).ScaleAlpha(alpha)
			bot := core.FromColor(sc.img.NRGBAAt(px, py+1)).ScaleAlpha(alpha)
			cell := c.buffer.GetCell(x, y)
			bg := cell.Style.Background
			cell.Rune, cell.Width = halfBlock, 1
			cell.Style = core.Style{Foreground: top.Over(bg), Background: bot.Over(bg)}
			c.buffer.SetCell(x, y, cell)
		}
	}
}

// bilinear interpolates per-vertex colors (top-left, top-right,
// bottom-right, bottom-left) at unit (x, y) inside r.
func bilinear(cols [4]core.Color, r core.Rect, x, y int) core.Color {
	fx, fy := 0.0, 0.0
	if r.W > 1 {
		fx = float64(x-r.X) / float64(r.W-1)
	}
	if r.H > 1 {
		fy = float64(y-r.Y) / float64(r.H-1)
	}
	top := cols[0].Blend(cols[1], fx)
	bot := cols[3].Blend(cols[2], fx)
	return top.Blend(bot, fy)
}

// line walks the integer points from a to b.
func line(a, b core.Point, plot func(x, y int)) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := sign(b.X-a.X), sign(b.Y-a.Y)
	err := dx + dy
	x, y := a.X, a.Y
	for {
		plot(x, y)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
