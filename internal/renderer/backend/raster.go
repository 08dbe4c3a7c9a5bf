package backend

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
)

// RasterCanvas paints batches into an RGBA image. One layout unit is one
// pixel.
type RasterCanvas struct {
	img    *image.RGBA
	scaler draw.Scaler
}

// NewRasterCanvas creates a w by h canvas.
func NewRasterCanvas(w, h int) *RasterCanvas {
	return &RasterCanvas{
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
		scaler: draw.CatmullRom,
	}
}

// Size returns the image size.
func (c *RasterCanvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the current frame.
func (c *RasterCanvas) Image() *image.RGBA { return c.img }

// Clear fills the frame with bg.
func (c *RasterCanvas) Clear(bg core.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(bg.Over(core.Black).NRGBA()), image.Point{}, draw.Src)
}

// Draw paints every live item of b.
func (c *RasterCanvas) Draw(b *batch.Batch) {
	if b == nil {
		return
	}
	for _, it := range b.Items() {
		dst := c.target(it)
		if dst == nil {
			continue
		}
		switch it.Kind() {
		case batch.KindQuad:
			c.drawQuad(dst, it)
		case batch.KindLines:
			c.drawLines(dst, it)
		case batch.KindText:
			c.drawText(dst, it)
		case batch.KindSprite:
			c.drawSprite(dst, it)
		}
	}
}

// Present is a no-op; the frame is read with Image or EncodePNG.
func (c *RasterCanvas) Present() error { return nil }

// EncodePNG writes the current frame as PNG.
func (c *RasterCanvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.img)
}

// target returns the image clipped to the item's clip rectangle.
func (c *RasterCanvas) target(it *batch.Item) *image.RGBA {
	clip := it.Clip()
	if clip.Empty() {
		return c.img
	}
	r := image.Rect(clip.X, clip.Y, clip.Right(), clip.Bottom()).Intersect(c.img.Bounds())
	if r.Empty() {
		return nil
	}
	return c.img.SubImage(r).(*image.RGBA)
}

func toImageRect(r core.Rect) image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

func (c *RasterCanvas) drawQuad(dst *image.RGBA, it *batch.Item) {
	rect := it.Rect()
	cols := it.Colors()
	if cols[0] == cols[1] && cols[1] == cols[2] && cols[2] == cols[3] {
		draw.Draw(dst, toImageRect(rect).Intersect(dst.Bounds()), image.NewUniform(cols[0].NRGBA()), image.Point{}, draw.Over)
		return
	}
	area := toImageRect(rect).Intersect(dst.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			col := bilinear(cols, rect, x, y)
			under := core.FromColor(dst.At(x, y))
			dst.Set(x, y, col.Over(under).NRGBA())
		}
	}
}

func (c *RasterCanvas) drawLines(dst *image.RGBA, it *batch.Item) {
	pts := it.Points()
	col := it.Color()
	bounds := dst.Bounds()
	for i := 0; i+1 < len(pts); i += 2 {
		line(pts[i], pts[i+1], func(x, y int) {
			if !(image.Point{X: x, Y: y}).In(bounds) {
				return
			}
			under := core.FromColor(dst.At(x, y))
			dst.Set(x, y, col.Over(under).NRGBA())
		})
	}
}

func (c *RasterCanvas) drawText(dst *image.RGBA, it *batch.Item) {
	col := it.Color()
	face := it.Face()
	if col.IsTransparent() || face == nil {
		return
	}
	d := &xfont.Drawer{Dst: dst, Src: image.NewUniform(col.NRGBA()), Face: face}
	for _, g := range it.Glyphs() {
		d.Dot = fixed.P(g.X, g.Y)
		d.DrawString(string(g.R))
	}
	if it.Attrs().Has(core.AttrUnderline) {
		r := it.Rect()
		y := 0
		if gs := it.Glyphs(); len(gs) > 0 {
			y = gs[0].Y + 1
		}
		draw.Draw(dst, image.Rect(r.X, y, r.Right(), y+1).Intersect(dst.Bounds()), d.Src, image.Point{}, draw.Over)
	}
}

func (c *RasterCanvas) drawSprite(dst *image.RGBA, it *batch.Item) {
	src := it.Image()
	if src == nil || it.Alpha() == 0 {
		return
	}
	var opts *draw.Options
	if a := it.Alpha(); a < 255 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: a})}
	}
	c.scaler.Scale(dst, toImageRect(it.Rect()), src, src.Bounds(), draw.Over, opts)
}
