// Package batch holds the drawable geometry produced by layouts and
// elements.
//
// A Batch is the retained-mode scene of one page: quads, line lists, glyph
// runs and sprites, each owned by whoever added it. Owners keep the returned
// *Item handle and mutate it in place (translate, recolor, fade) instead of
// re-adding geometry, so moving content never allocates. Backends walk
// Items() in layer order to draw a frame.
//
// A Batch is not safe for concurrent use; it belongs to the update loop.
package batch

import (
	"image"
	"slices"

	"golang.org/x/image/font"

	"github.com/dshills/lectern/internal/renderer/core"
)

// Layer orders items when drawing. Lower layers draw first.
type Layer int

const (
	LayerBackground Layer = iota
	LayerDecoration
	LayerCell
	LayerContent
	LayerElement
	LayerOverlay
)

// Kind identifies the geometry held by an Item.
type Kind uint8

const (
	KindQuad Kind = iota
	KindLines
	KindText
	KindSprite
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindQuad:
		return "quad"
	case KindLines:
		return "lines"
	case KindText:
		return "text"
	case KindSprite:
		return "sprite"
	default:
		return "unknown"
	}
}

// Glyph is one positioned rune of a text item. X and Y are the pen
// position on the baseline.
type Glyph struct {
	R       rune
	X, Y    int
	Advance int
}

// Item is one piece of geometry in a batch.
type Item struct {
	id    uint64
	kind  Kind
	layer Layer
	batch *Batch

	rect   core.Rect
	colors [4]core.Color
	points []core.Point
	glyphs []Glyph
	face   font.Face
	attrs  core.Attribute
	image  image.Image
	alpha  uint8
	clip   core.Rect
}

// Kind returns the geometry kind.
func (it *Item) Kind() Kind { return it.kind }

// Layer returns the draw layer.
func (it *Item) Layer() Layer { return it.layer }

// Rect returns the bounds of a quad or sprite, or the ink box of text.
func (it *Item) Rect() core.Rect { return it.rect }

// Color returns the primary color (first vertex for quads).
func (it *Item) Color() core.Color { return it.colors[0] }

// Colors returns per-vertex colors: top-left, top-right, bottom-right, bottom-left.
func (it *Item) Colors() [4]core.Color { return it.colors }

// Points returns line endpoints as consecutive pairs.
func (it *Item) Points() []core.Point { return it.points }

// Glyphs returns the glyphs of a text item.
func (it *Item) Glyphs() []Glyph { return it.glyphs }

// Face returns the font face of a text item.
func (it *Item) Face() font.Face { return it.face }

// Attrs returns text attributes.
func (it *Item) Attrs() core.Attribute { return it.attrs }

// Image returns the sprite image.
func (it *Item) Image() image.Image { return it.image }

// Alpha returns the sprite opacity.
func (it *Item) Alpha() uint8 { return it.alpha }

// Clip returns the clip rectangle; an empty rectangle means unclipped.
func (it *Item) Clip() core.Rect { return it.clip }

// Live reports whether the item is still part of its batch.
func (it *Item) Live() bool { return it.batch != nil }

// Translate moves all geometry of the item.
func (it *Item) Translate(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	it.rect = it.rect.Translate(dx, dy)
	for i := range it.points {
		it.points[i].X += dx
		it.points[i].Y += dy
	}
	for i := range it.glyphs {
		it.glyphs[i].X += dx
		it.glyphs[i].Y += dy
	}
	it.touch()
}

// SetRect replaces the bounds of a quad or sprite.
func (it *Item) SetRect(r core.Rect) {
	if it.rect == r {
		return
	}
	it.rect = r
	it.touch()
}

// SetColor sets every vertex color.
func (it *Item) SetColor(c core.Color) {
	it.SetColors([4]core.Color{c, c, c, c})
}

// SetColors sets per-vertex colors.
func (it *Item) SetColors(c [4]core.Color) {
	if it.colors == c {
		return
	}
	it.colors = c
	it.touch()
}

// SetAlpha sets the sprite opacity.
func (it *Item) SetAlpha(a uint8) {
	if it.alpha == a {
		return
	}
	it.alpha = a
	it.touch()
}

// SetImage swaps the sprite image, e.g. for the next video frame.
func (it *Item) SetImage(img image.Image) {
	it.image = img
	it.touch()
}

// SetClip sets the clip rectangle.
func (it *Item) SetClip(r core.Rect) {
	if it.clip == r {
		return
	}
	it.clip = r
	it.touch()
}

// Remove deletes the item from its batch. Removing twice is a no-op.
func (it *Item) Remove() {
	if it.batch != nil {
		it.batch.Remove(it)
	}
}

func (it *Item) touch() {
	if it.batch != nil {
		it.batch.version++
	}
}

// Batch is a set of drawable items.
type Batch struct {
	items   map[uint64]*Item
	nextID  uint64
	allocs  uint64
	version uint64
}

// New creates an empty batch.
func New() *Batch {
	return &Batch{items: make(map[uint64]*Item)}
}

func (b *Batch) add(it *Item) *Item {
	b.nextID++
	b.allocs++
	b.version++
	it.id = b.nextID
	it.batch = b
	b.items[it.id] = it
	return it
}

// AddQuad adds a solid rectangle.
func (b *Batch) AddQuad(layer Layer, r core.Rect, c core.Color) *Item {
	return b.add(&Item{kind: KindQuad, layer: layer, rect: r, colors: [4]core.Color{c, c, c, c}})
}

// AddGradient adds a rectangle with per-vertex colors.
func (b *Batch) AddGradient(layer Layer, r core.Rect, colors [4]core.Color) *Item {
	return b.add(&Item{kind: KindQuad, layer: layer, rect: r, colors: colors})
}

// AddLines adds a line list; pts holds consecutive endpoint pairs.
func (b *Batch) AddLines(layer Layer, pts []core.Point, c core.Color) *Item {
	return b.add(&Item{kind: KindLines, layer: layer, points: pts, colors: [4]core.Color{c, c, c, c}})
}

// AddText adds a run of glyphs drawn with one face and color.
func (b *Batch) AddText(layer Layer, face font.Face, c core.Color, attrs core.Attribute, glyphs []Glyph, bounds core.Rect) *Item {
	return b.add(&Item{
		kind:   KindText,
		layer:  layer,
		face:   face,
		colors: [4]core.Color{c, c, c, c},
		attrs:  attrs,
		glyphs: glyphs,
		rect:   bounds,
	})
}

// AddSprite adds an image drawn scaled into r.
func (b *Batch) AddSprite(layer Layer, r core.Rect, img image.Image) *Item {
	return b.add(&Item{kind: KindSprite, layer: layer, rect: r, image: img, alpha: 255})
}

// Remove deletes an item.
func (b *Batch) Remove(it *Item) {
	if it == nil || it.batch != b {
		return
	}
	delete(b.items, it.id)
	it.batch = nil
	b.version++
}

// Len returns the number of live items.
func (b *Batch) Len() int {
	return len(b.items)
}

// Allocations returns how many items were ever added.
func (b *Batch) Allocations() uint64 {
	return b.allocs
}

// Version changes whenever any item is added, removed or modified.
func (b *Batch) Version() uint64 {
	return b.version
}

// Items returns the live items ordered by layer, then insertion.
func (b *Batch) Items() []*Item {
	out := make([]*Item, 0, len(b.items))
	for _, it := range b.items {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, c *Item) int {
		if a.layer != c.layer {
			return int(a.layer) - int(c.layer)
		}
		if a.id < c.id {
			return -1
		}
		if a.id > c.id {
			return 1
		}
		return 0
	})
	return out
}

// Clear removes every item.
func (b *Batch) Clear() {
	for _, it := range b.items {
		it.batch = nil
	}
	clear(b.items)
	b.version++
}
