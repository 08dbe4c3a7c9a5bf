package font

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/dshills/lectern/internal/renderer/core"
)

// Grid provides faces for character-cell displays. Every face is the same
// regardless of Spec: one unit of ascent, no descent, and advances equal to
// the rune's cell width.
type Grid struct{}

// Face returns the shared grid face.
func (Grid) Face(Spec) font.Face {
	return fixedFace{advance: 1, ascent: 1, cells: true}
}

// Fixed provides a synthetic face with constant metrics for every Spec.
// It is used to measure without font files.
type Fixed struct {
	Advance int
	Ascent  int
	Descent int
}

// Face returns the fixed face.
func (f Fixed) Face(Spec) font.Face {
	return fixedFace{advance: max(f.Advance, 0), ascent: f.Ascent, descent: f.Descent}
}

type fixedFace struct {
	advance int
	ascent  int
	descent int

	// cells scales advances by the terminal width of the rune.
	cells bool
}

func (f fixedFace) Close() error { return nil }

func (f fixedFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	adv, _ := f.GlyphAdvance(r)
	return image.Rectangle{}, nil, image.Point{}, adv, true
}

func (f fixedFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	adv, _ := f.GlyphAdvance(r)
	return fixed.Rectangle26_6{
		Min: fixed.Point26_6{Y: -fixedInt(f.ascent)},
		Max: fixed.Point26_6{X: adv, Y: fixedInt(f.descent)},
	}, adv, true
}

func (f fixedFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	if !f.cells || r == ' ' || r == '\t' {
		return fixedInt(f.advance), true
	}
	return fixedInt(f.advance * core.RuneWidth(r)), true
}

func (f fixedFace) Kern(r0, r1 rune) fixed.Int26_6 { return 0 }

func (f fixedFace) Metrics() font.Metrics {
	return font.Metrics{
		Height:    fixedInt(f.ascent + f.descent),
		Ascent:    fixedInt(f.ascent),
		Descent:   fixedInt(f.descent),
		XHeight:   fixedInt(f.ascent),
		CapHeight: fixedInt(f.ascent),
	}
}

// IsGrid reports whether face is a grid face.
func IsGrid(face font.Face) bool {
	f, ok := face.(fixedFace)
	return ok && f.cells
}
