package document

import (
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
)

// Sentinel is the placeholder rune an element occupies in the text.
const Sentinel = '\uFFFC'

// Metrics is the box of an inline element, measured like a glyph.
// Descent is positive downward from the baseline.
type Metrics struct {
	Ascent  int
	Descent int
	Advance int
}

// Height returns ascent plus descent.
func (m Metrics) Height() int {
	return m.Ascent + m.Descent
}

// Surface is where elements put their geometry. Layouts implement it.
type Surface interface {
	// Batch returns the batch geometry is added to.
	Batch() *batch.Batch

	// Clip returns the visible rectangle; an empty rectangle means unclipped.
	Clip() core.Rect
}

// Element is an inline object embedded in the text flow.
type Element interface {
	// Metrics returns the current box.
	Metrics() Metrics

	// Place positions the element with (x, y) as its baseline-left anchor.
	// Placing again at the same position is a no-op; a new position moves
	// the existing geometry.
	Place(s Surface, x, y int) error

	// Remove releases the geometry placed in s. A nil surface releases
	// everything, including backing resources.
	Remove(s Surface)

	// SetOpacity scales the alpha of all owned geometry (0..255).
	SetOpacity(v uint8)

	// SetScale rescales the box relative to its intrinsic size.
	SetScale(factor float64)
}

// Owned is implemented by elements that need their document, e.g. to
// report box changes from SetScale. The document calls SetOwner on insert
// and SetOwner(nil) when the element is deleted.
type Owned interface {
	SetOwner(d *Document)
}
